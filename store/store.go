package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/constants"
)

// Store persists the delegation ledger as a single JSON document, a
// sidecar state file with the last processed history index, and an
// append-only failed payout log.
type Store struct {
	ledgerPath     string
	statePath      string
	failureLogPath string
}

func NewStore(ledgerPath, failureLogPath string) *Store {
	return &Store{
		ledgerPath:     ledgerPath,
		statePath:      ledgerPath + constants.LEDGER_STATE_FILE_SUFFIX,
		failureLogPath: failureLogPath,
	}
}

// LoadLedger reads the persisted ledger. Returns constants.ErrLedgerNotFound
// when no ledger has been built yet.
func (s *Store) LoadLedger() (common.DelegationLedger, error) {
	data, err := os.ReadFile(s.ledgerPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, constants.ErrLedgerNotFound
		}
		return nil, err
	}

	ledger := make(common.DelegationLedger)
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// SaveLedger writes the ledger and its state in full. The ledger goes
// through a temp file and rename so a failed run never leaves a partial
// document behind.
func (s *Store) SaveLedger(ledger common.DelegationLedger, lastIndex int64) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := s.ledgerPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.ledgerPath); err != nil {
		return err
	}

	stateData, err := json.Marshal(LedgerState{LastIndex: lastIndex})
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath, stateData, 0o644)
}

// LastIndex returns the highest history index folded into the persisted
// ledger, or -1 when nothing has been processed.
func (s *Store) LastIndex() int64 {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return -1
	}

	var state LedgerState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("failed to parse ledger state, treating as unprocessed", "path", s.statePath, "error", err.Error())
		return -1
	}
	return state.LastIndex
}

// AppendFailedPayout records a permanently failed transfer.
func (s *Store) AppendFailedPayout(payout FailedPayout) error {
	f, err := os.OpenFile(s.failureLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(payout.Line())
	return err
}
