package store

import (
	"fmt"
	"time"
)

// FailedPayout is one permanently failed transfer, kept with enough
// context for manual reconciliation.
type FailedPayout struct {
	Timestamp time.Time
	Recipient string
	Amount    float64
	Memo      string
}

// Line renders the append-only failure log format:
// timestamp | recipient | amount | memo
func (f FailedPayout) Line() string {
	return fmt.Sprintf("%s | %s | %.3f | %s\n",
		f.Timestamp.UTC().Format(time.RFC3339), f.Recipient, f.Amount, f.Memo)
}

// LedgerState is the sidecar record persisted next to the ledger so
// ingestion can resume from the last processed operation.
type LedgerState struct {
	LastIndex int64 `json:"last_index"`
}
