package hive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Account is the subset of get_accounts fields this tool reads.
type Account struct {
	Name                  string `json:"name"`
	ReceivedVestingShares string `json:"received_vesting_shares"`
}

// DynamicGlobalProperties carries the fund/share totals as the chain
// reports them: decimal strings with a unit suffix.
type DynamicGlobalProperties struct {
	TotalVestingFundHive string `json:"total_vesting_fund_hive"`
	TotalVestingShares   string `json:"total_vesting_shares"`
}

// ParseAsset splits a chain asset string like "1234.567 HIVE" into its
// numeric part.
func ParseAsset(asset string) (float64, error) {
	fields := strings.Fields(asset)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty asset string")
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing asset %q: %w", asset, err)
	}
	return value, nil
}

// Operation is the kind-discriminated payload of one history entry,
// serialized on the wire as ["kind", {...}].
type Operation struct {
	Kind string
	Body json.RawMessage
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("operation: expected [kind, body] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Kind); err != nil {
		return err
	}
	o.Body = pair[1]
	return nil
}

// DelegateVestingShares is the payload of a delegate_vesting_shares
// operation. VestingShares is the new cumulative total, not a delta.
type DelegateVestingShares struct {
	Delegator     string `json:"delegator"`
	Delegatee     string `json:"delegatee"`
	VestingShares string `json:"vesting_shares"`
}

// OperationEntry is the envelope around one operation in account history.
type OperationEntry struct {
	TrxID     string    `json:"trx_id"`
	Block     int64     `json:"block"`
	Timestamp Timestamp `json:"timestamp"`
	Op        Operation `json:"op"`
}

// HistoryItem is one (index, operation) element of get_account_history,
// serialized on the wire as [index, {...}].
type HistoryItem struct {
	Index int64
	Entry OperationEntry
}

func (h *HistoryItem) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("history item: expected [index, entry] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &h.Index); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &h.Entry)
}

// Timestamp handles the chain's zone-less UTC timestamp strings.
type Timestamp struct {
	time.Time
}

const chainTimeLayout = "2006-01-02T15:04:05"

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// no zone suffix on the wire; the chain reports UTC
	parsed, err := time.ParseInLocation(chainTimeLayout, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(chainTimeLayout))
}
