package core

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/hive"
)

var testProps = common.GlobalProperties{TotalVestingFundHive: 1, TotalVestingShares: 1}

func delegationOp(index int64, delegator, delegatee string, vests float64, at time.Time) hive.HistoryItem {
	body, _ := json.Marshal(hive.DelegateVestingShares{
		Delegator:     delegator,
		Delegatee:     delegatee,
		VestingShares: fmt.Sprintf("%.6f VESTS", vests),
	})
	return hive.HistoryItem{
		Index: index,
		Entry: hive.OperationEntry{
			Timestamp: hive.Timestamp{Time: at},
			Op:        hive.Operation{Kind: "delegate_vesting_shares", Body: body},
		},
	}
}

func otherOp(index int64, at time.Time) hive.HistoryItem {
	return hive.HistoryItem{
		Index: index,
		Entry: hive.OperationEntry{
			Timestamp: hive.Timestamp{Time: at},
			Op:        hive.Operation{Kind: "transfer", Body: json.RawMessage(`{}`)},
		},
	}
}

func TestBuildLedgerEndToEnd(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	history := []hive.HistoryItem{
		delegationOp(0, "bob", "bayanihive", 1000, base),
		delegationOp(1, "bob", "bayanihive", 2500, base.Add(time.Hour)),
		// re-broadcast of an unchanged total
		delegationOp(2, "bob", "bayanihive", 2500, base.Add(2*time.Hour)),
	}

	ledger := BuildLedger(history, "bayanihive", testProps)

	require.Len(t, ledger["bob"], 2)
	assert.Equal(1000.0, ledger["bob"][0].Vests)
	assert.Equal(1000.0, ledger["bob"][0].TotalVests)
	assert.Equal(1500.0, ledger["bob"][1].Vests)
	assert.Equal(2500.0, ledger["bob"][1].TotalVests)
}

func TestBuildLedgerDeltaMonotonicity(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	totals := []float64{100, 350, 350, 90, 1200, 1200, 0, 50}

	history := make([]hive.HistoryItem, 0, len(totals))
	for i, total := range totals {
		history = append(history, delegationOp(int64(i), "alice", "bayanihive", total, base.Add(time.Duration(i)*time.Minute)))
	}

	ledger := BuildLedger(history, "bayanihive", testProps)

	running := 0.0
	for _, delta := range ledger["alice"] {
		running += delta.Vests
		assert.InDelta(delta.TotalVests, running, 1e-9)
	}
	// two re-broadcasts dropped
	assert.Len(ledger["alice"], len(totals)-2)
}

func TestBuildLedgerSortsByTimestamp(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	// retrieval order is newest-first; fold order must be chronological
	history := []hive.HistoryItem{
		delegationOp(2, "bob", "bayanihive", 3000, base.Add(2*time.Hour)),
		delegationOp(1, "bob", "bayanihive", 2000, base.Add(time.Hour)),
		delegationOp(0, "bob", "bayanihive", 1000, base),
	}

	ledger := BuildLedger(history, "bayanihive", testProps)

	require.Len(t, ledger["bob"], 3)
	assert.Equal(1000.0, ledger["bob"][0].Vests)
	assert.Equal(1000.0, ledger["bob"][1].Vests)
	assert.Equal(1000.0, ledger["bob"][2].Vests)
	assert.Equal(3000.0, ledger["bob"][2].TotalVests)
}

func TestBuildLedgerIgnoresForeignOperations(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	history := []hive.HistoryItem{
		otherOp(0, base),
		delegationOp(1, "bob", "someoneelse", 5000, base.Add(time.Minute)),
		delegationOp(2, "bob", "bayanihive", 1000, base.Add(2*time.Minute)),
	}

	ledger := BuildLedger(history, "bayanihive", testProps)

	assert.Len(ledger, 1)
	assert.Len(ledger["bob"], 1)
	assert.Equal(1000.0, ledger["bob"][0].TotalVests)
}

func TestBuildLedgerStoresTotalPowerPerDelta(t *testing.T) {
	assert := assert.New(t)

	props := common.GlobalProperties{TotalVestingFundHive: 1, TotalVestingShares: 2}
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	history := []hive.HistoryItem{
		delegationOp(0, "bob", "bayanihive", 1000, base),
	}

	ledger := BuildLedger(history, "bayanihive", props)

	// hp reflects the cumulative total at the run's exchange rate
	assert.Equal(500.0, ledger["bob"][0].HP)
	assert.Equal("2024-05-01", ledger["bob"][0].Date)
	assert.Equal(base.UnixMilli(), ledger["bob"][0].TimestampMs)
}

func TestExtendLedgerCarriesRunningTotals(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	initial := BuildLedger([]hive.HistoryItem{
		delegationOp(0, "bob", "bayanihive", 1000, base),
	}, "bayanihive", testProps)

	extended := ExtendLedger(initial, []hive.HistoryItem{
		delegationOp(1, "bob", "bayanihive", 2500, base.Add(time.Hour)),
		// no-op relative to the carried total
		delegationOp(2, "bob", "bayanihive", 2500, base.Add(2*time.Hour)),
	}, "bayanihive", testProps)

	require.Len(t, extended["bob"], 2)
	assert.Equal(1500.0, extended["bob"][1].Vests)
	assert.Equal(2500.0, extended["bob"][1].TotalVests)
}

func TestExtendLedgerIgnoresReplayedOperations(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ops := []hive.HistoryItem{
		delegationOp(0, "bob", "bayanihive", 500, base),
		delegationOp(1, "bob", "bayanihive", 700, base.Add(time.Hour)),
	}
	ledger := BuildLedger(ops, "bayanihive", testProps)
	require.Len(t, ledger["bob"], 2)

	// a lagging state sidecar hands the builder operations it already folded
	extended := ExtendLedger(ledger, ops, "bayanihive", testProps)

	require.Len(t, extended["bob"], 2)
	assert.Equal(500.0, extended["bob"][0].TotalVests)
	assert.Equal(700.0, extended["bob"][1].TotalVests)

	// genuinely fresh operations still fold onto the carried total
	extended = ExtendLedger(extended, []hive.HistoryItem{
		delegationOp(2, "bob", "bayanihive", 900, base.Add(2*time.Hour)),
	}, "bayanihive", testProps)

	require.Len(t, extended["bob"], 3)
	assert.Equal(200.0, extended["bob"][2].Vests)
	assert.Equal(900.0, extended["bob"][2].TotalVests)
}

func TestHighestIndex(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(int64(-1), HighestIndex(nil))
	assert.Equal(int64(7), HighestIndex([]hive.HistoryItem{
		otherOp(3, base),
		otherOp(7, base),
		otherOp(5, base),
	}))
}
