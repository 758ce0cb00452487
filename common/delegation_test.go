package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVestsToHP(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0.6, VestsToHP(1000, 180_000_000, 300_000_000_000), 1e-9)
	assert.Equal(0.0, VestsToHP(0, 180_000_000, 300_000_000_000))

	// zero share supply is a fatal precondition violation upstream; the
	// conversion itself just reports a non-finite value
	assert.True(math.IsInf(VestsToHP(1000, 180_000_000, 0), 1))
}

func TestRoundHP(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1.235, RoundHP(1.23456))
	assert.Equal(10.0, RoundHP(10.0))
}

func TestAppendSuppressesNoops(t *testing.T) {
	assert := assert.New(t)

	ledger := make(DelegationLedger)

	assert.True(ledger.Append(DelegationEvent{Delegator: "bob", TotalVests: 1000, TimestampMs: 1}))
	// re-broadcast of the same cumulative total
	assert.False(ledger.Append(DelegationEvent{Delegator: "bob", TotalVests: 1000, TimestampMs: 2}))
	assert.False(ledger.Append(DelegationEvent{Delegator: "bob", TotalVests: 1000 + 1e-7, TimestampMs: 3}))

	assert.Len(ledger["bob"], 1)
	assert.Equal(1000.0, ledger["bob"][0].Vests)
	assert.Equal(1000.0, ledger["bob"][0].TotalVests)
}

func TestAppendFirstDeltaEqualsTotal(t *testing.T) {
	assert := assert.New(t)

	ledger := make(DelegationLedger)
	ledger.Append(DelegationEvent{Delegator: "alice", TotalVests: 2500})

	assert.Equal(ledger["alice"][0].Vests, ledger["alice"][0].TotalVests)
}

func TestCurrentVests(t *testing.T) {
	assert := assert.New(t)

	ledger := make(DelegationLedger)
	ledger.Append(DelegationEvent{Delegator: "bob", TotalVests: 1000})
	ledger.Append(DelegationEvent{Delegator: "bob", TotalVests: 2500})
	ledger.Append(DelegationEvent{Delegator: "bob", TotalVests: 500})

	assert.InDelta(500.0, ledger.CurrentVests("bob"), 1e-9)
	assert.Equal(0.0, ledger.CurrentVests("nobody"))
}

func TestSnapshotSkipsInactiveDelegators(t *testing.T) {
	assert := assert.New(t)

	ledger := make(DelegationLedger)
	ledger.Append(DelegationEvent{Delegator: "active", TotalVests: 2000})
	// fully undelegated
	ledger.Append(DelegationEvent{Delegator: "gone", TotalVests: 1500})
	ledger.Append(DelegationEvent{Delegator: "gone", TotalVests: 0})

	props := GlobalProperties{TotalVestingFundHive: 1, TotalVestingShares: 2}
	snapshot := ledger.Snapshot(props)

	assert.Len(snapshot, 1)
	assert.Equal("active", snapshot[0].Username)
	assert.InDelta(1000.0, snapshot[0].HP, 1e-9)
}

func TestSnapshotOrderedByPowerDescending(t *testing.T) {
	assert := assert.New(t)

	ledger := make(DelegationLedger)
	ledger.Append(DelegationEvent{Delegator: "small", TotalVests: 10})
	ledger.Append(DelegationEvent{Delegator: "big", TotalVests: 1000})
	ledger.Append(DelegationEvent{Delegator: "mid", TotalVests: 100})

	props := GlobalProperties{TotalVestingFundHive: 1, TotalVestingShares: 1}
	snapshot := ledger.Snapshot(props)

	assert.Equal([]string{"big", "mid", "small"}, []string{snapshot[0].Username, snapshot[1].Username, snapshot[2].Username})
	assert.InDelta(1110.0, TotalHP(snapshot), 1e-9)
}
