package common

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/bayanihive/delegation-roulette/constants"
)

// DelegationEvent is one delegate_vesting_shares operation addressed to the
// tracked account. The chain reports the new cumulative total, not a delta.
type DelegationEvent struct {
	Delegator   string
	TotalVests  float64
	HP          float64
	TimestampMs int64
	Date        string
}

// DelegationDelta is one persisted change of a delegator's delegation.
type DelegationDelta struct {
	Vests       float64 `json:"vests"`
	TotalVests  float64 `json:"totalVests"`
	HP          float64 `json:"hp"`
	TimestampMs int64   `json:"timestamp"`
	Date        string  `json:"date"`
}

// DelegationLedger maps a delegator to their chronologically ordered deltas.
type DelegationLedger map[string][]DelegationDelta

// GlobalProperties is the fund/share exchange rate snapshot used for
// VESTS to HP conversion. Fetched fresh per run, applied uniformly to all
// historical events; HP values are approximations at the rate of the run,
// not of the event time.
type GlobalProperties struct {
	TotalVestingFundHive float64
	TotalVestingShares   float64
}

// VestsToHP converts a vesting share quantity to Hive Power. Returns a
// non-finite value when the share supply is zero; callers must treat that
// as a fatal precondition violation.
func VestsToHP(vests, totalVestingFundHive, totalVestingShares float64) float64 {
	return vests * totalVestingFundHive / totalVestingShares
}

func (p GlobalProperties) VestsToHP(vests float64) float64 {
	return VestsToHP(vests, p.TotalVestingFundHive, p.TotalVestingShares)
}

// RoundHP trims an HP value to the three decimals the ledger stores.
func RoundHP(hp float64) float64 {
	return math.Round(hp*1000) / 1000
}

// DelegatorPower is a delegator with their currently delegated power.
type DelegatorPower struct {
	Username string  `json:"username"`
	HP       float64 `json:"hp"`
}

// CurrentVests sums a delegator's deltas into their present delegation.
func (l DelegationLedger) CurrentVests(delegator string) float64 {
	return lo.SumBy(l[delegator], func(d DelegationDelta) float64 {
		return d.Vests
	})
}

// Snapshot derives the active delegator set at the given exchange rate.
// Only delegators with a strictly positive summed delegation qualify.
// The result is ordered by HP descending for stable summaries.
func (l DelegationLedger) Snapshot(props GlobalProperties) []DelegatorPower {
	snapshot := make([]DelegatorPower, 0, len(l))
	for delegator := range l {
		vests := l.CurrentVests(delegator)
		if vests <= 0 {
			continue
		}
		snapshot = append(snapshot, DelegatorPower{
			Username: delegator,
			HP:       props.VestsToHP(vests),
		})
	}
	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].HP != snapshot[j].HP {
			return snapshot[i].HP > snapshot[j].HP
		}
		return snapshot[i].Username < snapshot[j].Username
	})
	return snapshot
}

// TotalHP sums the power of a snapshot.
func TotalHP(snapshot []DelegatorPower) float64 {
	return lo.SumBy(snapshot, func(d DelegatorPower) float64 {
		return d.HP
	})
}

// Append folds one event onto a delegator's sequence. Events whose total
// matches the previous total within epsilon are no-ops and are dropped.
// Reports whether a delta was stored.
func (l DelegationLedger) Append(event DelegationEvent) bool {
	previousTotal := 0.0
	if deltas := l[event.Delegator]; len(deltas) > 0 {
		previousTotal = deltas[len(deltas)-1].TotalVests
	}

	delta := event.TotalVests - previousTotal
	if math.Abs(delta) <= constants.DELTA_EPSILON {
		return false
	}

	l[event.Delegator] = append(l[event.Delegator], DelegationDelta{
		Vests:       delta,
		TotalVests:  event.TotalVests,
		HP:          RoundHP(event.HP),
		TimestampMs: event.TimestampMs,
		Date:        event.Date,
	})
	return true
}
