package core

import (
	"math"
	"math/rand"
	"strings"

	"github.com/samber/lo"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/constants"
)

// TierPolicy computes the ticket count for a delegation of the given
// power. The formula has been revised several times operationally, so it
// stays pluggable instead of hard-coded.
type TierPolicy func(hp float64) int

// CanonicalPolicy: below 95 HP one ticket per full 10 HP, with explicit
// low-band overrides (10-14.99 -> 1, 15-19.99 -> 2); from 95 HP up one
// ticket per started 100 HP band above the tier threshold.
func CanonicalPolicy(hp float64) int {
	if hp < constants.TIER2_THRESHOLD_HP {
		switch {
		case hp >= 15 && hp < 20:
			return 2
		case hp >= 10 && hp < 15:
			return 1
		default:
			return int(math.Floor(hp / 10))
		}
	}
	return int(math.Floor((hp-constants.TIER2_THRESHOLD_HP)/100)) + 1
}

// CeilingPolicy is the later operational variant: tier 1 unchanged, tier 2
// one ticket per 100 HP rounded up, never less than one.
func CeilingPolicy(hp float64) int {
	if hp < constants.TIER2_THRESHOLD_HP {
		return CanonicalPolicy(hp)
	}
	tickets := int(math.Ceil(hp / 100))
	if tickets == 0 {
		tickets = 1
	}
	return tickets
}

// PolicyByName resolves the configured tier policy.
func PolicyByName(name string) (TierPolicy, error) {
	switch name {
	case "", "canonical":
		return CanonicalPolicy, nil
	case "ceiling":
		return CeilingPolicy, nil
	default:
		return nil, constants.ErrUnknownTierPolicy
	}
}

// PoolEntry is one delegator's computed weight in a pool preview.
type PoolEntry struct {
	Username string  `json:"username"`
	HP       float64 `json:"hp"`
	Tickets  int     `json:"tickets"`
}

// EligibleEntries applies the exclusion set (case-insensitive) and the
// minimum threshold, then computes each remaining delegator's tickets.
func EligibleEntries(snapshot []common.DelegatorPower, excluded []string, minimumHP float64, policy TierPolicy) []PoolEntry {
	exclusions := lo.Map(excluded, func(name string, _ int) string {
		return strings.ToLower(name)
	})

	eligible := lo.Filter(snapshot, func(d common.DelegatorPower, _ int) bool {
		if lo.Contains(exclusions, strings.ToLower(d.Username)) {
			return false
		}
		return d.HP >= minimumHP
	})

	return lo.Map(eligible, func(d common.DelegatorPower, _ int) PoolEntry {
		return PoolEntry{
			Username: d.Username,
			HP:       d.HP,
			Tickets:  policy(d.HP),
		}
	})
}

// BuildPool flattens entries into the ticket pool: each username appears
// once per ticket. An empty pool is valid and means no eligible entries.
func BuildPool(snapshot []common.DelegatorPower, excluded []string, minimumHP float64, policy TierPolicy) []string {
	entries := EligibleEntries(snapshot, excluded, minimumHP, policy)

	pool := make([]string, 0, lo.SumBy(entries, func(e PoolEntry) int { return e.Tickets }))
	for _, entry := range entries {
		for i := 0; i < entry.Tickets; i++ {
			pool = append(pool, entry.Username)
		}
	}
	return pool
}

// SplitTiers partitions a snapshot into tier 1 (minimum..threshold) and
// tier 2 (threshold and above).
func SplitTiers(snapshot []common.DelegatorPower, minimumHP float64) (tier1, tier2 []common.DelegatorPower) {
	tier1 = lo.Filter(snapshot, func(d common.DelegatorPower, _ int) bool {
		return d.HP >= minimumHP && d.HP < constants.TIER2_THRESHOLD_HP
	})
	tier2 = lo.Filter(snapshot, func(d common.DelegatorPower, _ int) bool {
		return d.HP >= constants.TIER2_THRESHOLD_HP
	})
	return tier1, tier2
}

// Draw picks one winner uniformly from the pool; win probability is
// proportional to ticket count by construction.
func Draw(pool []string, rng *rand.Rand) (string, bool) {
	if len(pool) == 0 {
		return "", false
	}
	return pool[rng.Intn(len(pool))], true
}
