package core

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/hive"
)

// ExtractDelegationEvents filters raw history down to delegate_vesting_shares
// operations addressed to the tracked account and converts them using a
// single exchange-rate snapshot. Entries that fail to decode are skipped
// with a warning rather than aborting the whole build.
func ExtractDelegationEvents(rawHistory []hive.HistoryItem, trackedAccount string, props common.GlobalProperties) []common.DelegationEvent {
	events := make([]common.DelegationEvent, 0, len(rawHistory))

	for _, item := range rawHistory {
		if item.Entry.Op.Kind != constants.DelegateVestingSharesOp {
			continue
		}

		var payload hive.DelegateVestingShares
		if err := json.Unmarshal(item.Entry.Op.Body, &payload); err != nil {
			slog.Warn("skipping undecodable delegation operation", "index", item.Index, "error", err.Error())
			continue
		}
		if payload.Delegatee != trackedAccount {
			continue
		}

		totalVests, err := hive.ParseAsset(payload.VestingShares)
		if err != nil {
			slog.Warn("skipping delegation with invalid vesting shares", "index", item.Index, "error", err.Error())
			continue
		}

		timestamp := item.Entry.Timestamp.Time
		events = append(events, common.DelegationEvent{
			Delegator:   payload.Delegator,
			TotalVests:  totalVests,
			HP:          props.VestsToHP(totalVests),
			TimestampMs: timestamp.UnixMilli(),
			Date:        timestamp.Format("2006-01-02"),
		})
	}

	return events
}

// BuildLedger folds delegation events into a fresh per-delegator delta
// ledger. Events are ordered by timestamp, ties broken by retrieval order.
func BuildLedger(rawHistory []hive.HistoryItem, trackedAccount string, props common.GlobalProperties) common.DelegationLedger {
	ledger := make(common.DelegationLedger)
	return foldEvents(ledger, rawHistory, trackedAccount, props)
}

// ExtendLedger folds only fresh history onto an existing ledger, carrying
// each delegator's running total forward from the stored deltas. Events at
// or before a delegator's last stored delta are replays of already folded
// operations (the state sidecar can lag the ledger after a partial write)
// and are dropped; refolding them would append spurious reversal deltas.
func ExtendLedger(ledger common.DelegationLedger, freshHistory []hive.HistoryItem, trackedAccount string, props common.GlobalProperties) common.DelegationLedger {
	events := ExtractDelegationEvents(freshHistory, trackedAccount, props)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMs < events[j].TimestampMs
	})

	stored := 0
	replayed := 0
	for _, event := range events {
		if deltas := ledger[event.Delegator]; len(deltas) > 0 && event.TimestampMs <= deltas[len(deltas)-1].TimestampMs {
			replayed++
			continue
		}
		if ledger.Append(event) {
			stored++
		}
	}
	slog.Debug("extended delegation ledger", "events", len(events), "stored_deltas", stored, "replayed_dropped", replayed)

	return ledger
}

func foldEvents(ledger common.DelegationLedger, rawHistory []hive.HistoryItem, trackedAccount string, props common.GlobalProperties) common.DelegationLedger {
	events := ExtractDelegationEvents(rawHistory, trackedAccount, props)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMs < events[j].TimestampMs
	})

	stored := 0
	for _, event := range events {
		if ledger.Append(event) {
			stored++
		}
	}
	slog.Debug("folded delegation events", "events", len(events), "stored_deltas", stored, "noop_dropped", len(events)-stored)

	return ledger
}

// HighestIndex returns the largest operation index in the history, or -1
// for an empty history.
func HighestIndex(rawHistory []hive.HistoryItem) int64 {
	return lo.Reduce(rawHistory, func(acc int64, item hive.HistoryItem, _ int) int64 {
		return max(acc, item.Index)
	}, -1)
}
