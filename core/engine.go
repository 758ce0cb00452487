package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/configuration"
	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/hive"
	"github.com/bayanihive/delegation-roulette/notifications"
	"github.com/bayanihive/delegation-roulette/store"
)

type Engine struct {
	config      *configuration.Runtime
	client      *hive.Client
	pager       *HistoryPager
	store       *store.Store
	dispatcher  *Dispatcher
	notificator *notifications.DiscordNotificator
	policy      TierPolicy
	rng         *rand.Rand
	logger      *slog.Logger
}

type EngineOptions struct {
	Transport http.RoundTripper
	// deterministic source for tests; nil seeds from wall clock
	Rand *rand.Rand
}

var DefaultEngineOptions = &EngineOptions{}

func NewEngine(config *configuration.Runtime, options *EngineOptions) (*Engine, error) {
	if options == nil {
		options = DefaultEngineOptions
	}

	rotator, err := hive.NewEndpointRotator(config.Nodes)
	if err != nil {
		slog.Error("failed to create endpoint rotator", "error", err.Error())
		return nil, err
	}

	policy, err := PolicyByName(config.Eligibility.TierPolicy)
	if err != nil {
		slog.Error("failed to resolve tier policy", "policy", config.Eligibility.TierPolicy, "error", err.Error())
		return nil, err
	}

	client := hive.NewClient(rotator, options.Transport)
	fileStore := store.NewStore(config.LedgerPath, config.FailureLogPath)
	credentials := configuration.LoadCredentials()

	notificator, err := notifications.InitDiscordNotificator(&config.DiscordNotificator)
	if err != nil {
		slog.Warn("failed to initialize notificator", "error", err.Error())
	}

	rng := options.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	logger := slog.Default()

	return &Engine{
		config:      config,
		client:      client,
		pager:       NewHistoryPager(client, logger),
		store:       fileStore,
		dispatcher:  NewDispatcher(client, rotator, fileStore, credentials, config.DryRun, logger),
		notificator: notificator,
		policy:      policy,
		rng:         rng,
		logger:      logger,
	}, nil
}

// checkAccount verifies the tracked account exists and logs the chain's
// own received-delegation aggregate as a cross-check for the summary.
func (e *Engine) checkAccount(ctx context.Context) (*hive.Account, error) {
	account, err := e.client.GetAccount(ctx, e.config.Account)
	if err != nil {
		e.logger.Error("failed to look up tracked account", "account", e.config.Account, "error", err.Error())
		return nil, err
	}
	e.logger.Info("account found", "account", account.Name, "received_vesting_shares", account.ReceivedVestingShares)
	return account, nil
}

// BuildDelegationHistory rebuilds or extends the persisted delta ledger.
// Any fetch failure aborts before anything is written.
func (e *Engine) BuildDelegationHistory(ctx context.Context, rebuild bool) error {
	e.logger.Info("generating delegation history", "account", e.config.Account, "rebuild", rebuild)

	account, err := e.checkAccount(ctx)
	if err != nil {
		return err
	}

	props, err := e.client.GetGlobalProperties(ctx)
	if err != nil {
		e.logger.Error("failed to fetch global properties", "error", err.Error())
		return err
	}

	var ledger common.DelegationLedger
	var rawHistory []hive.HistoryItem

	lastIndex := int64(-1)
	if !rebuild {
		lastIndex = e.store.LastIndex()
	}

	switch {
	case lastIndex >= 0:
		ledger, err = e.store.LoadLedger()
		if err != nil {
			e.logger.Error("failed to load existing ledger, falling back to rebuild", "error", err.Error())
			lastIndex = -1
			ledger = nil
		}
	}

	if lastIndex >= 0 {
		rawHistory, err = e.pager.FetchSince(ctx, e.config.Account, lastIndex)
		if err != nil {
			e.logger.Error("failed to fetch account history", "account", e.config.Account, "error", err.Error())
			return err
		}
		e.logger.Info("processing fresh operations", "count", len(rawHistory), "after_index", lastIndex)
		ledger = ExtendLedger(ledger, rawHistory, e.config.Account, *props)
	} else {
		rawHistory, err = e.pager.FetchAll(ctx, e.config.Account)
		if err != nil {
			e.logger.Error("failed to fetch account history", "account", e.config.Account, "error", err.Error())
			return err
		}
		e.logger.Info("processing operations for delegation events", "count", len(rawHistory))
		ledger = BuildLedger(rawHistory, e.config.Account, *props)
	}

	newLastIndex := max(lastIndex, HighestIndex(rawHistory))
	if err := e.store.SaveLedger(ledger, newLastIndex); err != nil {
		e.logger.Error("failed to persist delegation ledger", "error", err.Error())
		return err
	}

	e.logger.Info("delegation history saved", "path", e.config.LedgerPath, "delegators", len(ledger), "last_index", newLastIndex)
	e.logSummary(ledger, *props, account)
	return nil
}

// logSummary prints the per-delegator breakdown the way the history script
// always has, plus the chain aggregate for eyeballing drift.
func (e *Engine) logSummary(ledger common.DelegationLedger, props common.GlobalProperties, account *hive.Account) {
	snapshot := ledger.Snapshot(props)
	totalHP := common.TotalHP(snapshot)

	for _, d := range snapshot {
		percent := 0.0
		if totalHP > 0 {
			percent = d.HP / totalHP * 100
		}
		e.logger.Info("delegator summary", "delegator", d.Username, "hp", fmt.Sprintf("%.3f", d.HP), "share", fmt.Sprintf("%.2f%%", percent))
	}
	e.logger.Info("total received", "hp", fmt.Sprintf("%.3f", totalHP), "chain_received_vesting_shares", account.ReceivedVestingShares)
}

// Snapshot loads the persisted ledger and derives the active delegator
// set at the current exchange rate.
func (e *Engine) Snapshot(ctx context.Context) ([]common.DelegatorPower, error) {
	ledger, err := e.store.LoadLedger()
	if err != nil {
		return nil, err
	}

	props, err := e.client.GetGlobalProperties(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Snapshot(*props), nil
}

// Ledger returns the persisted ledger document.
func (e *Engine) Ledger() (common.DelegationLedger, error) {
	return e.store.LoadLedger()
}

// PoolPreview computes eligible entries and ticket counts for one tier
// without drawing.
func (e *Engine) PoolPreview(ctx context.Context, tier int) ([]PoolEntry, error) {
	snapshot, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	tier1, tier2 := SplitTiers(snapshot, e.config.Eligibility.MinimumHP)
	switch tier {
	case 1:
		return EligibleEntries(tier1, e.config.Eligibility.Excluded, e.config.Eligibility.MinimumHP, e.policy), nil
	case 2:
		return EligibleEntries(tier2, e.config.Eligibility.Excluded, e.config.Eligibility.MinimumHP, e.policy), nil
	default:
		return nil, fmt.Errorf("unknown tier %d", tier)
	}
}

// RunRoulette draws one winner per tier from the persisted ledger and
// dispatches the rewards. A failed dispatch for one tier never blocks the
// other.
func (e *Engine) RunRoulette(ctx context.Context) error {
	e.logger.Info("fetching delegators", "account", e.config.Account)

	if _, err := e.checkAccount(ctx); err != nil {
		return err
	}

	ledger, err := e.store.LoadLedger()
	if err != nil {
		e.logger.Error("failed to load delegation history", "path", e.config.LedgerPath, "error", err.Error())
		return err
	}
	if len(ledger) == 0 {
		e.logger.Error("no delegations found in history")
		return constants.ErrEmptyLedger
	}
	e.logger.Info("loaded delegation history", "delegators", len(ledger))

	props, err := e.client.GetGlobalProperties(ctx)
	if err != nil {
		e.logger.Error("failed to fetch global properties", "error", err.Error())
		return err
	}

	snapshot := ledger.Snapshot(*props)
	for _, d := range snapshot {
		e.logger.Info("active delegator", "delegator", d.Username, "hp", fmt.Sprintf("%.3f", d.HP))
	}
	if len(snapshot) == 0 {
		e.logger.Error("no active delegators found")
		return constants.ErrNoEligibleDelegators
	}

	minimumHP := e.config.Eligibility.MinimumHP
	excluded := e.config.Eligibility.Excluded

	tier1, tier2 := SplitTiers(snapshot, minimumHP)
	e.logger.Info("tier distribution", "tier1", len(tier1), "tier2", len(tier2))

	tier1Pool := BuildPool(tier1, excluded, minimumHP, e.policy)
	tier2Pool := BuildPool(tier2, excluded, minimumHP, e.policy)
	e.logger.Info("pool entries", "tier1", len(tier1Pool), "tier2", len(tier2Pool))

	if len(tier1Pool) == 0 && len(tier2Pool) == 0 {
		e.logger.Error("no eligible delegators found in either tier")
		return constants.ErrNoEligibleDelegators
	}

	e.drawAndReward(ctx, 1, tier1Pool, e.config.Rewards.Tier1)
	e.drawAndReward(ctx, 2, tier2Pool, e.config.Rewards.Tier2)

	if e.config.DryRun {
		e.logger.Info("dry run mode, no transactions were sent")
	}
	return nil
}

func (e *Engine) drawAndReward(ctx context.Context, tier int, pool []string, amount float64) {
	winner, ok := Draw(pool, e.rng)
	if !ok {
		e.logger.Info("tier has no eligible entries, skipping", "tier", tier)
		return
	}
	e.logger.Info("tier winner", "tier", tier, "winner", winner)

	memo := fmt.Sprintf("@%s:@%s", e.config.Rewards.MemoAccount, winner)
	recipient := e.config.Rewards.PayoutAccount

	e.logger.Info("sending reward", "tier", tier, "recipient", recipient, "winner", winner, "amount", FormatAmount(amount))
	if err := e.dispatcher.Dispatch(ctx, recipient, amount, memo); err != nil {
		notifications.Notify(e.notificator, fmt.Sprintf("Tier %d payout for @%s failed: %s", tier, winner, err.Error()))
		return
	}
	notifications.Notify(e.notificator, fmt.Sprintf("Tier %d winner: @%s (%s sent to @%s)", tier, winner, FormatAmount(amount), recipient))
}
