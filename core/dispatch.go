package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bayanihive/delegation-roulette/configuration"
	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/hive"
	"github.com/bayanihive/delegation-roulette/store"
)

// FailureSink records transfers that exhausted all attempts.
type FailureSink interface {
	AppendFailedPayout(payout store.FailedPayout) error
}

// Dispatcher sends reward transfers with bounded retries, switching
// endpoint between attempts.
type Dispatcher struct {
	broadcaster Broadcaster
	rotator     *hive.EndpointRotator
	failures    FailureSink
	credentials configuration.Credentials
	dryRun      bool

	retries int
	backoff time.Duration
	sleep   func(time.Duration)
	now     func() time.Time
	logger  *slog.Logger
}

func NewDispatcher(broadcaster Broadcaster, rotator *hive.EndpointRotator, failures FailureSink, credentials configuration.Credentials, dryRun bool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		broadcaster: broadcaster,
		rotator:     rotator,
		failures:    failures,
		credentials: credentials,
		dryRun:      dryRun,
		retries:     constants.TRANSFER_RETRY_ATTEMPTS,
		backoff:     constants.TRANSFER_RETRY_DELAY_SECONDS * time.Second,
		sleep:       time.Sleep,
		now:         time.Now,
		logger:      logger,
	}
}

// FormatAmount renders a HIVE amount the way the chain expects it.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.3f %s", amount, constants.HIVE_ASSET_SYMBOL)
}

// Dispatch attempts the transfer. Missing credentials fail immediately
// without consuming an attempt; in dry-run mode the intended transfer is
// logged and no network call is made. Exhausting every attempt records
// the payout in the failure log and returns constants.ErrTransferFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, to string, amount float64, memo string) error {
	amountString := FormatAmount(amount)

	if d.dryRun {
		d.logger.Info("dry run, would send transfer", "from", d.credentials.Account, "to", to, "amount", amountString, "memo", memo)
		return nil
	}

	if !d.credentials.IsComplete() {
		d.logger.Error("cannot send reward", "error", constants.ErrMissingCredentials.Error(), "recipient", to)
		return constants.ErrMissingCredentials
	}

	for attempt := 1; attempt <= d.retries; attempt++ {
		txID, err := d.broadcaster.Transfer(ctx, d.credentials.Account, to, amountString, memo)
		if err == nil {
			d.logger.Info("sent reward", "to", to, "amount", amountString, "transaction_id", txID)
			return nil
		}

		d.logger.Error("transfer attempt failed", "attempt", attempt, "recipient", to, "error", err.Error())
		if attempt < d.retries {
			endpoint := d.rotator.Next()
			d.logger.Info("switched endpoint", "endpoint", endpoint)
			d.sleep(d.backoff)
		}
	}

	d.logger.Error("all transfer attempts failed", "attempts", d.retries, "recipient", to)
	if err := d.failures.AppendFailedPayout(store.FailedPayout{
		Timestamp: d.now(),
		Recipient: to,
		Amount:    amount,
		Memo:      memo,
	}); err != nil {
		d.logger.Error("failed to record failed payout", "error", err.Error())
	}
	return constants.ErrTransferFailed
}
