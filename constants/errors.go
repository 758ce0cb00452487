package constants

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrLedgerNotFound       = errors.New("delegation ledger file not found")
	ErrEmptyLedger          = errors.New("delegation ledger is empty")
	ErrNoEligibleDelegators = errors.New("no eligible delegators in either tier")

	ErrMissingCredentials = errors.New("missing HIVE_USER or HIVE_KEY")
	ErrTransferFailed     = errors.New("transfer failed after all attempts")

	ErrZeroShareSupply = errors.New("total vesting share supply is zero")

	ErrNoEndpointsConfigured = errors.New("no rpc endpoints configured")
	ErrUnknownTierPolicy     = errors.New("unknown tier policy")

	ErrInvalidNotificatorConfiguration = errors.New("invalid notificator configuration")
)
