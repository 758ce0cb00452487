package constants

const (
	VERSION = "0.2.0"

	HTTP_CLIENT_TIMEOUT_SECONDS = 30

	// get_account_history serves at most 1000 operations per request
	HISTORY_PAGE_SIZE        = 1000
	HISTORY_SINGLE_BATCH_MAX = 999

	// deltas below this are re-broadcasts of an unchanged total
	DELTA_EPSILON = 1e-6

	TRANSFER_RETRY_ATTEMPTS      = 3
	TRANSFER_RETRY_DELAY_SECONDS = 2

	LEDGER_FILE_DEFAULT         = "delegation_history.json"
	LEDGER_STATE_FILE_SUFFIX    = ".state"
	FAILED_PAYOUTS_FILE_DEFAULT = "failed_payouts.log"

	HIVE_USER = "HIVE_USER"
	HIVE_KEY  = "HIVE_KEY"
	DRY_RUN   = "DRY_RUN"

	LISTEN_DEFAULT = "127.0.0.1:3000"

	MINIMUM_HP_DEFAULT   = 10.0
	TIER2_THRESHOLD_HP   = 95.0
	TIER1_REWARD_DEFAULT = 1.0
	TIER2_REWARD_DEFAULT = 3.0

	HIVE_ASSET_SYMBOL = "HIVE"
)
