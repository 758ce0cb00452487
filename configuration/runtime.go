package configuration

import (
	"log/slog"
	"os"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"

	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/notifications"
)

type RewardsConfiguration struct {
	// fixed payout per tier, in HIVE
	Tier1 float64 `json:"tier1"`
	Tier2 float64 `json:"tier2"`
	// account the transfer is sent to; the winner is routed via the memo
	PayoutAccount string `json:"payout_account"`
	// account tag prefixed to the memo, "@<memo_account>:@<winner>"
	MemoAccount string `json:"memo_account"`
}

type EligibilityConfiguration struct {
	MinimumHP float64  `json:"minimum_hp"`
	Excluded  []string `json:"excluded"`
	// tier ticket formula: "canonical" or "ceiling"
	TierPolicy string `json:"tier_policy"`
}

type Runtime struct {
	// account receiving the delegations being tracked
	Account string   `json:"account"`
	Nodes   []string `json:"nodes"`
	Listen  string   `json:"listen"`

	LedgerPath     string `json:"ledger_path"`
	FailureLogPath string `json:"failure_log_path"`

	Rewards     RewardsConfiguration     `json:"rewards"`
	Eligibility EligibilityConfiguration `json:"eligibility"`

	DryRun bool `json:"dry_run"`

	DiscordNotificator notifications.DiscordNotificatorConfiguration `json:"discord_notificator"`

	LogLevel slog.Level `json:"-"`
}

func LoadConfiguration(path string) (*Runtime, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	runtimeConfig := Runtime{
		Nodes:          constants.DefaultHiveNodes,
		Listen:         constants.LISTEN_DEFAULT,
		LedgerPath:     constants.LEDGER_FILE_DEFAULT,
		FailureLogPath: constants.FAILED_PAYOUTS_FILE_DEFAULT,
		Rewards: RewardsConfiguration{
			Tier1: constants.TIER1_REWARD_DEFAULT,
			Tier2: constants.TIER2_REWARD_DEFAULT,
		},
		Eligibility: EligibilityConfiguration{
			MinimumHP:  constants.MINIMUM_HP_DEFAULT,
			TierPolicy: "canonical",
		},
		LogLevel: slog.LevelInfo,
	}
	err = hjson.Unmarshal(configBytes, &runtimeConfig)
	if err != nil {
		return nil, err
	}

	if os.Getenv(constants.DRY_RUN) == "true" {
		runtimeConfig.DryRun = true
	}

	return &runtimeConfig, nil
}

func GetLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Credentials is the account/active-key pair used for non-dry-run
// transfers. Never part of the config file.
type Credentials struct {
	Account   string
	ActiveKey string
}

func (c Credentials) IsComplete() bool {
	return c.Account != "" && c.ActiveKey != ""
}

// LoadCredentials reads HIVE_USER and HIVE_KEY from the environment,
// loading a .env file first when one is present.
func LoadCredentials() Credentials {
	_ = godotenv.Load()

	return Credentials{
		Account:   os.Getenv(constants.HIVE_USER),
		ActiveKey: os.Getenv(constants.HIVE_KEY),
	}
}
