package core

import (
	"context"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/hive"
)

// ChainClient is the remote ledger read surface the core depends on.
type ChainClient interface {
	GetAccount(ctx context.Context, name string) (*hive.Account, error)
	GetGlobalProperties(ctx context.Context) (*common.GlobalProperties, error)
	GetAccountHistory(ctx context.Context, account string, start int64, limit int64) ([]hive.HistoryItem, error)
}

// Broadcaster performs the signed token transfer.
type Broadcaster interface {
	Transfer(ctx context.Context, from, to, amount, memo string) (string, error)
}
