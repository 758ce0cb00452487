package core

import (
	"context"
	"log/slog"

	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/hive"
)

// HistoryPager retrieves the complete operation history of one account,
// paging backward from the latest index. Pagination is inherently
// sequential: each page's cursor comes from the previous response.
type HistoryPager struct {
	client ChainClient
	logger *slog.Logger
}

func NewHistoryPager(client ChainClient, logger *slog.Logger) *HistoryPager {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryPager{client: client, logger: logger}
}

// LatestIndex probes the account for its most recent operation index.
// An account with no operations yields -1.
func (p *HistoryPager) LatestIndex(ctx context.Context, account string) (int64, error) {
	probe, err := p.client.GetAccountHistory(ctx, account, -1, 1)
	if err != nil {
		return 0, err
	}
	if len(probe) == 0 {
		return -1, nil
	}
	return probe[len(probe)-1].Index, nil
}

// FetchAll returns every operation of the account, indices 0..latest with
// no gaps and no duplicates. Page order is fetch order; consumers re-sort
// by timestamp.
func (p *HistoryPager) FetchAll(ctx context.Context, account string) ([]hive.HistoryItem, error) {
	latestIndex, err := p.LatestIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	if latestIndex < 0 {
		p.logger.Info("account has no operations", "account", account)
		return nil, nil
	}

	p.logger.Info("fetching account history", "account", account, "operations", latestIndex+1)

	if latestIndex < constants.HISTORY_SINGLE_BATCH_MAX {
		return p.client.GetAccountHistory(ctx, account, -1, latestIndex+1)
	}
	return p.paginate(ctx, account, latestIndex, -1)
}

// FetchSince returns only operations with index > afterIndex, for the
// incremental ledger path. Only pages covering fresh indices are fetched.
// Falls back to a full fetch when afterIndex is negative.
func (p *HistoryPager) FetchSince(ctx context.Context, account string, afterIndex int64) ([]hive.HistoryItem, error) {
	if afterIndex < 0 {
		return p.FetchAll(ctx, account)
	}

	latestIndex, err := p.LatestIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	if latestIndex <= afterIndex {
		return nil, nil
	}

	p.logger.Info("fetching fresh operations", "account", account, "after_index", afterIndex, "count", latestIndex-afterIndex)
	return p.paginate(ctx, account, latestIndex, afterIndex)
}

// paginate walks the history backward in pages until every index above
// afterIndex has been fetched. afterIndex = -1 fetches everything. Page
// limits are trimmed near the lower bound so no already-processed
// operation is requested.
func (p *HistoryPager) paginate(ctx context.Context, account string, latestIndex, afterIndex int64) ([]hive.HistoryItem, error) {
	const limit = int64(constants.HISTORY_PAGE_SIZE)

	items := make([]hive.HistoryItem, 0, latestIndex-afterIndex)
	// lowest index already fetched; pages never reach back past it, which
	// keeps the boundary item between consecutive pages from being counted
	// twice
	lowestSeen := latestIndex + 1
	start := latestIndex

	for start > afterIndex {
		pageLimit := min(limit, start-afterIndex)

		p.logger.Debug("fetching history page", "account", account, "start", start, "limit", pageLimit)
		page, err := p.client.GetAccountHistory(ctx, account, start, pageLimit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			p.logger.Debug("no more operations", "account", account)
			break
		}

		for _, item := range page {
			if item.Index < lowestSeen && item.Index > afterIndex {
				items = append(items, item)
			}
		}
		lowestSeen = min(lowestSeen, page[0].Index)
		p.logger.Debug("fetched history page", "account", account, "page_size", len(page), "total", len(items))

		if int64(len(page)) < pageLimit {
			p.logger.Debug("reached end of history", "account", account, "page_size", len(page))
			break
		}
		start = page[0].Index - 1
	}

	return items, nil
}
