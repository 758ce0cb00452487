package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/constants"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "delegation_history.json"), filepath.Join(dir, "failed_payouts.log"))
}

func sampleLedger() common.DelegationLedger {
	return common.DelegationLedger{
		"bob": {
			{Vests: 1000, TotalVests: 1000, HP: 500.123, TimestampMs: 1714560000000, Date: "2024-05-01"},
			{Vests: 1500, TotalVests: 2500, HP: 1250.307, TimestampMs: 1714560180000, Date: "2024-05-01"},
		},
		"carol": {
			{Vests: 200, TotalVests: 200, HP: 100.0, TimestampMs: 1714560060000, Date: "2024-05-01"},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)

	require.NoError(t, store.SaveLedger(sampleLedger(), 42))

	loaded, err := store.LoadLedger()
	require.NoError(t, err)
	assert.Equal(sampleLedger(), loaded)
	assert.Equal(int64(42), store.LastIndex())
}

func TestLoadLedgerNotFound(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)

	_, err := store.LoadLedger()
	assert.ErrorIs(err, constants.ErrLedgerNotFound)
}

func TestLedgerSerializedAsTopLevelMap(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)

	require.NoError(t, store.SaveLedger(sampleLedger(), 42))

	raw, err := os.ReadFile(store.ledgerPath)
	require.NoError(t, err)

	content := string(raw)
	assert.True(strings.HasPrefix(content, "{"))
	assert.Contains(content, `"bob"`)
	assert.Contains(content, `"totalVests"`)
	assert.NotContains(content, "last_index", "history position lives in the sidecar, not the ledger")
}

func TestLastIndexDefaults(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)

	assert.Equal(int64(-1), store.LastIndex())

	require.NoError(t, os.WriteFile(store.statePath, []byte("not json"), 0o644))
	assert.Equal(int64(-1), store.LastIndex())
}

func TestSaveLedgerOverwrites(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)

	require.NoError(t, store.SaveLedger(sampleLedger(), 10))

	smaller := common.DelegationLedger{
		"dave": {{Vests: 50, TotalVests: 50, HP: 25.0, TimestampMs: 1714560300000, Date: "2024-05-01"}},
	}
	require.NoError(t, store.SaveLedger(smaller, 99))

	loaded, err := store.LoadLedger()
	require.NoError(t, err)
	assert.Equal(smaller, loaded)
	assert.NotContains(loaded, "bob")
	assert.Equal(int64(99), store.LastIndex())
}

func TestAppendFailedPayout(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)

	first := FailedPayout{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Recipient: "steembasicincome",
		Amount:    1.0,
		Memo:      "@vinzie1:@bob",
	}
	second := first
	second.Memo = "@vinzie1:@carol"
	second.Amount = 3.0

	require.NoError(t, store.AppendFailedPayout(first))
	require.NoError(t, store.AppendFailedPayout(second))

	raw, err := os.ReadFile(store.failureLogPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal("2024-05-01T12:00:00Z | steembasicincome | 1.000 | @vinzie1:@bob", lines[0])
	assert.Equal("2024-05-01T12:00:00Z | steembasicincome | 3.000 | @vinzie1:@carol", lines[1])
}
