package service

import (
	"context"
	"testing"
	"time"

	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQuoteRepo struct {
	calls int
	data  []dto.Quote
	err   error
}

func (f *fakeQuoteRepo) FetchQuotes(ctx context.Context, symbols []string) ([]dto.Quote, error) {
	f.calls++
	return f.data, f.err
}

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func newTestCache(t *testing.T, repo *fakeQuoteRepo, maxEntries int) (*QuoteCache, *time.Time) {
	t.Helper()
	clock := clockAt(t, 2026, time.August, 31, 10, 0)
	throttle := NewRequestThrottle(time.Millisecond)
	cache := NewQuoteCache(clock, throttle, repo, nopLogger(), maxEntries, 5*time.Minute, time.Minute)

	current := time.Date(2026, time.August, 31, 10, 0, 0, 0, clock.loc)
	cache.now = func() time.Time { return current }
	return cache, &current
}

func TestQuoteCache_CacheKeyCanonical(t *testing.T) {
	assert.Equal(t, CacheKey([]string{"2330", "0050"}), CacheKey([]string{"0050", "2330"}))
	assert.Equal(t, "0050,2330", CacheKey([]string{"2330", "0050"}))
}

func TestQuoteCache_PermutationsShareOneFetch(t *testing.T) {
	repo := &fakeQuoteRepo{data: []dto.Quote{{Symbol: "2330", Price: 600}}}
	cache, _ := newTestCache(t, repo, 50)

	first, err := cache.GetQuotes(context.Background(), []string{"2330", "0050"})
	require.NoError(t, err)
	second, err := cache.GetQuotes(context.Background(), []string{"0050", "2330"})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first, second)

	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestQuoteCache_ExpiryRefetches(t *testing.T) {
	repo := &fakeQuoteRepo{data: []dto.Quote{{Symbol: "2330", Price: 600}}}
	cache, now := newTestCache(t, repo, 50)

	_, err := cache.GetQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	// Inside the trading-hours TTL the cached batch is reused.
	*now = now.Add(2 * time.Second)
	_, err = cache.GetQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	// Past it, the entry is stale and a refetch happens.
	*now = now.Add(time.Second)
	_, err = cache.GetQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestQuoteCache_FIFOEviction(t *testing.T) {
	repo := &fakeQuoteRepo{data: []dto.Quote{}}
	cache, _ := newTestCache(t, repo, 2)

	for _, symbol := range []string{"1101", "2330", "2454"} {
		_, err := cache.GetQuotes(context.Background(), []string{symbol})
		require.NoError(t, err)
	}

	stats := cache.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, uint64(1), stats.Evictions)

	// The oldest-inserted key is the one that went.
	cache.mu.Lock()
	_, oldestPresent := cache.entries["1101"]
	_, newestPresent := cache.entries["2454"]
	cache.mu.Unlock()
	assert.False(t, oldestPresent)
	assert.True(t, newestPresent)
}

func TestQuoteCache_SweepDropsAgedEntries(t *testing.T) {
	repo := &fakeQuoteRepo{data: []dto.Quote{}}
	cache, now := newTestCache(t, repo, 50)

	_, err := cache.GetQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	_, err = cache.GetQuotes(context.Background(), []string{"0050"})
	require.NoError(t, err)

	*now = now.Add(6 * time.Minute)
	removed := cache.sweep()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestQuoteCache_EmptySymbols(t *testing.T) {
	repo := &fakeQuoteRepo{}
	cache, _ := newTestCache(t, repo, 50)

	data, err := cache.GetQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, 0, repo.calls)
}

func TestRequestThrottle_EnforcesSpacing(t *testing.T) {
	throttle := NewRequestThrottle(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, throttle.Wait(context.Background()))
	require.NoError(t, throttle.Wait(context.Background()))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 45*time.Millisecond)

	_, ok := throttle.TimeSinceLastRequest()
	assert.True(t, ok)
}

func TestRequestThrottle_NoRequestsYet(t *testing.T) {
	throttle := NewRequestThrottle(time.Second)
	_, ok := throttle.TimeSinceLastRequest()
	assert.False(t, ok)
}
