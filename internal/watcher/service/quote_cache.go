package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/pkg/logger"
	"golang-twse-watcher/pkg/utils"
)

// QuoteCache is the single entry point for quote reads. It maps a canonical
// symbol-set key to a cached batch whose freshness is judged against the
// session TTL at lookup time, gates misses through the request throttle,
// and bounds its memory with a FIFO cap plus a periodic absolute-age sweep.
type QuoteCache struct {
	clock    *MarketClock
	throttle *RequestThrottle
	quotes   repository.QuoteRepository
	log      *logger.Logger

	maxEntries    int
	maxEntryAge   time.Duration
	sweepInterval time.Duration

	mu        sync.Mutex
	entries   map[string]*cacheEntry
	order     []string // insertion order, oldest first
	hits      uint64
	misses    uint64
	evictions uint64
	now       func() time.Time
}

type cacheEntry struct {
	data     []dto.Quote
	cachedAt time.Time
}

// NewQuoteCache creates a quote cache.
func NewQuoteCache(
	clock *MarketClock,
	throttle *RequestThrottle,
	quotes repository.QuoteRepository,
	log *logger.Logger,
	maxEntries int,
	maxEntryAge time.Duration,
	sweepInterval time.Duration,
) *QuoteCache {
	return &QuoteCache{
		clock:         clock,
		throttle:      throttle,
		quotes:        quotes,
		log:           log,
		maxEntries:    maxEntries,
		maxEntryAge:   maxEntryAge,
		sweepInterval: sweepInterval,
		entries:       make(map[string]*cacheEntry),
		now:           time.Now,
	}
}

// CacheKey canonicalizes a symbol set so permutations share one entry.
func CacheKey(symbols []string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// GetQuotes returns the cached batch for the symbol set when it is still
// fresh, otherwise refetches through the throttle and overwrites the entry.
func (c *QuoteCache) GetQuotes(ctx context.Context, symbols []string) ([]dto.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	key := CacheKey(symbols)
	ttl := c.clock.RecommendedTTL()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.cachedAt) < ttl {
		c.hits++
		data := entry.data
		remaining := ttl - c.now().Sub(entry.cachedAt)
		c.mu.Unlock()
		c.log.DebugContext(ctx, "Quote cache hit",
			logger.StringField("key", key),
			logger.IntField("remaining_secs", int(remaining.Seconds())))
		return data, nil
	}
	c.misses++
	c.mu.Unlock()

	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := c.quotes.FetchQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}

	c.store(key, data)
	return data, nil
}

func (c *QuoteCache) store(key string, data []dto.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = &cacheEntry{data: data, cachedAt: c.now()}

	// FIFO bound: evict the oldest-inserted entry, not the least recently
	// used one.
	for len(c.entries) > c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.evictions++
	}
}

// StartSweeper launches the background sweep that drops entries older than
// the absolute age ceiling, regardless of the dynamic TTL, so memory stays
// bounded even for keys that are never queried again.
func (c *QuoteCache) StartSweeper(ctx context.Context) {
	utils.GoSafe(func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := c.sweep()
				if removed > 0 {
					c.log.Debug("Swept expired quote cache entries", logger.IntField("removed", removed))
				}
			}
		}
	})
}

func (c *QuoteCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.maxEntryAge)
	kept := c.order[:0]
	removed := 0
	for _, key := range c.order {
		entry, ok := c.entries[key]
		if !ok {
			continue
		}
		if entry.cachedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	return removed
}

// Stats snapshots the cache state for the status endpoint.
func (c *QuoteCache) Stats() dto.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := dto.CacheStats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	for _, key := range c.order {
		entry, ok := c.entries[key]
		if !ok {
			continue
		}
		stats.Entries = append(stats.Entries, dto.CacheKeyStatus{
			Key:       key,
			AgeSecs:   int(c.now().Sub(entry.cachedAt).Seconds()),
			ItemCount: len(entry.data),
		})
	}
	return stats
}
