package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-twse-watcher/internal/watcher/config"
	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/pkg/common"
	"golang-twse-watcher/pkg/logger"
	redisPkg "golang-twse-watcher/pkg/redis"
	"golang-twse-watcher/pkg/utils"

	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// WatcherService ties the quote layer and the hit detector together: it
// serves on-demand quote reads for the API and runs the scheduled watch pass
// that publishes fresh hits to the event stream.
type WatcherService interface {
	FetchStockData(ctx context.Context, symbols []string) ([]dto.Quote, error)
	CheckAndLogHits(ctx context.Context, quotes []dto.Quote) ([]dto.HitEvent, error)
	RunWatchPass(ctx context.Context) error
	GetSystemStatus() dto.SystemStatus
	Start(ctx context.Context) error
	Stop()
}

type watcherService struct {
	cfg      *config.Config
	log      *logger.Logger
	cache    *QuoteCache
	detector *HitDetector
	clock    *MarketClock
	throttle *RequestThrottle
	stocks   repository.TrackedStockRepository
	redis    *redisPkg.Client
	cron     *cron.Cron
}

// NewWatcherService creates the watcher service.
func NewWatcherService(
	cfg *config.Config,
	log *logger.Logger,
	cache *QuoteCache,
	detector *HitDetector,
	clock *MarketClock,
	throttle *RequestThrottle,
	stocks repository.TrackedStockRepository,
	redis *redisPkg.Client,
) WatcherService {
	return &watcherService{
		cfg:      cfg,
		log:      log,
		cache:    cache,
		detector: detector,
		clock:    clock,
		throttle: throttle,
		stocks:   stocks,
		redis:    redis,
		cron:     cron.New(),
	}
}

// FetchStockData returns quotes for the given symbols through the cache.
func (s *watcherService) FetchStockData(ctx context.Context, symbols []string) ([]dto.Quote, error) {
	return s.cache.GetQuotes(ctx, symbols)
}

// CheckAndLogHits evaluates a quote batch against the watchlist.
func (s *watcherService) CheckAndLogHits(ctx context.Context, quotes []dto.Quote) ([]dto.HitEvent, error) {
	return s.detector.CheckAndLogHits(ctx, quotes)
}

// RunWatchPass performs one full cycle: load the watchlist, fetch quotes
// through the cache, detect and log hits, publish fresh events.
func (s *watcherService) RunWatchPass(ctx context.Context) error {
	stocks, err := s.stocks.FindWithTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}
	if len(stocks) == 0 {
		s.log.DebugContext(ctx, "Watch pass skipped, watchlist empty")
		return nil
	}

	symbols := make([]string, 0, len(stocks))
	seen := make(map[string]bool, len(stocks))
	for _, stock := range stocks {
		if seen[stock.Code] {
			continue
		}
		seen[stock.Code] = true
		symbols = append(symbols, stock.Code)
	}

	quotes, err := s.FetchStockData(ctx, symbols)
	if err != nil {
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}
	if len(quotes) == 0 {
		s.log.WarnContext(ctx, "Watch pass got no quotes", logger.IntField("symbols", len(symbols)))
		return nil
	}

	s.publishLastQuotes(ctx, quotes)

	events, err := s.CheckAndLogHits(ctx, quotes)
	if err != nil {
		return fmt.Errorf("failed to check hits: %w", err)
	}

	for _, event := range events {
		if err := s.publishHitEvent(ctx, event); err != nil {
			s.log.ErrorContext(ctx, "Failed to publish hit event",
				logger.ErrorField(err),
				logger.StringField("code", event.Code),
				logger.StringField("type", string(event.Type)))
		}
	}

	s.log.InfoContext(ctx, "Watch pass completed",
		logger.IntField("symbols", len(symbols)),
		logger.IntField("quotes", len(quotes)),
		logger.IntField("hits", len(events)))
	return nil
}

// publishLastQuotes stores the latest snapshot per symbol so other consumers
// can read prices without touching the upstream.
func (s *watcherService) publishLastQuotes(ctx context.Context, quotes []dto.Quote) {
	pipe := s.redis.Pipeline()
	for _, q := range quotes {
		payload, err := json.Marshal(q)
		if err != nil {
			continue
		}
		key := fmt.Sprintf(common.RedisKeyLastQuote, q.Symbol)
		pipe.Set(ctx, key, payload, s.cfg.Quotes.CacheMaxEntryAge)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.WarnContext(ctx, "Failed to publish last quotes", logger.ErrorField(err))
	}
}

func (s *watcherService) publishHitEvent(ctx context.Context, event dto.HitEvent) error {
	message := dto.HitEventMessage{Event: event, OccurredAt: s.clock.Now()}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal hit event: %w", err)
	}

	return s.redis.XAdd(ctx, &goredis.XAddArgs{
		Stream: common.RedisStreamStockHitEvents,
		MaxLen: s.cfg.Redis.StreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
}

// GetSystemStatus snapshots the cache and session state for the API.
func (s *watcherService) GetSystemStatus() dto.SystemStatus {
	status := dto.SystemStatus{
		Cache: s.cache.Stats(),
		Trading: dto.TradingStatus{
			IsTradingHours: s.clock.IsTradingHours(),
			Session:        string(s.clock.Session()),
			RecommendedTTL: s.clock.RecommendedTTL().String(),
		},
	}
	if elapsed, ok := s.throttle.TimeSinceLastRequest(); ok {
		status.Trading.TimeSinceLastRequestMs = utils.ToPointer(elapsed.Milliseconds())
	}
	return status
}

// Start launches the cache sweeper and schedules the periodic watch pass.
func (s *watcherService) Start(ctx context.Context) error {
	s.cache.StartSweeper(ctx)

	_, err := s.cron.AddFunc(s.cfg.Watcher.WatchSpec, func() {
		passCtx, cancel := context.WithTimeout(ctx, s.cfg.Watcher.PassTimeout)
		defer cancel()
		if err := s.RunWatchPass(passCtx); err != nil {
			s.log.ErrorContext(passCtx, "Watch pass failed", logger.ErrorField(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule watch pass: %w", err)
	}

	s.cron.Start()
	s.log.Info("Watcher started", logger.StringField("spec", s.cfg.Watcher.WatchSpec))
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *watcherService) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("Watcher stopped")
}
