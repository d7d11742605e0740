package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang-twse-watcher/internal/entity"
	"golang-twse-watcher/internal/watcher/config"
	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/internal/watcher/service"
	"golang-twse-watcher/pkg/common"
	"golang-twse-watcher/pkg/logger"
	"golang-twse-watcher/pkg/telegram"
	"golang-twse-watcher/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer drains the hit-event stream and turns buffered events into
// batched Telegram notifications. Buffering decouples the watch pass from the
// notifier: a burst of hits in one pass becomes one message, not a flood.
type RedisConsumer struct {
	cfg         *config.Config
	redisClient *redis.Client
	notifier    telegram.Notifier
	notifLogs   repository.NotificationLogRepository
	clock       *service.MarketClock
	logger      *logger.Logger
	stopChan    chan struct{}
	wg          sync.WaitGroup

	mu     sync.Mutex
	buffer []dto.HitEventMessage
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	notifier telegram.Notifier,
	notifLogs repository.NotificationLogRepository,
	clock *service.MarketClock,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:         cfg,
		redisClient: redisClient,
		notifier:    notifier,
		notifLogs:   notifLogs,
		clock:       clock,
		logger:      log,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the stream reader and the flush ticker.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Hit event consumer started")

	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Hit event consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Hit event consumer stopping")
				return
			default:
				c.readBatch(ctx)
			}
		}
	})

	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.cfg.Watcher.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.flush(ctx)
			case <-ctx.Done():
				return
			case <-c.stopChan:
				// Last flush so buffered hits are not lost on shutdown.
				c.flush(context.Background())
				return
			}
		}
	})
}

func (c *RedisConsumer) readBatch(ctx context.Context) {
	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamStockHitEvents, ">"},
		Count:    50,
		Block:    c.cfg.Watcher.StreamReadTimeout,
	}).Result()
	if err != nil {
		if err == redis.Nil || ctx.Err() != nil {
			return
		}
		c.logger.ErrorContext(ctx, "Failed to read hit event stream", logger.ErrorField(err))
		time.Sleep(time.Second)
		return
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			payload, ok := msg.Values["payload"].(string)
			if !ok {
				c.logger.WarnContext(ctx, "Dropping malformed stream entry", logger.StringField("id", msg.ID))
				c.ack(ctx, msg.ID)
				continue
			}

			var event dto.HitEventMessage
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				c.logger.WarnContext(ctx, "Dropping undecodable hit event",
					logger.ErrorField(err), logger.StringField("id", msg.ID))
				c.ack(ctx, msg.ID)
				continue
			}

			c.mu.Lock()
			c.buffer = append(c.buffer, event)
			c.mu.Unlock()
			c.ack(ctx, msg.ID)
		}
	}
}

func (c *RedisConsumer) ack(ctx context.Context, id string) {
	if err := c.redisClient.XAck(ctx, common.RedisStreamStockHitEvents, common.RedisStreamGroup, id).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to ack stream entry",
			logger.ErrorField(err), logger.StringField("id", id))
	}
}

// flush sends everything buffered since the previous flush as one batched
// notification and records what went out.
func (c *RedisConsumer) flush(ctx context.Context) {
	c.mu.Lock()
	events := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}

	now := c.clock.Now()
	messages := telegram.FormatHitEventsForTelegram(events, now)

	totalLen := 0
	for _, message := range messages {
		if err := c.notifier.SendMessage(message); err != nil {
			c.logger.ErrorContext(ctx, "Failed to send notification", logger.ErrorField(err))
			continue
		}
		totalLen += len(message)
	}

	c.recordNotification(ctx, events, now, totalLen)
	c.logger.InfoContext(ctx, "Flushed hit notifications",
		logger.IntField("events", len(events)),
		logger.IntField("messages", len(messages)))
}

func (c *RedisConsumer) recordNotification(ctx context.Context, events []dto.HitEventMessage, at time.Time, messageLen int) {
	codesByType := make(map[entity.TargetType][]string)
	for _, e := range events {
		codesByType[e.Event.Type] = append(codesByType[e.Event.Type], e.Event.Code)
	}

	dayKey := utils.DayKey(at)
	for _, targetType := range entity.TargetDisplayOrder {
		codes := codesByType[targetType]
		if len(codes) == 0 {
			continue
		}
		record := &entity.NotificationLog{
			DayKey:        dayKey,
			Type:          targetType,
			StockCodes:    codes,
			MessageLength: messageLen,
			SentAt:        at,
		}
		if err := c.notifLogs.Create(ctx, record); err != nil {
			c.logger.ErrorContext(ctx, "Failed to record notification",
				logger.ErrorField(err), logger.StringField("type", string(targetType)))
		}
	}
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Hit event consumer stopped")
}
