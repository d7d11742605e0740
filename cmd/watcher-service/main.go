package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-twse-watcher/internal/watcher/config"
	"golang-twse-watcher/internal/watcher/delivery/consumer"
	delivery "golang-twse-watcher/internal/watcher/delivery/http"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/internal/watcher/service"
	"golang-twse-watcher/pkg/common"
	"golang-twse-watcher/pkg/logger"
	"golang-twse-watcher/pkg/postgres"
	"golang-twse-watcher/pkg/redis"
	"golang-twse-watcher/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the watcher service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Watcher Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer group if it doesn't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamStockHitEvents, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	stockRepo := repository.NewTrackedStockRepository(db.DB)
	hitLogRepo := repository.NewStockHitLogRepository(db.DB)
	notifLogRepo := repository.NewNotificationLogRepository(db.DB)
	quoteRepo := repository.NewTWSEQuoteRepository(cfg, appLogger)

	// Initialize services
	marketClock, err := service.NewMarketClock(cfg.Market.Timezone)
	if err != nil {
		appLogger.Fatal("Invalid market timezone", logger.ErrorField(err))
	}
	throttle := service.NewRequestThrottle(cfg.Quotes.MinRequestInterval)
	quoteCache := service.NewQuoteCache(
		marketClock,
		throttle,
		quoteRepo,
		appLogger,
		cfg.Quotes.CacheMaxEntries,
		cfg.Quotes.CacheMaxEntryAge,
		cfg.Quotes.CacheSweepInterval,
	)
	hitDetector := service.NewHitDetector(stockRepo, hitLogRepo, marketClock, appLogger)
	watcherSvc := service.NewWatcherService(cfg, appLogger, quoteCache, hitDetector, marketClock, throttle, stockRepo, redisClient)

	// Start the watch schedule
	if err := watcherSvc.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start watcher", logger.ErrorField(err))
	}

	// Initialize Telegram notifier and start the hit event consumer
	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, telegramNotifier, notifLogRepo, marketClock, appLogger)
	redisConsumer.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	api := e.Group("/api")

	watchHandler := delivery.NewWatchHandler(watcherSvc, stockRepo, appLogger)
	watchHandler.RegisterRoutes(api)

	stockHandler := delivery.NewStockHandler(stockRepo, appLogger)
	stocksGroup := api.Group("/stocks")
	stockHandler.RegisterRoutes(stocksGroup)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	watcherSvc.Stop()
	redisConsumer.Stop()

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "watcher-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-watcher.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing watcher-service CLI: %s\n", err)
		os.Exit(1)
	}
}
