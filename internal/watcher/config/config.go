package config

import (
	"time"

	"golang-twse-watcher/pkg/config"
)

// TWSE holds the configuration for the TWSE quote endpoint.
type TWSE struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// Quotes holds cache and throttle settings for the quote layer.
type Quotes struct {
	MinRequestInterval time.Duration `mapstructure:"min_request_interval"`
	CacheMaxEntries    int           `mapstructure:"cache_max_entries"`
	CacheSweepInterval time.Duration `mapstructure:"cache_sweep_interval"`
	CacheMaxEntryAge   time.Duration `mapstructure:"cache_max_entry_age"`
}

// Market holds trading-session settings.
type Market struct {
	Timezone string `mapstructure:"timezone"`
}

// Watcher holds settings for the periodic watch pass and event dispatch.
type Watcher struct {
	WatchSpec         string        `mapstructure:"watch_spec"`
	PassTimeout       time.Duration `mapstructure:"pass_timeout"`
	FlushInterval     time.Duration `mapstructure:"flush_interval"`
	StreamReadTimeout time.Duration `mapstructure:"stream_read_timeout"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the watcher service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	TWSE     TWSE            `mapstructure:"twse"`
	Quotes   Quotes          `mapstructure:"quotes"`
	Market   Market          `mapstructure:"market"`
	Watcher  Watcher         `mapstructure:"watcher"`
	Telegram Telegram        `mapstructure:"telegram"`
}

// Load loads the watcher configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
