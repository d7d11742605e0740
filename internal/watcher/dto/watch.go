package dto

import (
	"time"

	"golang-twse-watcher/internal/entity"

	"gorm.io/datatypes"
)

// Limit annotations attached to hit events when the resolved price sits at
// the exchange's daily price band.
const (
	LimitUp   = "limit_up"
	LimitDown = "limit_down"
)

// HitEvent is one fresh (non-duplicate) target crossing.
type HitEvent struct {
	Code   string            `json:"code"`
	Name   string            `json:"name"`
	Type   entity.TargetType `json:"type"`
	Price  float64           `json:"price"`
	Target float64           `json:"target"`
	Limit  string            `json:"limit,omitempty"`
}

// CacheKeyStatus describes one live cache entry for the status endpoint.
type CacheKeyStatus struct {
	Key       string `json:"key"`
	AgeSecs   int    `json:"age_secs"`
	ItemCount int    `json:"item_count"`
}

// CacheStats is the quote cache portion of the system status.
type CacheStats struct {
	Size      int              `json:"size"`
	Hits      uint64           `json:"hits"`
	Misses    uint64           `json:"misses"`
	Evictions uint64           `json:"evictions"`
	Entries   []CacheKeyStatus `json:"entries"`
}

// TradingStatus is the session portion of the system status.
type TradingStatus struct {
	IsTradingHours         bool   `json:"is_trading_hours"`
	Session                string `json:"session"`
	RecommendedTTL         string `json:"recommended_cache_ttl"`
	TimeSinceLastRequestMs *int64 `json:"time_since_last_request_ms,omitempty"`
}

// SystemStatus is the response of GET /api/status.
type SystemStatus struct {
	Cache   CacheStats    `json:"cache"`
	Trading TradingStatus `json:"trading"`
}

// CreateTrackedStockRequest is the payload for POST /api/stocks. The target
// fields carry the extracted free-text values; Extraction optionally carries
// the raw recognition output for audit.
type CreateTrackedStockRequest struct {
	Code            string         `json:"code"`
	Support         *string        `json:"support,omitempty"`
	ShortTermProfit *string        `json:"short_term_profit,omitempty"`
	WaveProfit      *string        `json:"wave_profit,omitempty"`
	SwapRef         *string        `json:"swap_ref,omitempty"`
	CurrentPrice    *string        `json:"current_price,omitempty"`
	Source          string         `json:"source,omitempty"`
	IsFavorite      bool           `json:"is_favorite,omitempty"`
	Extraction      datatypes.JSON `json:"extraction,omitempty"`
}

// UpdateTrackedStockRequest is the payload for PATCH /api/stocks/:id. Only
// non-nil fields are applied.
type UpdateTrackedStockRequest struct {
	Support         *string `json:"support,omitempty"`
	ShortTermProfit *string `json:"short_term_profit,omitempty"`
	WaveProfit      *string `json:"wave_profit,omitempty"`
	SwapRef         *string `json:"swap_ref,omitempty"`
	CurrentPrice    *string `json:"current_price,omitempty"`
	IsFavorite      *bool   `json:"is_favorite,omitempty"`
}

// DashboardEntry merges a watchlist row with its latest market snapshot.
// Market is nil when the upstream had no data for the symbol this pass.
type DashboardEntry struct {
	Stock  entity.TrackedStock `json:"stock"`
	Market *Quote              `json:"market"`
}

// ErrorResponse is the generic error body for the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HitEventMessage is the stream payload wrapper for a hit event.
type HitEventMessage struct {
	Event      HitEvent  `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
}
