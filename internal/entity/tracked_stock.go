package entity

import (
	"time"

	"gorm.io/datatypes"
)

// StockSource indicates how a tracked stock entered the watchlist.
type StockSource string

const (
	SourceUser   StockSource = "user"
	SourceSystem StockSource = "system"
)

// TrackedStock is a watchlist row. The four target fields hold the free-text
// values exactly as extracted (possibly ranges like "68-70"); they are only
// interpreted at evaluation time.
type TrackedStock struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"not null;index:idx_tracked_stocks_code_created,priority:1" json:"code"`
	Support         *string        `json:"support,omitempty"`
	ShortTermProfit *string        `json:"short_term_profit,omitempty"`
	WaveProfit      *string        `json:"wave_profit,omitempty"`
	SwapRef         *string        `json:"swap_ref,omitempty"`
	CurrentPrice    *string        `json:"current_price,omitempty"`
	IsSuccess       *bool          `json:"is_success,omitempty"`
	SuccessDate     *time.Time     `gorm:"index" json:"success_date,omitempty"`
	Source          StockSource    `gorm:"not null;default:system;index" json:"source"`
	IsFavorite      bool           `gorm:"not null;default:false;index" json:"is_favorite"`
	Extraction      datatypes.JSON `gorm:"type:jsonb" json:"extraction,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index:idx_tracked_stocks_code_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the TrackedStock model.
func (TrackedStock) TableName() string {
	return "tracked_stocks"
}

// HasTargets reports whether at least one target field is set.
func (s *TrackedStock) HasTargets() bool {
	return s.Support != nil || s.ShortTermProfit != nil || s.WaveProfit != nil || s.SwapRef != nil
}

// TargetFor returns the raw target text for the given type, if set.
func (s *TrackedStock) TargetFor(t TargetType) *string {
	switch t {
	case TargetSupport:
		return s.Support
	case TargetShortTerm:
		return s.ShortTermProfit
	case TargetWave:
		return s.WaveProfit
	case TargetSwap:
		return s.SwapRef
	}
	return nil
}
