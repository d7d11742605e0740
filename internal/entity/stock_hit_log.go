package entity

import "time"

// TargetType is a category of price threshold with its own comparison
// direction.
type TargetType string

const (
	TargetSupport   TargetType = "support"
	TargetShortTerm TargetType = "shortTerm"
	TargetWave      TargetType = "wave"
	TargetSwap      TargetType = "swap"
)

// TargetDisplayOrder is the fixed ordering used when hit events are grouped
// for notification.
var TargetDisplayOrder = []TargetType{TargetShortTerm, TargetWave, TargetSupport, TargetSwap}

// Downside reports whether the target is compared against the session low
// (support and swap) rather than the session high.
func (t TargetType) Downside() bool {
	return t == TargetSupport || t == TargetSwap
}

// StockHitLog is an append-only record of a target hit. The composite unique
// index guarantees at most one record per stock, target type and calendar
// day; a duplicate create is the signal that the hit was already logged.
type StockHitLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	StockID      uint       `gorm:"not null;uniqueIndex:idx_stock_hit_logs_stock_type_day,priority:1" json:"stock_id"`
	Code         string     `gorm:"not null" json:"code"`
	Type         TargetType `gorm:"not null;uniqueIndex:idx_stock_hit_logs_stock_type_day,priority:2" json:"type"`
	TargetPrice  float64    `gorm:"not null" json:"target_price"`
	TriggerPrice float64    `gorm:"not null" json:"trigger_price"`
	HappenedAt   time.Time  `gorm:"not null" json:"happened_at"`
	DayKey       string     `gorm:"not null;uniqueIndex:idx_stock_hit_logs_stock_type_day,priority:3" json:"day_key"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the StockHitLog model.
func (StockHitLog) TableName() string {
	return "stock_hit_logs"
}
