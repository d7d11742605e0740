package entity

import (
	"time"

	"github.com/lib/pq"
)

// NotificationLog records one dispatched notification batch for a target
// type on a given day. Retention is an external concern.
type NotificationLog struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	DayKey        string         `gorm:"not null;index" json:"day_key"`
	Type          TargetType     `gorm:"not null" json:"type"`
	StockCodes    pq.StringArray `gorm:"type:text[]" json:"stock_codes"`
	MessageLength int            `json:"message_length"`
	SentAt        time.Time      `gorm:"not null" json:"sent_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the NotificationLog model.
func (NotificationLog) TableName() string {
	return "notification_logs"
}
