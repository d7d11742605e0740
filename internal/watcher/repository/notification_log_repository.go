package repository

import (
	"context"

	"golang-twse-watcher/internal/entity"

	"gorm.io/gorm"
)

// NotificationLogRepository records dispatched notification batches.
type NotificationLogRepository interface {
	Create(ctx context.Context, record *entity.NotificationLog) error
	FindByDay(ctx context.Context, dayKey string) ([]entity.NotificationLog, error)
}

// NewNotificationLogRepository creates a new GORM-based notification log
// repository.
func NewNotificationLogRepository(db *gorm.DB) NotificationLogRepository {
	return &notificationLogRepository{db: db}
}

type notificationLogRepository struct {
	db *gorm.DB
}

func (r *notificationLogRepository) Create(ctx context.Context, record *entity.NotificationLog) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *notificationLogRepository) FindByDay(ctx context.Context, dayKey string) ([]entity.NotificationLog, error) {
	var records []entity.NotificationLog
	if err := r.db.WithContext(ctx).Where("day_key = ?", dayKey).Order("sent_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
