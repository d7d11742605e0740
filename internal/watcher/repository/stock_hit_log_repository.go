package repository

import (
	"context"
	"errors"

	"golang-twse-watcher/internal/entity"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// StockHitLogRepository defines the interface for the append-only hit log.
type StockHitLogRepository interface {
	// Create inserts a hit record. It fails with a duplicate-key error when
	// a record for the same (stock, type, day) already exists; use
	// IsDuplicateKeyError to distinguish that benign case.
	Create(ctx context.Context, record *entity.StockHitLog) error
	// FindByStockTypeDay returns the existing record for the key, or nil
	// when none exists.
	FindByStockTypeDay(ctx context.Context, stockID uint, targetType entity.TargetType, dayKey string) (*entity.StockHitLog, error)
	FindByDay(ctx context.Context, dayKey string) ([]entity.StockHitLog, error)
}

// NewStockHitLogRepository creates a new GORM-based hit log repository.
func NewStockHitLogRepository(db *gorm.DB) StockHitLogRepository {
	return &stockHitLogRepository{db: db}
}

type stockHitLogRepository struct {
	db *gorm.DB
}

func (r *stockHitLogRepository) Create(ctx context.Context, record *entity.StockHitLog) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *stockHitLogRepository) FindByStockTypeDay(ctx context.Context, stockID uint, targetType entity.TargetType, dayKey string) (*entity.StockHitLog, error) {
	var record entity.StockHitLog
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND type = ? AND day_key = ?", stockID, targetType, dayKey).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *stockHitLogRepository) FindByDay(ctx context.Context, dayKey string) ([]entity.StockHitLog, error) {
	var records []entity.StockHitLog
	if err := r.db.WithContext(ctx).Where("day_key = ?", dayKey).Order("happened_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// IsDuplicateKeyError reports whether err is a unique-constraint violation.
// Checks both gorm's translated error and the raw postgres error code, since
// translation depends on driver configuration.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
