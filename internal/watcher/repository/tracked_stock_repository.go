package repository

import (
	"context"
	"time"

	"golang-twse-watcher/internal/entity"

	"gorm.io/gorm"
)

// TrackedStockFilter narrows watchlist queries. Nil fields are ignored.
type TrackedStockFilter struct {
	Code       *string
	Source     *entity.StockSource
	IsFavorite *bool
}

// TrackedStockRepository defines the interface for watchlist data operations.
type TrackedStockRepository interface {
	Create(ctx context.Context, stock *entity.TrackedStock) error
	FindByID(ctx context.Context, id uint) (*entity.TrackedStock, error)
	Find(ctx context.Context, filter TrackedStockFilter) ([]entity.TrackedStock, error)
	FindWithTargets(ctx context.Context) ([]entity.TrackedStock, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	MarkSuccess(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

// NewTrackedStockRepository creates a new GORM-based watchlist repository.
func NewTrackedStockRepository(db *gorm.DB) TrackedStockRepository {
	return &trackedStockRepository{db: db}
}

type trackedStockRepository struct {
	db *gorm.DB
}

// Create inserts a new watchlist row.
func (r *trackedStockRepository) Create(ctx context.Context, stock *entity.TrackedStock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

// FindByID retrieves a tracked stock by its ID.
func (r *trackedStockRepository) FindByID(ctx context.Context, id uint) (*entity.TrackedStock, error) {
	var stock entity.TrackedStock
	if err := r.db.WithContext(ctx).First(&stock, id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// Find retrieves tracked stocks matching the filter, newest first.
func (r *trackedStockRepository) Find(ctx context.Context, filter TrackedStockFilter) ([]entity.TrackedStock, error) {
	query := r.db.WithContext(ctx).Model(&entity.TrackedStock{})
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.IsFavorite != nil {
		query = query.Where("is_favorite = ?", *filter.IsFavorite)
	}

	var stocks []entity.TrackedStock
	if err := query.Order("created_at DESC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// FindWithTargets retrieves the rows the hit detector evaluates: anything
// with at least one target price set.
func (r *trackedStockRepository) FindWithTargets(ctx context.Context) ([]entity.TrackedStock, error) {
	var stocks []entity.TrackedStock
	err := r.db.WithContext(ctx).
		Where("support IS NOT NULL OR short_term_profit IS NOT NULL OR wave_profit IS NOT NULL OR swap_ref IS NOT NULL").
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

// UpdateFields applies a partial update to a tracked stock.
func (r *trackedStockRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.TrackedStock{}).Where("id = ?", id).Updates(fields).Error
}

// MarkSuccess flags a tracked stock as having reached its profit target.
func (r *trackedStockRepository) MarkSuccess(ctx context.Context, id uint, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"is_success":   true,
		"success_date": at,
	})
}

// Delete removes a tracked stock by its ID.
func (r *trackedStockRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.TrackedStock{}, id).Error
}
