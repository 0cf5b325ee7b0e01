package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a read-only reports repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListOrders returns orders by date, AM before PM, then order time and id.
// Lines come back by creation time then id.
func (r *repository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Retailer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Lines.Product")

	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	if filter.Date != nil {
		query = query.Where("order_date = ?", *filter.Date)
	}
	if filter.Shift != nil {
		query = query.Where("order_shift = ?", filter.Shift.IsAM())
	}
	if filter.From != nil {
		query = query.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("order_date <= ?", *filter.To)
	}

	var orders []models.Order
	err := query.
		Order("order_date ASC").
		Order("order_shift DESC").
		Order("order_time ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindRetailer(ctx context.Context, id uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&retailer).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}
