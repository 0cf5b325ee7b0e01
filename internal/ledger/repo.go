package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockRetailer reads the retailer row with SELECT ... FOR UPDATE. It must be
// called on a transaction-bound repository.
func (r *repository) LockRetailer(ctx context.Context, id uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&retailer).Error
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

func (r *repository) FindRetailer(ctx context.Context, id uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&retailer).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

func (r *repository) UpdateBalances(ctx context.Context, id uuid.UUID, due, advance decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"due_amount": due,
			"advance":    advance,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error
}

// ListPayments pages newest first on (created_at, id).
func (r *repository) ListPayments(ctx context.Context, retailerID *uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Preload("Retailer")
	if retailerID != nil {
		query = query.Where("retailer_id = ?", *retailerID)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var payments []models.Payment
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
