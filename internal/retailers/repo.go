package retailers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// Repository exposes account persistence. It never writes balance columns.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a retailers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateRetailerDTO) (*models.Retailer, error) {
	retailer := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(retailer).Error; err != nil {
		return nil, err
	}
	return retailer, nil
}

// FindByMobile retrieves the account registered with the mobile number.
func (r *Repository) FindByMobile(ctx context.Context, mobile string) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).Where("mobile_number = ?", mobile).First(&retailer).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).First(&retailer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

// List returns accounts ordered by shop name, optionally filtered by role.
func (r *Repository) List(ctx context.Context, role *enums.Role) ([]models.Retailer, error) {
	query := r.db.WithContext(ctx).Model(&models.Retailer{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	var out []models.Retailer
	if err := query.Order("shop_name ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile applies name, shop and address changes. Other keys are
// dropped.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	allowed := profileColumns(updates)
	if len(allowed) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", id).
		Updates(allowed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateAccount applies admin edits: profile fields plus mobile number and
// role. Balance columns are dropped like any other unknown key.
func (r *Repository) UpdateAccount(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	allowed := accountColumns(updates)
	if len(allowed) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", id).
		Updates(allowed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ErrAccountInUse is returned when an account still carries a balance or
// has ledger history.
var ErrAccountInUse = errors.New("account has balance or ledger history")

// DeleteUnused removes an account with zero balances and no orders or
// payments. The row is locked first so a concurrent order or payment either
// lands before the check or waits and then fails on the missing row.
func (r *Repository) DeleteUnused(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var retailer models.Retailer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&retailer).Error
		if err != nil {
			return err
		}
		if !retailer.DueAmount.IsZero() || !retailer.Advance.IsZero() {
			return ErrAccountInUse
		}

		var orders, payments int64
		if err := tx.Model(&models.Order{}).Where("retailer_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).Where("retailer_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if orders > 0 || payments > 0 {
			return ErrAccountInUse
		}
		return tx.Delete(&models.Retailer{}, "id = ?", id).Error
	})
}

// UpdatePasswordHash stores a rehashed password.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

var allowedProfileColumns = map[string]struct{}{
	"user_name": {},
	"shop_name": {},
	"address":   {},
}

var allowedAccountColumns = map[string]struct{}{
	"user_name":     {},
	"shop_name":     {},
	"address":       {},
	"mobile_number": {},
	"role":          {},
}

func profileColumns(updates map[string]any) map[string]any {
	return filterColumns(updates, allowedProfileColumns)
}

func accountColumns(updates map[string]any) map[string]any {
	return filterColumns(updates, allowedAccountColumns)
}

func filterColumns(updates map[string]any, allowed map[string]struct{}) map[string]any {
	out := make(map[string]any, len(updates))
	for k, v := range updates {
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}
	return out
}
