package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/pagination"
)

// Repository owns reads and writes of retailer balances and payment rows.
// Balance columns are written nowhere else.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockRetailer(ctx context.Context, id uuid.UUID) (*models.Retailer, error)
	FindRetailer(ctx context.Context, id uuid.UUID) (*models.Retailer, error)
	UpdateBalances(ctx context.Context, id uuid.UUID, due, advance decimal.Decimal) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, retailerID *uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Payment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
