package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/internal/catalog"
	"github.com/angelmondragon/agency-ledger/internal/ledger"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
)

// Repository defines persistence operations for the order and order line
// tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	RetailerExists(ctx context.Context, retailerID uuid.UUID) (bool, error)
	LockRetailer(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error)
	FindByKey(ctx context.Context, retailerID uuid.UUID, orderDate time.Time, isAM bool) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateTotals(ctx context.Context, orderID uuid.UUID, total, cost decimal.Decimal) error
	FindLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	CreateLine(ctx context.Context, line *models.OrderLine) error
	UpdateLine(ctx context.Context, lineID uuid.UUID, quantity int, subtotal, costSubtotal decimal.Decimal) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productResolver interface {
	ResolveProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.PriceSnapshot, error)
}

type dueWriter interface {
	IncreaseDue(ctx context.Context, tx *gorm.DB, retailerID uuid.UUID, delta decimal.Decimal) (*ledger.Balance, error)
}
