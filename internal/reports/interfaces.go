package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// OrderFilter narrows the order views. Every set field is ANDed.
type OrderFilter struct {
	RetailerID *uuid.UUID
	Date       *time.Time
	Shift      *enums.Shift
	From       *time.Time
	To         *time.Time
}

// Repository reads persisted orders for reporting. It never writes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	FindRetailer(ctx context.Context, id uuid.UUID) (*models.Retailer, error)
}
