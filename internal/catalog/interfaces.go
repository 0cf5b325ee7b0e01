package catalog

import (
	"context"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the products table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, status *enums.ProductStatus) ([]models.Product, error)
	CountOrderLines(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Lookup resolves product identifiers to their current price and cost.
type Lookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*PriceSnapshot, error)
	ResolveProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PriceSnapshot, error)
}
