package catalog

import (
	"time"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSnapshot is what an order line freezes when it is first created.
type PriceSnapshot struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	UnitCost  decimal.Decimal
	Status    enums.ProductStatus
}

// Orderable reports whether new lines may be opened for the product.
func (p PriceSnapshot) Orderable() bool {
	return p.Status == enums.ProductStatusAvailable
}

// CreateProductInput carries a new catalog entry.
type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Cost     decimal.Decimal
	ImageURL *string
}

// UpdateProductInput carries a partial update. Nil fields are left untouched.
type UpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	Cost     *decimal.Decimal
	ImageURL *string
}

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Price     decimal.Decimal     `json:"price"`
	Cost      decimal.Decimal     `json:"cost"`
	Status    enums.ProductStatus `json:"status"`
	ImageURL  *string             `json:"image_url,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// FromModel maps a product row to its DTO.
func FromModel(m models.Product) ProductDTO {
	return ProductDTO{
		ID:        m.ID,
		Name:      m.Name,
		Price:     m.Price,
		Cost:      m.Cost,
		Status:    m.Status,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func snapshotFromModel(m models.Product) PriceSnapshot {
	return PriceSnapshot{
		ProductID: m.ID,
		Name:      m.Name,
		UnitPrice: m.Price,
		UnitCost:  m.Cost,
		Status:    m.Status,
	}
}
