package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// Product is a catalog entry. Price is what retailers are charged; Cost is
// what the distributor paid and feeds the profit rollups.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name      string              `gorm:"column:name;not null;uniqueIndex:uq_products_name"`
	Price     decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Cost      decimal.Decimal     `gorm:"column:cost;type:numeric(12,2);not null"`
	Status    enums.ProductStatus `gorm:"column:status;not null;default:AVAILABLE"`
	ImageURL  *string             `gorm:"column:image_url"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
