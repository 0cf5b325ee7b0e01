package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// Retailer is an account holder: a shop that orders against the catalog, or
// an admin operating the back office. DueAmount and Advance are owned by the
// ledger and never written through the profile surface.
type Retailer struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserName     string          `gorm:"column:user_name;not null"`
	ShopName     string          `gorm:"column:shop_name;not null"`
	Address      string          `gorm:"column:address;not null;default:''"`
	MobileNumber string          `gorm:"column:mobile_number;not null;uniqueIndex:uq_retailers_mobile_number"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Role         enums.Role      `gorm:"column:role;not null;default:retailer"`
	DueAmount    decimal.Decimal `gorm:"column:due_amount;type:numeric(12,2);not null;default:0"`
	Advance      decimal.Decimal `gorm:"column:advance;type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Retailer) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
