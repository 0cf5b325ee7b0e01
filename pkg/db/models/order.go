package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the single running order of a retailer for one date and shift.
// TotalAmount and CostAmount always equal the sums over Lines.
type Order struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RetailerID  uuid.UUID       `gorm:"column:retailer_id;type:uuid;not null;uniqueIndex:uq_orders_retailer_date_shift,priority:1"`
	OrderDate   time.Time       `gorm:"column:order_date;type:date;not null;uniqueIndex:uq_orders_retailer_date_shift,priority:2"`
	OrderShift  bool            `gorm:"column:order_shift;not null;uniqueIndex:uq_orders_retailer_date_shift,priority:3"`
	OrderTime   time.Time       `gorm:"column:order_time;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	CostAmount  decimal.Decimal `gorm:"column:cost_amount;type:numeric(12,2);not null;default:0"`
	Retailer    *Retailer       `gorm:"foreignKey:RetailerID"`
	Lines       []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
