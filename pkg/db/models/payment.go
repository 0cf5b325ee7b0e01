package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// Payment is an immutable settlement record. Rows are only ever inserted.
type Payment struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	RetailerID  uuid.UUID         `gorm:"column:retailer_id;type:uuid;not null;index:idx_payments_retailer_created,priority:1"`
	Kind        enums.PaymentKind `gorm:"column:kind;not null;default:cash"`
	Amount      decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate time.Time         `gorm:"column:payment_date;type:date;not null"`
	ReceivedBy  string            `gorm:"column:received_by;not null"`
	Retailer    *Retailer         `gorm:"foreignKey:RetailerID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime;index:idx_payments_retailer_created,priority:2"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
