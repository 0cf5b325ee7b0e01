package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/angelmondragon/agency-ledger/pkg/pagination"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

// PaymentInput is one payment request against a retailer's balance.
type PaymentInput struct {
	RetailerID  uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	ReceivedBy  string
}

// ListPaymentsInput filters payment history. A nil RetailerID lists all.
type ListPaymentsInput struct {
	RetailerID *uuid.UUID
	Pagination pagination.Params
}

// PaymentDTO is the API representation of a payment.
type PaymentDTO struct {
	ID          uuid.UUID         `json:"id"`
	RetailerID  uuid.UUID         `json:"retailer_id"`
	ShopName    string            `json:"shop_name,omitempty"`
	Kind        enums.PaymentKind `json:"kind"`
	Amount      decimal.Decimal   `json:"amount"`
	PaymentDate types.Date        `json:"payment_date"`
	ReceivedBy  string            `json:"received_by"`
	CreatedAt   time.Time         `json:"created_at"`
	Balance     *Balance          `json:"balance_after,omitempty"`
}

// BalanceDTO is a retailer's current due and advance.
type BalanceDTO struct {
	RetailerID uuid.UUID `json:"retailer_id"`
	ShopName   string    `json:"shop_name"`
	Balance
}

func paymentFromModel(m models.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:          m.ID,
		RetailerID:  m.RetailerID,
		Kind:        m.Kind,
		Amount:      m.Amount,
		PaymentDate: types.NewDate(m.PaymentDate),
		ReceivedBy:  m.ReceivedBy,
		CreatedAt:   m.CreatedAt,
	}
	if m.Retailer != nil {
		dto.ShopName = m.Retailer.ShopName
	}
	return dto
}
