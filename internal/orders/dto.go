package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

// LineDelta is a quantity to add for one product.
type LineDelta struct {
	ProductID uuid.UUID
	Quantity  int
}

// UpsertOrderInput addresses the order by (retailer, date, shift) and lists
// the quantities to merge into it.
type UpsertOrderInput struct {
	RetailerID uuid.UUID
	OrderDate  time.Time
	Shift      enums.Shift
	Lines      []LineDelta
}

// OrderDTO is the API representation of an order with its lines.
type OrderDTO struct {
	ID          uuid.UUID       `json:"id"`
	RetailerID  uuid.UUID       `json:"retailer_id"`
	ShopName    string          `json:"shop_name,omitempty"`
	OrderDate   types.Date      `json:"order_date"`
	Shift       enums.Shift     `json:"shift"`
	OrderTime   time.Time       `json:"order_time"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CostAmount  decimal.Decimal `json:"cost_amount"`
	Lines       []LineDTO       `json:"lines"`
}

// LineDTO is one product line of an order.
type LineDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CostSubtotal decimal.Decimal `json:"cost_subtotal"`
}

// UpsertResult reports the merged order and how the call moved the
// retailer's due.
type UpsertResult struct {
	Order    OrderDTO        `json:"order"`
	Created  bool            `json:"created"`
	DueDelta decimal.Decimal `json:"due_delta"`
}

// FromModel maps an order row, with whatever associations were preloaded,
// to its DTO.
func FromModel(m models.Order) OrderDTO {
	dto := OrderDTO{
		ID:          m.ID,
		RetailerID:  m.RetailerID,
		OrderDate:   types.NewDate(m.OrderDate),
		Shift:       enums.ShiftFromBool(m.OrderShift),
		OrderTime:   m.OrderTime,
		TotalAmount: m.TotalAmount,
		CostAmount:  m.CostAmount,
		Lines:       make([]LineDTO, 0, len(m.Lines)),
	}
	if m.Retailer != nil {
		dto.ShopName = m.Retailer.ShopName
	}
	for _, line := range m.Lines {
		l := LineDTO{
			ID:           line.ID,
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			UnitCost:     line.UnitCost,
			Subtotal:     line.Subtotal,
			CostSubtotal: line.CostSubtotal,
		}
		if line.Product != nil {
			l.ProductName = line.Product.Name
		}
		dto.Lines = append(dto.Lines, l)
	}
	return dto
}
