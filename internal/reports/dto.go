package reports

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/internal/orders"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

// OrdersReport is a list of orders with their grand totals.
type OrdersReport struct {
	Orders     []orders.OrderDTO `json:"orders"`
	OrderCount int               `json:"order_count"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
	GrandCost  decimal.Decimal   `json:"grand_cost"`
}

// ProductColumn is one product column of the shift summary.
type ProductColumn struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ShopRow is one shop's line in the shift summary. Quantities is aligned
// with ShiftSummary.Products.
type ShopRow struct {
	RetailerID  uuid.UUID       `json:"retailer_id"`
	ShopName    string          `json:"shop_name"`
	Quantities  []int           `json:"quantities"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CostAmount  decimal.Decimal `json:"cost_amount"`
	DueAmount   decimal.Decimal `json:"due_amount"`
}

// ShiftSummary rolls up one date and shift per shop.
type ShiftSummary struct {
	Date          types.Date      `json:"date"`
	Shift         enums.Shift     `json:"shift"`
	Products      []ProductColumn `json:"products"`
	Shops         []ShopRow       `json:"shops"`
	ProductTotals []int           `json:"product_totals"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	TotalDue      decimal.Decimal `json:"total_due"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	NetProfit     decimal.Decimal `json:"net_profit"`
}

// ProductSalesRow is the quantity and amount sold of one product in one
// date and shift.
type ProductSalesRow struct {
	Date        types.Date      `json:"date"`
	Shift       enums.Shift     `json:"shift"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Cost        decimal.Decimal `json:"cost"`
}

// ProductSalesReport lists product sales rows with their totals.
type ProductSalesReport struct {
	Rows        []ProductSalesRow `json:"rows"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
}

// Export is a rendered spreadsheet.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}
