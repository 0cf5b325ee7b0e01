package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

// maxLineQuantity bounds a single line so quantity arithmetic stays exact.
const maxLineQuantity = 1_000_000

// collapseDeltas validates the request lines and sums repeated products,
// keeping first-seen order.
func collapseDeltas(lines []LineDelta) ([]LineDelta, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]LineDelta, 0, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
				WithDetails(map[string]any{"index": i})
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
				WithDetails(map[string]any{"index": i, "product_id": line.ProductID.String()})
		}
		if line.Quantity > maxLineQuantity {
			return nil, quantityTooLarge(line.ProductID)
		}
		pos, ok := index[line.ProductID]
		if !ok {
			index[line.ProductID] = len(out)
			out = append(out, line)
			continue
		}
		// compare before adding so the sum never leaves int range
		if out[pos].Quantity > maxLineQuantity-line.Quantity {
			return nil, quantityTooLarge(line.ProductID)
		}
		out[pos].Quantity += line.Quantity
	}
	return out, nil
}

func quantityTooLarge(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity is too large").
		WithDetails(map[string]any{"product_id": productID.String(), "max": maxLineQuantity})
}

// priceLine recomputes both subtotals from the line's frozen unit amounts.
func priceLine(line *models.OrderLine) {
	qty := decimal.NewFromInt(int64(line.Quantity))
	line.Subtotal = line.UnitPrice.Mul(qty)
	line.CostSubtotal = line.UnitCost.Mul(qty)
}

// moneyOverflow reports amounts that would not fit their columns.
func moneyOverflow(field string, productID uuid.UUID) error {
	details := map[string]any{"field": field, "max": models.MaxMoney.StringFixed(2)}
	if productID != uuid.Nil {
		details["product_id"] = productID.String()
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "order amount exceeds the maximum storable amount").
		WithDetails(details)
}

func checkLineFits(line *models.OrderLine) error {
	if !models.MoneyFits(line.Subtotal) {
		return moneyOverflow("subtotal", line.ProductID)
	}
	if !models.MoneyFits(line.CostSubtotal) {
		return moneyOverflow("cost_subtotal", line.ProductID)
	}
	return nil
}

func sumLines(lines []models.OrderLine) (total, cost decimal.Decimal) {
	total, cost = decimal.Zero, decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
		cost = cost.Add(line.CostSubtotal)
	}
	return total, cost
}
