package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

// Balance is a retailer's pair of running amounts.
type Balance struct {
	Due     decimal.Decimal `json:"due_amount"`
	Advance decimal.Decimal `json:"advance"`
}

// NonNegative reports whether both sides of the balance are >= 0.
func (b Balance) NonNegative() bool {
	return !b.Due.IsNegative() && !b.Advance.IsNegative()
}

// Storable reports whether both sides fit their money columns.
func (b Balance) Storable() bool {
	return models.MoneyFits(b.Due) && models.MoneyFits(b.Advance)
}

func balanceTooLarge(b Balance) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "resulting balance exceeds the maximum storable amount").
		WithDetails(map[string]any{
			"due_amount": b.Due.StringFixed(2),
			"advance":    b.Advance.StringFixed(2),
			"max":        models.MaxMoney.StringFixed(2),
		})
}

// applyPayment pays down the due first and moves any excess into advance.
func applyPayment(b Balance, amount decimal.Decimal) Balance {
	if amount.GreaterThan(b.Due) {
		return Balance{
			Due:     decimal.Zero,
			Advance: b.Advance.Add(amount.Sub(b.Due)),
		}
	}
	return Balance{
		Due:     b.Due.Sub(amount),
		Advance: b.Advance,
	}
}

// applyAdvanceDraw offsets due with existing credit. The checks run in a
// fixed order and each maps to its own code.
func applyAdvanceDraw(b Balance, amount decimal.Decimal) (Balance, error) {
	details := map[string]any{
		"amount":     amount.StringFixed(2),
		"due_amount": b.Due.StringFixed(2),
		"advance":    b.Advance.StringFixed(2),
	}
	if b.Due.IsZero() {
		return b, pkgerrors.New(pkgerrors.CodeNoOutstandingDue, "retailer has no outstanding due").WithDetails(details)
	}
	if amount.GreaterThan(b.Due) {
		return b, pkgerrors.New(pkgerrors.CodeAmountExceedsDue, "amount exceeds outstanding due").WithDetails(details)
	}
	if !b.Advance.IsPositive() || b.Advance.LessThan(amount) {
		return b, pkgerrors.New(pkgerrors.CodeInsufficientAdvance, "advance balance is insufficient").WithDetails(details)
	}
	return Balance{
		Due:     b.Due.Sub(amount),
		Advance: b.Advance.Sub(amount),
	}, nil
}

func applyDueDelta(b Balance, delta decimal.Decimal) (Balance, error) {
	next := Balance{Due: b.Due.Add(delta), Advance: b.Advance}
	if next.Due.IsNegative() {
		return b, pkgerrors.New(pkgerrors.CodeInternal, "due amount would become negative").
			WithDetails(map[string]any{
				"due_amount": b.Due.StringFixed(2),
				"delta":      delta.StringFixed(2),
			})
	}
	if !next.Storable() {
		return b, balanceTooLarge(next)
	}
	return next, nil
}
