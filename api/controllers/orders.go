package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/agency-ledger/api/responses"
	"github.com/angelmondragon/agency-ledger/api/validators"
	"github.com/angelmondragon/agency-ledger/internal/orders"
	"github.com/angelmondragon/agency-ledger/internal/reports"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type placeOrderRequest struct {
	RetailerID *uuid.UUID         `json:"retailer_id,omitempty"`
	OrderDate  types.Date         `json:"order_date"`
	Shift      string             `json:"shift" validate:"required"`
	Lines      []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (p placeOrderRequest) toInput(retailerID uuid.UUID) (orders.UpsertOrderInput, error) {
	shift, err := enums.ParseShift(p.Shift)
	if err != nil {
		return orders.UpsertOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shift must be AM or PM")
	}
	if p.OrderDate.IsZero() {
		return orders.UpsertOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "order_date is required")
	}
	input := orders.UpsertOrderInput{
		RetailerID: retailerID,
		OrderDate:  p.OrderDate.Time,
		Shift:      shift,
		Lines:      make([]orders.LineDelta, 0, len(p.Lines)),
	}
	for _, line := range p.Lines {
		input.Lines = append(input.Lines, orders.LineDelta{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return input, nil
}

// PlaceOrder merges the requested quantities into the retailer's order for the
// date and shift, creating it when absent.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailerID, err := targetRetailer(a, payload.RetailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpsertOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// MyOrders lists the authenticated retailer's orders.
func MyOrders(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.ListRetailerOrders(r.Context(), a.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
