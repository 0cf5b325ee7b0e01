package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/api/responses"
	"github.com/angelmondragon/agency-ledger/api/validators"
	"github.com/angelmondragon/agency-ledger/internal/ledger"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/pagination"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

type paymentRequest struct {
	RetailerID  uuid.UUID       `json:"retailer_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate types.Date      `json:"payment_date"`
	ReceivedBy  string          `json:"received_by" validate:"required,max=120"`
}

func (p paymentRequest) toInput() ledger.PaymentInput {
	return ledger.PaymentInput{
		RetailerID:  p.RetailerID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate.Time,
		ReceivedBy:  validators.SanitizeString(p.ReceivedBy, 120),
	}
}

type batchPaymentRequest struct {
	Payments []paymentRequest `json:"payments" validate:"required,min=1,max=500,dive"`
}

// RecordPayment applies a cash payment to a retailer's balance.
func RecordPayment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.RecordPayment(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// BatchRecordPayments applies every payment or none of them.
func BatchRecordPayments(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload batchPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]ledger.PaymentInput, 0, len(payload.Payments))
		for _, p := range payload.Payments {
			inputs = append(inputs, p.toInput())
		}

		payments, err := svc.BatchRecordPayments(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payments)
	}
}

// DrawFromAdvance settles part of the due from the retailer's advance.
func DrawFromAdvance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.DrawFromAdvance(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// ListPayments pages payment history newest first, optionally for one retailer.
func ListPayments(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.ParseQueryUUID(r, "retailer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPayments(r.Context(), ledger.ListPaymentsInput{
			RetailerID: retailerID,
			Pagination: pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
