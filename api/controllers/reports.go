package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/agency-ledger/api/responses"
	"github.com/angelmondragon/agency-ledger/api/validators"
	"github.com/angelmondragon/agency-ledger/internal/reports"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
)

func ReportAllOrders(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.ListAllOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func ReportRetailerOrders(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.ListRetailerOrders(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportSearchOrders filters by any of retailer_id, date, shift, from, to.
func ReportSearchOrders(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			filter reports.OrderFilter
			err    error
		)
		if filter.RetailerID, err = validators.ParseQueryUUID(r, "retailer_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Date, err = validators.ParseQueryDate(r, "date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Shift, err = validators.ParseQueryShift(r, "shift"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.ListOrdersFiltered(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func ReportShiftSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, shift, err := shiftParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.ShiftSummary(r.Context(), date, shift)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ReportShiftSummaryExport streams the shift sheet as an .xlsx attachment.
func ReportShiftSummaryExport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, shift, err := shiftParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		export, err := svc.ExportShiftSummary(r.Context(), date, shift)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(export.Body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(export.Body); err != nil && logg != nil {
			logg.Error(r.Context(), "reports.export.write_failed", err)
		}
	}
}

// ReportProductSales aggregates quantities and amounts per product, optionally
// narrowed by ?date= and ?shift=.
func ReportProductSales(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shift, err := validators.ParseQueryShift(r, "shift")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.ProductSales(r.Context(), date, shift)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// shiftParams reads the required ?date= and ?shift= pair.
func shiftParams(r *http.Request) (time.Time, enums.Shift, error) {
	date, err := validators.ParseQueryDate(r, "date")
	if err != nil {
		return time.Time{}, "", err
	}
	if date == nil {
		return time.Time{}, "", pkgerrors.New(pkgerrors.CodeValidation, "date is required").WithDetails(map[string]any{"field": "date"})
	}
	shift, err := validators.ParseQueryShift(r, "shift")
	if err != nil {
		return time.Time{}, "", err
	}
	if shift == nil {
		return time.Time{}, "", pkgerrors.New(pkgerrors.CodeValidation, "shift is required").WithDetails(map[string]any{"field": "shift"})
	}
	return *date, *shift, nil
}
