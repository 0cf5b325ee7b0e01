package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/agency-ledger/api/responses"
	"github.com/angelmondragon/agency-ledger/api/validators"
	"github.com/angelmondragon/agency-ledger/internal/ledger"
	"github.com/angelmondragon/agency-ledger/internal/retailers"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
)

type updateProfileRequest struct {
	UserName *string `json:"user_name,omitempty" validate:"omitempty,max=120"`
	ShopName *string `json:"shop_name,omitempty" validate:"omitempty,max=120"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=255"`
}

type adminUpdateRetailerRequest struct {
	UserName     *string `json:"user_name,omitempty" validate:"omitempty,max=120"`
	ShopName     *string `json:"shop_name,omitempty" validate:"omitempty,max=120"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=255"`
	MobileNumber *string `json:"mobile_number,omitempty" validate:"omitempty,max=20"`
	Role         *string `json:"role,omitempty"`
}

func ListRetailers(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var role *enums.Role
		if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
			parsed, err := enums.ParseRole(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			role = &parsed
		}

		list, err := svc.ListRetailers(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetRetailer(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		retailer, err := svc.GetRetailer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

// RetailerMe returns the authenticated account.
func RetailerMe(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		retailer, err := svc.GetRetailer(r.Context(), a.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

// UpdateRetailerMe changes the caller's profile. Balances are not writable here.
func UpdateRetailerMe(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := svc.UpdateProfile(r.Context(), a.ID, retailers.UpdateProfileInput{
			UserName: payload.UserName,
			ShopName: payload.ShopName,
			Address:  payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

// RetailerBalance returns {due, advance}. Retailers may only read their own;
// the "me" route passes no path id.
func RetailerBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var requested *uuid.UUID
		if raw := strings.TrimSpace(chi.URLParam(r, "retailerId")); raw != "" {
			id, err := validators.ParseURLUUID(r, "retailerId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			requested = &id
		} else if a.isAdmin() {
			requested = &a.ID
		}

		retailerID, err := targetRetailer(a, requested)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.GetBalance(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// AdminUpdateRetailer edits another account's profile, mobile number or role.
func AdminUpdateRetailer(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminUpdateRetailerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := retailers.AdminUpdateInput{
			UpdateProfileInput: retailers.UpdateProfileInput{
				UserName: payload.UserName,
				ShopName: payload.ShopName,
				Address:  payload.Address,
			},
			MobileNumber: payload.MobileNumber,
		}
		if payload.Role != nil {
			role, err := enums.ParseRole(*payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}

		retailer, err := svc.AdminUpdate(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

// DeleteRetailer removes an account with no balance and no ledger history.
func DeleteRetailer(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if id == a.ID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete your own account"))
			return
		}
		if err := svc.DeleteRetailer(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
