package retailers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

// minMobileDigits matches the shortest number registration accepts.
const minMobileDigits = 7

// Service exposes account reads, profile edits and admin account management.
type Service interface {
	GetRetailer(ctx context.Context, id uuid.UUID) (*RetailerDTO, error)
	ListRetailers(ctx context.Context, role *enums.Role) ([]RetailerDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*RetailerDTO, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*RetailerDTO, error)
	DeleteRetailer(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds the retailers service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("retailers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetRetailer(ctx context.Context, id uuid.UUID) (*RetailerDTO, error) {
	retailer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateErr(err, id)
	}
	return FromModel(retailer), nil
}

func (s *service) ListRetailers(ctx context.Context, role *enums.Role) ([]RetailerDTO, error) {
	if role != nil && !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	rows, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, db.TranslateError(err, "list retailers")
	}
	out := make([]RetailerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*RetailerDTO, error) {
	updates, err := profileUpdates(input)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateProfile(ctx, id, updates); err != nil {
			return nil, translateErr(err, id)
		}
	}
	return s.GetRetailer(ctx, id)
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*RetailerDTO, error) {
	updates, err := profileUpdates(input.UpdateProfileInput)
	if err != nil {
		return nil, err
	}
	if input.MobileNumber != nil {
		mobile := NormalizeMobile(*input.MobileNumber)
		if len(mobile) < minMobileDigits {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mobile number is invalid")
		}
		updates["mobile_number"] = mobile
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		updates["role"] = *input.Role
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateAccount(ctx, id, updates); err != nil {
			// mobile_number is the only unique column reachable here.
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "mobile number already registered")
			}
			return nil, translateErr(err, id)
		}
	}
	return s.GetRetailer(ctx, id)
}

func (s *service) DeleteRetailer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteUnused(ctx, id); err != nil {
		if errors.Is(err, ErrAccountInUse) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "retailer has a balance or ledger history").
				WithDetails(map[string]any{"retailer_id": id.String()})
		}
		return translateErr(err, id)
	}
	return nil
}

func profileUpdates(input UpdateProfileInput) (map[string]any, error) {
	updates := map[string]any{}
	set := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" && column != "address" {
			return pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be empty")
		}
		updates[column] = trimmed
		return nil
	}
	if err := set("user_name", input.UserName); err != nil {
		return nil, err
	}
	if err := set("shop_name", input.ShopName); err != nil {
		return nil, err
	}
	if err := set("address", input.Address); err != nil {
		return nil, err
	}
	return updates, nil
}

func translateErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found").
			WithDetails(map[string]any{"retailer_id": id.String()})
	}
	return db.TranslateError(err, "load retailer")
}
