package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/internal/retailers"
	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/security"
)

const minPasswordLength = 8

// RegisterRequest contains the payload required for onboarding a shop.
type RegisterRequest struct {
	UserName     string `json:"user_name" validate:"required"`
	ShopName     string `json:"shop_name" validate:"required"`
	Address      string `json:"address"`
	MobileNumber string `json:"mobile_number" validate:"required,min=7,max=20"`
	Password     string `json:"password" validate:"required,min=8"`
}

// RegisterService creates accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*retailers.RetailerDTO, error)
	// RegisterAdmin creates a back-office account. Refused in production.
	RegisterAdmin(ctx context.Context, req RegisterRequest) (*retailers.RetailerDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	AppEnv         string
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	appEnv      string
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		appEnv:      params.AppEnv,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*retailers.RetailerDTO, error) {
	return s.create(ctx, req, enums.RoleRetailer)
}

func (s *registerService) RegisterAdmin(ctx context.Context, req RegisterRequest) (*retailers.RetailerDTO, error) {
	if strings.EqualFold(s.appEnv, config.AppEnvProd) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin registration is disabled in production")
	}
	return s.create(ctx, req, enums.RoleAdmin)
}

func (s *registerService) create(ctx context.Context, req RegisterRequest, role enums.Role) (*retailers.RetailerDTO, error) {
	mobile := retailers.NormalizeMobile(req.MobileNumber)
	if mobile == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mobile_number is required")
	}
	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_name is required")
	}
	shopName := strings.TrimSpace(req.ShopName)
	if shopName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *retailers.RetailerDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := retailers.NewRepository(tx)

		if _, err := repo.FindByMobile(ctx, mobile); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "mobile number already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check mobile number")
		}

		account, err := repo.Create(ctx, retailers.CreateRetailerDTO{
			UserName:     userName,
			ShopName:     shopName,
			Address:      strings.TrimSpace(req.Address),
			MobileNumber: mobile,
			PasswordHash: passwordHash,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "uq_retailers_mobile_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "mobile number already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
		}
		created = retailers.FromModel(account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
