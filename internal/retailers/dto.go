package retailers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// RetailerDTO is the transport shape that omits credentials. Balances are
// read-only here.
type RetailerDTO struct {
	ID           uuid.UUID       `json:"id"`
	UserName     string          `json:"user_name"`
	ShopName     string          `json:"shop_name"`
	Address      string          `json:"address"`
	MobileNumber string          `json:"mobile_number"`
	Role         enums.Role      `json:"role"`
	DueAmount    decimal.Decimal `json:"due_amount"`
	Advance      decimal.Decimal `json:"advance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateRetailerDTO holds the data the repo needs to persist a new account.
type CreateRetailerDTO struct {
	UserName     string
	ShopName     string
	Address      string
	MobileNumber string
	PasswordHash string
	Role         enums.Role
}

// UpdateProfileInput carries the profile fields an account may change.
type UpdateProfileInput struct {
	UserName *string
	ShopName *string
	Address  *string
}

// AdminUpdateInput is what an admin may change on any account. There is no
// way to set balances through it.
type AdminUpdateInput struct {
	UpdateProfileInput
	MobileNumber *string
	Role         *enums.Role
}

func FromModel(r *models.Retailer) *RetailerDTO {
	if r == nil {
		return nil
	}
	return &RetailerDTO{
		ID:           r.ID,
		UserName:     r.UserName,
		ShopName:     r.ShopName,
		Address:      r.Address,
		MobileNumber: r.MobileNumber,
		Role:         r.Role,
		DueAmount:    r.DueAmount,
		Advance:      r.Advance,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (c CreateRetailerDTO) ToModel() *models.Retailer {
	role := c.Role
	if role == "" {
		role = enums.RoleRetailer
	}
	return &models.Retailer{
		UserName:     c.UserName,
		ShopName:     c.ShopName,
		Address:      c.Address,
		MobileNumber: c.MobileNumber,
		PasswordHash: c.PasswordHash,
		Role:         role,
		DueAmount:    decimal.Zero,
		Advance:      decimal.Zero,
	}
}
