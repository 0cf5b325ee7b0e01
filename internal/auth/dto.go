package auth

import (
	"time"

	"github.com/angelmondragon/agency-ledger/internal/retailers"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,min=7,max=20"`
	Password     string `json:"password" validate:"required"`
}

// LoginResponse contains the access token and the signed-in account.
type LoginResponse struct {
	AccessToken string                 `json:"access_token"`
	ExpiresAt   time.Time              `json:"expires_at"`
	Retailer    *retailers.RetailerDTO `json:"retailer"`
}
