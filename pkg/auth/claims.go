package auth

import (
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	RetailerID uuid.UUID
	Role       enums.Role
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	RetailerID uuid.UUID  `json:"retailer_id"`
	Role       enums.Role `json:"role"`
	jwt.RegisteredClaims
}
