package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "agency-ledger",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	retailerID := uuid.New()

	token, expiresAt, err := MintAccessToken(cfg, now, AccessTokenPayload{RetailerID: retailerID, Role: enums.RoleRetailer})
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(30*time.Minute), expiresAt, time.Second)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, retailerID, claims.RetailerID)
	assert.Equal(t, enums.RoleRetailer, claims.Role)
	assert.Equal(t, retailerID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestMintAccessTokenValidatesPayload(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	_, _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.RoleAdmin})
	require.Error(t, err)

	_, _, err = MintAccessToken(cfg, now, AccessTokenPayload{RetailerID: uuid.New(), Role: "owner"})
	require.Error(t, err)

	cfg.Secret = ""
	_, _, err = MintAccessToken(cfg, now, AccessTokenPayload{RetailerID: uuid.New(), Role: enums.RoleAdmin})
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{RetailerID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{RetailerID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	other = cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	_, err = ParseAccessToken(cfg, strings.Repeat("x", 20))
	require.Error(t, err)
}
