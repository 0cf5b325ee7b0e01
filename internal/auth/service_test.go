package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agency-ledger/internal/retailers"
	pkgAuth "github.com/angelmondragon/agency-ledger/pkg/auth"
	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "agency-ledger", ExpirationMinutes: 15}
}

var loginTime = time.Now().UTC().Truncate(time.Second)

func newRegistered(t *testing.T, env string) (RegisterService, Service, *retailers.Repository) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	reg, err := NewRegisterService(RegisterServiceParams{DB: client, PasswordConfig: testPasswordConfig(), AppEnv: env})
	require.NoError(t, err)
	repo := retailers.NewRepository(conn)
	login, err := NewService(ServiceParams{
		Accounts:       repo,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
		Clock:          func() time.Time { return loginTime },
	})
	require.NoError(t, err)
	return reg, login, repo
}

func registerRequest(mobile string) RegisterRequest {
	return RegisterRequest{
		UserName:     "Rahim",
		ShopName:     "Rahim Store",
		Address:      "12 Station Road",
		MobileNumber: mobile,
		Password:     "correct-horse",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	reg, login, _ := newRegistered(t, "dev")
	ctx := context.Background()

	created, err := reg.Register(ctx, registerRequest(" +880 1711-000111 "))
	require.NoError(t, err)
	assert.Equal(t, "+8801711000111", created.MobileNumber)
	assert.Equal(t, enums.RoleRetailer, created.Role)
	assert.True(t, created.DueAmount.IsZero())
	assert.True(t, created.Advance.IsZero())

	resp, err := login.Login(ctx, LoginRequest{MobileNumber: "+8801711000111", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.Retailer.ID)
	assert.WithinDuration(t, loginTime.Add(15*time.Minute), resp.ExpiresAt, time.Second)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.RetailerID)
	assert.Equal(t, enums.RoleRetailer, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterRejectsDuplicateMobile(t *testing.T) {
	reg, _, _ := newRegistered(t, "dev")
	ctx := context.Background()

	_, err := reg.Register(ctx, registerRequest("01711000222"))
	require.NoError(t, err)

	_, err = reg.Register(ctx, registerRequest("0171-1000-222"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterValidatesInput(t *testing.T) {
	reg, _, _ := newRegistered(t, "dev")
	ctx := context.Background()

	cases := map[string]func(r *RegisterRequest){
		"missing mobile": func(r *RegisterRequest) { r.MobileNumber = "  " },
		"missing shop":   func(r *RegisterRequest) { r.ShopName = "" },
		"missing user":   func(r *RegisterRequest) { r.UserName = " " },
		"short password": func(r *RegisterRequest) { r.Password = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := registerRequest("01711000333")
			mutate(&req)
			_, err := reg.Register(ctx, req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestRegisterAdminBlockedInProd(t *testing.T) {
	reg, _, _ := newRegistered(t, config.AppEnvProd)
	_, err := reg.RegisterAdmin(context.Background(), registerRequest("01711000444"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	reg, _, _ = newRegistered(t, "dev")
	admin, err := reg.RegisterAdmin(context.Background(), registerRequest("01711000444"))
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, admin.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	reg, login, _ := newRegistered(t, "dev")
	ctx := context.Background()
	_, err := reg.Register(ctx, registerRequest("01711000555"))
	require.NoError(t, err)

	_, err = login.Login(ctx, LoginRequest{MobileNumber: "01711000555", Password: "wrong-password"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = login.Login(ctx, LoginRequest{MobileNumber: "01700000000", Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	_, login, repo := newRegistered(t, "dev")
	ctx := context.Background()

	weak := testPasswordConfig()
	weak.ArgonMemoryKB = 4096
	hash, err := security.HashPassword("correct-horse", weak)
	require.NoError(t, err)
	account, err := repo.Create(ctx, retailers.CreateRetailerDTO{
		UserName:     "Karim",
		ShopName:     "Karim Traders",
		MobileNumber: "01711000666",
		PasswordHash: hash,
		Role:         enums.RoleRetailer,
	})
	require.NoError(t, err)

	_, err = login.Login(ctx, LoginRequest{MobileNumber: "01711000666", Password: "correct-horse"})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, hash, reloaded.PasswordHash)
	assert.False(t, security.NeedsRehash(reloaded.PasswordHash, testPasswordConfig()))
}
