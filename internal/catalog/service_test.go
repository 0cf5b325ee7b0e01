package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agency-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestCreateProductRoundsMoneyAndDefaultsAvailable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	dto, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:  "  Rice 5kg ",
		Price: decimal.RequireFromString("10.005"),
		Cost:  decimal.RequireFromString("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rice 5kg", dto.Name)
	assert.True(t, dto.Price.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, enums.ProductStatusAvailable, dto.Status)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Oil", Price: decimal.NewFromInt(-1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Gold", Price: decimal.RequireFromString("10000000000")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Gold", Price: decimal.NewFromInt(1), Cost: decimal.RequireFromString("9999999999.995")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	dto, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Gold", Price: decimal.RequireFromString("9999999999.99")})
	require.NoError(t, err)

	huge := decimal.RequireFromString("1e10")
	_, err = svc.UpdateProduct(ctx, dto.ID, UpdateProductInput{Price: &huge})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateProductDuplicateNameConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Sugar", Price: decimal.NewFromInt(3), Cost: decimal.NewFromInt(2)})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Sugar", Price: decimal.NewFromInt(4), Cost: decimal.NewFromInt(2)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestUpdateProductAndStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Salt", Price: decimal.NewFromInt(2), Cost: decimal.NewFromInt(1)})
	require.NoError(t, err)

	price := decimal.RequireFromString("2.50")
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "Salt", updated.Name)

	off, err := svc.SetStatus(ctx, created.ID, enums.ProductStatusUnavailable)
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusUnavailable, off.Status)

	available := enums.ProductStatusAvailable
	list, err := svc.ListProducts(ctx, &available)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.SetStatus(ctx, uuid.New(), enums.ProductStatusAvailable)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestResolveProducts(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	milk := dbtest.SeedProduct(t, conn, "Milk", "1.20", "0.90")
	bread := dbtest.SeedProduct(t, conn, "Bread", "2.00", "1.10")

	snaps, err := svc.ResolveProducts(ctx, []uuid.UUID{milk.ID, bread.ID, milk.ID})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[milk.ID].UnitPrice.Equal(decimal.RequireFromString("1.20")))
	assert.True(t, snaps[bread.ID].UnitCost.Equal(decimal.RequireFromString("1.10")))
	assert.True(t, snaps[bread.ID].Orderable())

	missing := uuid.New()
	_, err = svc.ResolveProducts(ctx, []uuid.UUID{milk.ID, missing})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{missing.String()}, details["missing_product_ids"])
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetProduct(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteProduct(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	unused := dbtest.SeedProduct(t, conn, "Unused", "5", "4")
	require.NoError(t, svc.DeleteProduct(ctx, unused.ID))
	_, err = svc.FindProduct(ctx, unused.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteProduct(ctx, unused.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteProduct(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	ordered := dbtest.SeedProduct(t, conn, "Ordered", "10", "7")
	retailer := dbtest.SeedRetailer(t, conn, "Corner", "20", "0")
	dbtest.SeedOrder(t, conn, retailer.ID, ordered, 2)

	err = svc.DeleteProduct(ctx, ordered.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	got, err := svc.FindProduct(ctx, ordered.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ordered", got.Name)
}

func TestDeleteProductForeignKeyIsConflict(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, conn, "Raced", "3", "2")
	retailer := dbtest.SeedRetailer(t, conn, "Corner", "6", "0")
	dbtest.SeedOrder(t, conn, retailer.ID, product, 2)

	// Hide the reference from the pre-check so the delete itself hits the key.
	svc, err := NewService(zeroRefs{NewRepository(conn)})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, product.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

type zeroRefs struct{ Repository }

func (zeroRefs) CountOrderLines(context.Context, uuid.UUID) (int64, error) { return 0, nil }
