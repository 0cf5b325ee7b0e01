package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/metrics"
	"github.com/angelmondragon/agency-ledger/pkg/pagination"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newLedger(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		TX:      client,
		Metrics: metrics.NewLedgerMetrics(prometheus.NewRegistry()),
		Clock:   func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, conn
}

func cash(retailerID uuid.UUID, amount string) PaymentInput {
	return PaymentInput{
		RetailerID: retailerID,
		Amount:     decimal.RequireFromString(amount),
		ReceivedBy: "counter",
	}
}

func countPayments(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(nil)})
	require.Error(t, err)
}

func TestRecordPaymentExcessBecomesAdvance(t *testing.T) {
	svc, conn := newLedger(t)
	retailer := dbtest.SeedRetailer(t, conn, "Corner Store", "100", "0")

	payment, err := svc.RecordPayment(context.Background(), cash(retailer.ID, "150"))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentKindCash, payment.Kind)
	assert.Equal(t, "2025-03-14", payment.PaymentDate.String())
	require.NotNil(t, payment.Balance)

	got := dbtest.ReloadRetailer(t, conn, retailer.ID)
	dbtest.RequireDecimal(t, "0", got.DueAmount, "due")
	dbtest.RequireDecimal(t, "50", got.Advance, "advance")
	assert.EqualValues(t, 1, countPayments(t, conn))
}

func TestRecordPaymentExactDueKeepsAdvance(t *testing.T) {
	svc, conn := newLedger(t)
	retailer := dbtest.SeedRetailer(t, conn, "Exact", "75.50", "12")

	_, err := svc.RecordPayment(context.Background(), cash(retailer.ID, "75.50"))
	require.NoError(t, err)

	got := dbtest.ReloadRetailer(t, conn, retailer.ID)
	dbtest.RequireDecimal(t, "0", got.DueAmount, "due")
	dbtest.RequireDecimal(t, "12", got.Advance, "advance")
}

func TestRecordPaymentRejections(t *testing.T) {
	svc, conn := newLedger(t)
	retailer := dbtest.SeedRetailer(t, conn, "Rejects", "10", "0")
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, cash(retailer.ID, "0"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RecordPayment(ctx, cash(retailer.ID, "-5"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RecordPayment(ctx, cash(retailer.ID, "1.005"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RecordPayment(ctx, cash(uuid.New(), "5"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.EqualValues(t, 0, countPayments(t, conn))
}

func TestDrawFromAdvance(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient advance below amount", func(t *testing.T) {
		svc, conn := newLedger(t)
		retailer := dbtest.SeedRetailer(t, conn, "Short", "50", "20")

		_, err := svc.DrawFromAdvance(ctx, cash(retailer.ID, "30"))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientAdvance), "got %v", err)

		got := dbtest.ReloadRetailer(t, conn, retailer.ID)
		dbtest.RequireDecimal(t, "50", got.DueAmount, "due")
		dbtest.RequireDecimal(t, "20", got.Advance, "advance")
		assert.EqualValues(t, 0, countPayments(t, conn))
	})

	t.Run("no outstanding due", func(t *testing.T) {
		svc, conn := newLedger(t)
		retailer := dbtest.SeedRetailer(t, conn, "Clear", "0", "40")
		_, err := svc.DrawFromAdvance(ctx, cash(retailer.ID, "10"))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNoOutstandingDue))
	})

	t.Run("amount exceeds due", func(t *testing.T) {
		svc, conn := newLedger(t)
		retailer := dbtest.SeedRetailer(t, conn, "Over", "10", "40")
		_, err := svc.DrawFromAdvance(ctx, cash(retailer.ID, "11"))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAmountExceedsDue))
	})

	t.Run("validation before lookup", func(t *testing.T) {
		svc, _ := newLedger(t)
		_, err := svc.DrawFromAdvance(ctx, cash(uuid.New(), "0"))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		_, err = svc.DrawFromAdvance(ctx, cash(uuid.New(), "1"))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("success consumes both sides", func(t *testing.T) {
		svc, conn := newLedger(t)
		retailer := dbtest.SeedRetailer(t, conn, "Draw", "50", "30")

		payment, err := svc.DrawFromAdvance(ctx, cash(retailer.ID, "30"))
		require.NoError(t, err)
		assert.Equal(t, enums.PaymentKindAdvanceDraw, payment.Kind)

		got := dbtest.ReloadRetailer(t, conn, retailer.ID)
		dbtest.RequireDecimal(t, "20", got.DueAmount, "due")
		dbtest.RequireDecimal(t, "0", got.Advance, "advance")
	})
}

func TestBatchRecordPaymentsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid amount rejects whole batch", func(t *testing.T) {
		svc, conn := newLedger(t)
		a := dbtest.SeedRetailer(t, conn, "A", "100", "0")
		b := dbtest.SeedRetailer(t, conn, "B", "20", "0")

		_, err := svc.BatchRecordPayments(ctx, []PaymentInput{
			cash(a.ID, "10"),
			cash(b.ID, "5"),
			cash(a.ID, "0"),
			cash(b.ID, "1"),
		})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		details, ok := pkgerrors.As(err).Details().(map[string]any)
		require.True(t, ok)
		invalid, ok := details["invalid_payments"].([]map[string]any)
		require.True(t, ok)
		require.Len(t, invalid, 1)
		assert.Equal(t, 2, invalid[0]["index"])

		assert.EqualValues(t, 0, countPayments(t, conn))
		dbtest.RequireDecimal(t, "100", dbtest.ReloadRetailer(t, conn, a.ID).DueAmount, "a due")
		dbtest.RequireDecimal(t, "20", dbtest.ReloadRetailer(t, conn, b.ID).DueAmount, "b due")
	})

	t.Run("missing retailer rolls back earlier rows", func(t *testing.T) {
		svc, conn := newLedger(t)
		a := dbtest.SeedRetailer(t, conn, "A", "100", "0")

		_, err := svc.BatchRecordPayments(ctx, []PaymentInput{
			cash(a.ID, "10"),
			cash(uuid.New(), "5"),
		})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
		assert.EqualValues(t, 0, countPayments(t, conn))
		dbtest.RequireDecimal(t, "100", dbtest.ReloadRetailer(t, conn, a.ID).DueAmount, "a due")
	})

	t.Run("empty batch", func(t *testing.T) {
		svc, _ := newLedger(t)
		_, err := svc.BatchRecordPayments(ctx, nil)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})

	t.Run("same retailer twice sees running balance", func(t *testing.T) {
		svc, conn := newLedger(t)
		a := dbtest.SeedRetailer(t, conn, "A", "30", "0")

		out, err := svc.BatchRecordPayments(ctx, []PaymentInput{
			cash(a.ID, "20"),
			cash(a.ID, "20"),
		})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.EqualValues(t, 2, countPayments(t, conn))

		got := dbtest.ReloadRetailer(t, conn, a.ID)
		dbtest.RequireDecimal(t, "0", got.DueAmount, "due")
		dbtest.RequireDecimal(t, "10", got.Advance, "advance")
	})
}

func TestIncreaseDue(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), TX: client})
	require.NoError(t, err)
	retailer := dbtest.SeedRetailer(t, conn, "Due", "10", "5")
	ctx := context.Background()

	_, err = svc.IncreaseDue(ctx, nil, retailer.ID, decimal.NewFromInt(1))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := svc.IncreaseDue(ctx, tx, retailer.ID, decimal.RequireFromString("2.50"))
		if err != nil {
			return err
		}
		assert.True(t, b.Due.Equal(decimal.RequireFromString("12.50")))
		return nil
	})
	require.NoError(t, err)
	dbtest.RequireDecimal(t, "12.50", dbtest.ReloadRetailer(t, conn, retailer.ID).DueAmount, "due")

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.IncreaseDue(ctx, tx, retailer.ID, decimal.NewFromInt(-20))
		return err
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	dbtest.RequireDecimal(t, "12.50", dbtest.ReloadRetailer(t, conn, retailer.ID).DueAmount, "due")
}

func TestRecordPaymentRejectsAmountsBeyondColumnRange(t *testing.T) {
	svc, conn := newLedger(t)
	ctx := context.Background()
	retailer := dbtest.SeedRetailer(t, conn, "Rich", "0", "9999999999.00")

	_, err := svc.RecordPayment(ctx, cash(retailer.ID, "10000000000"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.RecordPayment(ctx, cash(retailer.ID, "5"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.BatchRecordPayments(ctx, []PaymentInput{cash(retailer.ID, "0.49"), cash(retailer.ID, "0.50")})
	require.NoError(t, err)

	got := dbtest.ReloadRetailer(t, conn, retailer.ID)
	dbtest.RequireDecimal(t, "0", got.DueAmount, "due")
	dbtest.RequireDecimal(t, "9999999999.99", got.Advance, "advance")
	assert.EqualValues(t, 2, countPayments(t, conn))
}

func TestConcurrentPaymentsSerializeOnRetailer(t *testing.T) {
	svc, conn := newLedger(t)
	retailer := dbtest.SeedRetailer(t, conn, "Busy", "50", "0")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, cash(retailer.ID, "10"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := dbtest.ReloadRetailer(t, conn, retailer.ID)
	dbtest.RequireDecimal(t, "0", got.DueAmount, "due")
	dbtest.RequireDecimal(t, "50", got.Advance, "advance")
	assert.EqualValues(t, 10, countPayments(t, conn))
}

func TestListPaymentsAndBalance(t *testing.T) {
	svc, conn := newLedger(t)
	a := dbtest.SeedRetailer(t, conn, "A", "0", "0")
	b := dbtest.SeedRetailer(t, conn, "B", "0", "0")
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.Create(&models.Payment{
			RetailerID:  a.ID,
			Kind:        enums.PaymentKindCash,
			Amount:      decimal.NewFromInt(int64(i + 1)),
			PaymentDate: base,
			ReceivedBy:  "counter",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, conn.Create(&models.Payment{
		RetailerID:  b.ID,
		Kind:        enums.PaymentKindCash,
		Amount:      decimal.NewFromInt(9),
		PaymentDate: base,
		ReceivedBy:  "counter",
		CreatedAt:   base.Add(time.Hour),
	}).Error)

	page, err := svc.ListPayments(ctx, ListPaymentsInput{
		RetailerID: &a.ID,
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "A", page.Items[0].ShopName)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.ListPayments(ctx, ListPaymentsInput{
		RetailerID: &a.ID,
		Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.True(t, next.Items[0].Amount.Equal(decimal.NewFromInt(1)))
	assert.Empty(t, next.NextCursor)

	all, err := svc.ListPayments(ctx, ListPaymentsInput{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)

	_, err = svc.ListPayments(ctx, ListPaymentsInput{Pagination: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	balance, err := svc.GetBalance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", balance.ShopName)
	assert.True(t, balance.Due.IsZero())

	_, err = svc.GetBalance(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
