package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/metrics"
	"github.com/angelmondragon/agency-ledger/pkg/pagination"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

const (
	opRecordPayment   = "record_payment"
	opDrawFromAdvance = "draw_from_advance"
	opBatchPayments   = "batch_record_payments"
	opIncreaseDue     = "increase_due"
)

// Service is the only writer of retailer balances.
type Service interface {
	RecordPayment(ctx context.Context, input PaymentInput) (*PaymentDTO, error)
	DrawFromAdvance(ctx context.Context, input PaymentInput) (*PaymentDTO, error)
	BatchRecordPayments(ctx context.Context, inputs []PaymentInput) ([]PaymentDTO, error)
	// IncreaseDue adds delta to the retailer's due inside the caller's
	// transaction. tx must not be nil.
	IncreaseDue(ctx context.Context, tx *gorm.DB, retailerID uuid.UUID, delta decimal.Decimal) (*Balance, error)
	ListPayments(ctx context.Context, input ListPaymentsInput) (*pagination.Page[PaymentDTO], error)
	GetBalance(ctx context.Context, retailerID uuid.UUID) (*BalanceDTO, error)
}

// ServiceParams groups the settlement engine dependencies.
type ServiceParams struct {
	Repo    Repository
	TX      txRunner
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
	Clock   func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService wires the settlement engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.TX,
		logg:    logg,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) RecordPayment(ctx context.Context, input PaymentInput) (dto *PaymentDTO, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(opRecordPayment, time.Since(start), err) }()

	if err := validatePaymentInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithRetailerID(ctx, input.RetailerID.String())

	var created *PaymentDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.settleCash(ctx, s.repo.WithTx(tx), input)
		return txErr
	})
	if err != nil {
		s.logOutcome(ctx, "ledger.record_payment.failed", err)
		return nil, db.TranslateError(err, "record payment")
	}

	s.metrics.AddSettled(string(enums.PaymentKindCash), created.Amount)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_id": created.ID.String(),
		"amount":     created.Amount.StringFixed(2),
	}), "ledger.payment.recorded")
	return created, nil
}

func (s *service) DrawFromAdvance(ctx context.Context, input PaymentInput) (dto *PaymentDTO, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(opDrawFromAdvance, time.Since(start), err) }()

	if err := validatePaymentInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithRetailerID(ctx, input.RetailerID.String())

	var created *PaymentDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		retailer, err := lockRetailer(ctx, repo, input.RetailerID)
		if err != nil {
			return err
		}

		next, err := applyAdvanceDraw(balanceOf(retailer), input.Amount)
		if err != nil {
			return err
		}
		created, err = s.persist(ctx, repo, retailer, next, enums.PaymentKindAdvanceDraw, input)
		return err
	})
	if err != nil {
		s.logOutcome(ctx, "ledger.advance_draw.failed", err)
		return nil, db.TranslateError(err, "draw from advance")
	}

	s.metrics.AddSettled(string(enums.PaymentKindAdvanceDraw), created.Amount)
	s.logg.Info(s.logg.WithField(ctx, "payment_id", created.ID.String()), "ledger.advance_draw.recorded")
	return created, nil
}

// BatchRecordPayments applies every request in one transaction. Any invalid
// request aborts the whole batch.
func (s *service) BatchRecordPayments(ctx context.Context, inputs []PaymentInput) (out []PaymentDTO, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(opBatchPayments, time.Since(start), err) }()

	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one payment is required")
	}

	var validationErr error
	var invalid []map[string]any
	for i, input := range inputs {
		if err := validatePaymentInput(input); err != nil {
			validationErr = multierr.Append(validationErr, fmt.Errorf("payments[%d]: %w", i, err))
			invalid = append(invalid, map[string]any{
				"index":   i,
				"message": pkgerrors.As(err).Message(),
			})
		}
	}
	if validationErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, validationErr, "batch contains invalid payments").
			WithDetails(map[string]any{"invalid_payments": invalid})
	}

	results := make([]PaymentDTO, 0, len(inputs))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i, input := range inputs {
			created, err := s.settleCash(ctx, repo, input)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, typed.Message()).
						WithDetails(map[string]any{"index": i, "retailer_id": input.RetailerID.String()})
				}
				return err
			}
			results = append(results, *created)
		}
		return nil
	})
	if err != nil {
		s.logOutcome(ctx, "ledger.batch_payments.failed", err)
		return nil, db.TranslateError(err, "batch record payments")
	}

	total := decimal.Zero
	for _, p := range results {
		total = total.Add(p.Amount)
	}
	s.metrics.AddSettled(string(enums.PaymentKindCash), total)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"count":  len(results),
		"amount": total.StringFixed(2),
	}), "ledger.batch_payments.recorded")
	return results, nil
}

func (s *service) IncreaseDue(ctx context.Context, tx *gorm.DB, retailerID uuid.UUID, delta decimal.Decimal) (bal *Balance, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(opIncreaseDue, time.Since(start), err) }()

	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "increase due requires a transaction")
	}
	repo := s.repo.WithTx(tx)
	retailer, err := lockRetailer(ctx, repo, retailerID)
	if err != nil {
		return nil, err
	}
	current := balanceOf(retailer)
	if delta.IsZero() {
		return &current, nil
	}

	next, err := applyDueDelta(current, delta)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
			s.logg.Error(s.logg.WithRetailerID(ctx, retailerID.String()), "ledger.increase_due.invariant", err)
		}
		return nil, err
	}
	if err := repo.UpdateBalances(ctx, retailerID, next.Due, next.Advance); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *service) ListPayments(ctx context.Context, input ListPaymentsInput) (*pagination.Page[PaymentDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListPayments(ctx, input.RetailerID, limit+1, cursor)
	if err != nil {
		return nil, db.TranslateError(err, "list payments")
	}

	page := &pagination.Page[PaymentDTO]{Items: make([]PaymentDTO, 0, limit)}
	if len(rows) > limit {
		last := rows[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Items = append(page.Items, paymentFromModel(row))
	}
	return page, nil
}

func (s *service) GetBalance(ctx context.Context, retailerID uuid.UUID) (*BalanceDTO, error) {
	retailer, err := s.repo.FindRetailer(ctx, retailerID)
	if err != nil {
		return nil, translateRetailerErr(err, retailerID)
	}
	return &BalanceDTO{
		RetailerID: retailer.ID,
		ShopName:   retailer.ShopName,
		Balance:    balanceOf(retailer),
	}, nil
}

func (s *service) settleCash(ctx context.Context, repo Repository, input PaymentInput) (*PaymentDTO, error) {
	retailer, err := lockRetailer(ctx, repo, input.RetailerID)
	if err != nil {
		return nil, err
	}
	next := applyPayment(balanceOf(retailer), input.Amount)
	return s.persist(ctx, repo, retailer, next, enums.PaymentKindCash, input)
}

// persist writes the new balance and appends the payment row on the same
// transaction-bound repository.
func (s *service) persist(ctx context.Context, repo Repository, retailer *models.Retailer, next Balance, kind enums.PaymentKind, input PaymentInput) (*PaymentDTO, error) {
	if !next.NonNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "balance would become negative")
	}
	if !next.Storable() {
		return nil, balanceTooLarge(next)
	}
	if err := repo.UpdateBalances(ctx, retailer.ID, next.Due, next.Advance); err != nil {
		return nil, err
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	payment := &models.Payment{
		RetailerID:  retailer.ID,
		Kind:        kind,
		Amount:      input.Amount,
		PaymentDate: types.TruncateDate(paymentDate),
		ReceivedBy:  strings.TrimSpace(input.ReceivedBy),
		CreatedAt:   s.now().UTC(),
	}
	if err := repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	payment.Retailer = retailer
	dto := paymentFromModel(*payment)
	dto.Balance = &next
	return &dto, nil
}

func (s *service) logOutcome(ctx context.Context, msg string, err error) {
	code := pkgerrors.CodeOf(err)
	if code == pkgerrors.CodeInternal || code == pkgerrors.CodeUnavailable {
		s.logg.Error(ctx, msg, err)
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "code", string(code)), msg)
}

func validatePaymentInput(input PaymentInput) error {
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must have at most two decimal places")
	}
	if !models.MoneyFits(input.Amount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount is too large").
			WithDetails(map[string]any{"max": models.MaxMoney.StringFixed(2)})
	}
	if input.RetailerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}
	if strings.TrimSpace(input.ReceivedBy) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "received_by is required")
	}
	return nil
}

func lockRetailer(ctx context.Context, repo Repository, id uuid.UUID) (*models.Retailer, error) {
	retailer, err := repo.LockRetailer(ctx, id)
	if err != nil {
		return nil, translateRetailerErr(err, id)
	}
	return retailer, nil
}

func translateRetailerErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found").
			WithDetails(map[string]any{"retailer_id": id.String()})
	}
	return db.TranslateError(err, "load retailer")
}

func balanceOf(r *models.Retailer) Balance {
	return Balance{Due: r.DueAmount, Advance: r.Advance}
}
