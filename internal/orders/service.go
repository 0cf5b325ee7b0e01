package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/agency-ledger/internal/catalog"
	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/lock"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/metrics"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

const opUpsertOrder = "upsert_order"

// Service merges line submissions into the single order per
// (retailer, date, shift).
type Service interface {
	UpsertOrder(ctx context.Context, input UpsertOrderInput) (*UpsertResult, error)
}

// ServiceParams groups the aggregator dependencies.
type ServiceParams struct {
	Repo            Repository
	TX              txRunner
	Catalog         productResolver
	Ledger          dueWriter
	Locker          lock.KeyLocker
	ConflictRetries int
	Logger          *logger.Logger
	Metrics         *metrics.LedgerMetrics
	Clock           func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog productResolver
	ledger  dueWriter
	locker  lock.KeyLocker
	retries int
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService wires the order aggregator.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.ConflictRetries < 0 || params.ConflictRetries > config.MaxOrderConflictRetries {
		return nil, fmt.Errorf("conflict retries must be 0 or %d", config.MaxOrderConflictRetries)
	}
	locker := params.Locker
	if locker == nil {
		locker = lock.Nop{}
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
		catalog: params.Catalog,
		ledger:  params.Ledger,
		locker:  locker,
		retries: params.ConflictRetries,
		logg:    logg,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) UpsertOrder(ctx context.Context, input UpsertOrderInput) (result *UpsertResult, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(opUpsertOrder, time.Since(start), err) }()

	if input.RetailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}
	if input.OrderDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order date is required")
	}
	if !input.Shift.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shift must be AM or PM")
	}
	deltas, err := collapseDeltas(input.Lines)
	if err != nil {
		return nil, err
	}

	// retailer precondition is reported before any product problem
	exists, err := s.repo.RetailerExists(ctx, input.RetailerID)
	if err != nil {
		return nil, db.TranslateError(err, "check retailer")
	}
	if !exists {
		return nil, retailerNotFound(input.RetailerID)
	}

	ids := make([]uuid.UUID, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.ProductID)
	}
	products, err := s.catalog.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	var unavailable []string
	for _, id := range ids {
		if !products[id].Orderable() {
			unavailable = append(unavailable, id.String())
		}
	}
	if len(unavailable) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products are not available for ordering").
			WithDetails(map[string]any{"unavailable_product_ids": unavailable})
	}

	orderDate := types.TruncateDate(input.OrderDate)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"retailer_id": input.RetailerID.String(),
		"order_date":  orderDate.Format(types.DateLayout),
		"shift":       input.Shift.String(),
	})

	unlock, err := s.locker.Lock(ctx, orderKey(input.RetailerID, orderDate, input.Shift.String()))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order is being updated, try again")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "acquire order lock")
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		result, err = s.upsertOnce(ctx, input, orderDate, deltas, products)
		if err == nil || !pkgerrors.IsCode(err, pkgerrors.CodeConflict) || attempt >= s.retries {
			break
		}
		s.metrics.IncConflictRetry()
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt+1), "orders.upsert.conflict_retry")
	}
	if err != nil {
		code := pkgerrors.CodeOf(err)
		if code == pkgerrors.CodeInternal || code == pkgerrors.CodeUnavailable {
			s.logg.Error(ctx, "orders.upsert.failed", err)
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "code", string(code)), "orders.upsert.rejected")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, result.Order.ID.String()), map[string]any{
		"created":   result.Created,
		"due_delta": result.DueDelta.StringFixed(2),
		"total":     result.Order.TotalAmount.StringFixed(2),
	}), "orders.upsert.committed")
	return result, nil
}

// upsertOnce runs one find-or-create and merge as a single transaction.
func (s *service) upsertOnce(ctx context.Context, input UpsertOrderInput, orderDate time.Time, deltas []LineDelta, products map[uuid.UUID]catalog.PriceSnapshot) (*UpsertResult, error) {
	var result *UpsertResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.LockRetailer(ctx, input.RetailerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return retailerNotFound(input.RetailerID)
			}
			return err
		}

		order, err := repo.FindByKey(ctx, input.RetailerID, orderDate, input.Shift.IsAM())
		if err != nil {
			return err
		}
		created := false
		if order == nil {
			order = &models.Order{
				RetailerID:  input.RetailerID,
				OrderDate:   orderDate,
				OrderShift:  input.Shift.IsAM(),
				OrderTime:   s.now().UTC(),
				TotalAmount: decimal.Zero,
				CostAmount:  decimal.Zero,
			}
			if err := repo.CreateOrder(ctx, order); err != nil {
				return conflictOr(err, "order already exists for retailer, date and shift")
			}
			created = true
		}
		before := order.TotalAmount

		existing, err := repo.FindLines(ctx, order.ID)
		if err != nil {
			return err
		}
		byProduct := make(map[uuid.UUID]*models.OrderLine, len(existing))
		for i := range existing {
			byProduct[existing[i].ProductID] = &existing[i]
		}

		for _, d := range deltas {
			if line, ok := byProduct[d.ProductID]; ok {
				if line.Quantity > maxLineQuantity-d.Quantity {
					return quantityTooLarge(d.ProductID)
				}
				line.Quantity += d.Quantity
				priceLine(line)
				if err := checkLineFits(line); err != nil {
					return err
				}
				if err := repo.UpdateLine(ctx, line.ID, line.Quantity, line.Subtotal, line.CostSubtotal); err != nil {
					return err
				}
				continue
			}
			snap := products[d.ProductID]
			line := &models.OrderLine{
				OrderID:   order.ID,
				ProductID: d.ProductID,
				Quantity:  d.Quantity,
				UnitPrice: snap.UnitPrice,
				UnitCost:  snap.UnitCost,
			}
			priceLine(line)
			if err := checkLineFits(line); err != nil {
				return err
			}
			if err := repo.CreateLine(ctx, line); err != nil {
				return conflictOr(err, "order line already exists")
			}
		}

		lines, err := repo.FindLines(ctx, order.ID)
		if err != nil {
			return err
		}
		total, cost := sumLines(lines)
		if !models.MoneyFits(total) {
			return moneyOverflow("total_amount", uuid.Nil)
		}
		if !models.MoneyFits(cost) {
			return moneyOverflow("cost_amount", uuid.Nil)
		}
		if err := repo.UpdateTotals(ctx, order.ID, total, cost); err != nil {
			return err
		}

		delta := total.Sub(before)
		if _, err := s.ledger.IncreaseDue(ctx, tx, input.RetailerID, delta); err != nil {
			return err
		}

		full, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		result = &UpsertResult{
			Order:    FromModel(*full),
			Created:  created,
			DueDelta: delta,
		}
		return nil
	})
	if err != nil {
		return nil, db.TranslateError(err, "upsert order")
	}
	return result, nil
}

func retailerNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found").
		WithDetails(map[string]any{"retailer_id": id.String()})
}

func conflictOr(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	}
	return err
}

func orderKey(retailerID uuid.UUID, orderDate time.Time, shift string) string {
	return fmt.Sprintf("order:%s:%s:%s", retailerID, orderDate.Format(types.DateLayout), shift)
}
