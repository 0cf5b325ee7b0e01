package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
)

const outcomeOK = "ok"

// LedgerMetrics records order and settlement activity.
type LedgerMetrics struct {
	duration       *prometheus.HistogramVec
	outcomes       *prometheus.CounterVec
	conflictRetry  prometheus.Counter
	settledAmounts *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operation_total",
		Help: "Ledger operations by outcome (ok or error code).",
	}, []string{"operation", "outcome"})
	conflictRetry := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_order_conflict_retries_total",
		Help: "Order upserts retried after a unique key conflict.",
	})
	settledAmounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_settled_amount_total",
		Help: "Money moved by committed ledger operations, by kind.",
	}, []string{"kind"})
	reg.MustRegister(duration, outcomes, conflictRetry, settledAmounts)
	return &LedgerMetrics{
		duration:       duration,
		outcomes:       outcomes,
		conflictRetry:  conflictRetry,
		settledAmounts: settledAmounts,
	}
}

// Observe records the duration and outcome of one operation.
func (m *LedgerMetrics) Observe(operation string, elapsed time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.outcomes.WithLabelValues(op, outcomeLabel(err)).Inc()
}

// IncConflictRetry counts one internal retry after a duplicate order insert.
func (m *LedgerMetrics) IncConflictRetry() {
	if m == nil || m.conflictRetry == nil {
		return
	}
	m.conflictRetry.Inc()
}

// AddSettled adds a committed monetary amount under kind.
func (m *LedgerMetrics) AddSettled(kind string, amount decimal.Decimal) {
	if m == nil || m.settledAmounts == nil || !amount.IsPositive() {
		return
	}
	m.settledAmounts.WithLabelValues(normalizeLabel(kind)).Add(amount.InexactFloat64())
}

func outcomeLabel(err error) string {
	if err == nil {
		return outcomeOK
	}
	return strings.ToLower(string(pkgerrors.CodeOf(err)))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
