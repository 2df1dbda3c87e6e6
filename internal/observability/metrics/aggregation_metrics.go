package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	ledgerdomain "github.com/smallbiznis/civicdash/internal/ledger/domain"
	"github.com/smallbiznis/civicdash/pkg/db"
)

const (
	PassRevenue   = "revenue"
	PassLifecycle = "lifecycle"
	PassAverages  = "product_averages"
)

const (
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonCanceled         = "canceled"
	ReasonUpstream         = "upstream"
	ReasonDBLockTimeout    = "db_lock_timeout"
	ReasonDB               = "db"
	ReasonUnknown          = "unknown"
)

const (
	SkipNoSubscription = "no_subscription"
	SkipNoLineItem     = "no_line_item"
	SkipNoProduct      = "no_product"
	SkipOutsideWindow  = "outside_window"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AggregationMetrics captures membership report health on the Prometheus registry.
type AggregationMetrics struct {
	runs           *prometheus.CounterVec
	duration       prometheus.Histogram
	passDuration   *prometheus.HistogramVec
	passErrors     *prometheus.CounterVec
	ledgerPages    *prometheus.CounterVec
	skippedRecords *prometheus.CounterVec
}

var (
	aggregationMetricsOnce sync.Once
	aggregationMetrics     *AggregationMetrics
)

// AggregationWithConfig returns the singleton aggregation metrics registry using config labels.
func AggregationWithConfig(cfg Config) *AggregationMetrics {
	aggregationMetricsOnce.Do(func() {
		aggregationMetrics = NewAggregationMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return aggregationMetrics
}

// NewAggregationMetrics builds a registry-bound instance; tests pass a private registry.
func NewAggregationMetrics(registerer prometheus.Registerer, cfg Config) *AggregationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "civicdash"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &AggregationMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "civicdash_membership_report_runs_total",
			Help:        "Membership report aggregations by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "civicdash_membership_report_duration_seconds",
			Help:        "End-to-end membership report latency.",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			ConstLabels: constLabels,
		}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "civicdash_membership_report_pass_duration_seconds",
			Help:        "Latency of each aggregation pass.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			ConstLabels: constLabels,
		}, []string{"pass"}),
		passErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "civicdash_membership_report_pass_errors_total",
			Help:        "Aggregation pass failures by low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"pass", "reason"}),
		ledgerPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "civicdash_ledger_pages_total",
			Help:        "Payment ledger pages fetched per pass.",
			ConstLabels: constLabels,
		}, []string{"pass"}),
		skippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "civicdash_ledger_records_skipped_total",
			Help:        "Payment records excluded from aggregation by reason.",
			ConstLabels: constLabels,
		}, []string{"pass", "reason"}),
	}

	registerer.MustRegister(
		m.runs,
		m.duration,
		m.passDuration,
		m.passErrors,
		m.ledgerPages,
		m.skippedRecords,
	)
	return m
}

func (m *AggregationMetrics) ObserveRun(duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}

func (m *AggregationMetrics) ObservePass(pass string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(pass).Observe(duration.Seconds())
	if err != nil {
		m.passErrors.WithLabelValues(pass, ClassifyReason(err)).Inc()
	}
}

func (m *AggregationMetrics) IncLedgerPage(pass string) {
	if m == nil {
		return
	}
	m.ledgerPages.WithLabelValues(pass).Inc()
}

func (m *AggregationMetrics) IncSkipped(pass, reason string) {
	if m == nil {
		return
	}
	m.skippedRecords.WithLabelValues(pass, reason).Inc()
}

// ClassifyReason maps aggregation errors to low-cardinality reasons.
func ClassifyReason(err error) string {
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ledgerdomain.ErrUpstream):
		return ReasonUpstream
	case db.IsLockTimeoutErr(err):
		return ReasonDBLockTimeout
	case db.IsDatabaseErr(err):
		return ReasonDB
	default:
		return ReasonUnknown
	}
}
