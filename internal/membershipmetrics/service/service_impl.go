package service

import (
	"context"
	"time"

	"github.com/smallbiznis/civicdash/internal/catalog"
	"github.com/smallbiznis/civicdash/internal/clock"
	"github.com/smallbiznis/civicdash/internal/config"
	ledgerdomain "github.com/smallbiznis/civicdash/internal/ledger/domain"
	membershipdomain "github.com/smallbiznis/civicdash/internal/membership/domain"
	"github.com/smallbiznis/civicdash/internal/membershipmetrics/domain"
	"github.com/smallbiznis/civicdash/internal/observability/logger"
	"github.com/smallbiznis/civicdash/internal/observability/metrics"
	"github.com/smallbiznis/civicdash/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB `optional:"true"`
	Log         *zap.Logger
	Clock       clock.Clock
	Config      config.Config
	Ledger      ledgerdomain.Source
	Memberships membershipdomain.Repository
	Catalog     *catalog.Holder
	Metrics     *metrics.AggregationMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	loc         *time.Location
	ledger      ledgerdomain.Source
	memberships membershipdomain.Repository
	catalog     *catalog.Holder
	metrics     *metrics.AggregationMetrics
	tracer      trace.Tracer
}

func New(p Params) (domain.Service, error) {
	loc, err := p.Config.Dashboard.Location()
	if err != nil {
		return nil, err
	}
	holder := p.Catalog
	if holder == nil {
		holder = catalog.NewStaticHolder(catalog.Default())
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("membershipmetrics.service"),
		clock:       clk,
		loc:         loc,
		ledger:      p.Ledger,
		memberships: p.Memberships,
		catalog:     holder,
		metrics:     p.Metrics,
		tracer:      otel.Tracer("civicdash/membershipmetrics"),
	}, nil
}

// Aggregate builds the trailing twelve-month report. The three passes run
// concurrently; the first failure cancels the others and no partial report
// is returned.
func (s *Service) Aggregate(ctx context.Context) (domain.Report, error) {
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	ctx, span := s.tracer.Start(ctx, "membershipmetrics.Aggregate")
	defer span.End()

	started := time.Now()
	log := logger.WithContext(ctx, s.log)

	now := s.clock.Now()
	w := newWindow(now, s.loc)
	cat := s.catalog.Get()
	span.SetAttributes(
		attribute.String("window.start", w.start().Format(time.RFC3339)),
		attribute.String("window.end", w.end().Format(time.RFC3339)),
	)

	var (
		revenue   revenueTotals
		lifecycle lifecycleCounts
		averages  []domain.ProductMonthlyAverages
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.runPass(gctx, metrics.PassRevenue, func(ctx context.Context) error {
			var err error
			revenue, err = s.revenueByCategory(ctx, w, cat)
			return err
		})
	})
	g.Go(func() error {
		return s.runPass(gctx, metrics.PassLifecycle, func(ctx context.Context) error {
			var err error
			lifecycle, err = s.membershipLifecycle(ctx, w, now)
			return err
		})
	})
	g.Go(func() error {
		return s.runPass(gctx, metrics.PassAverages, func(ctx context.Context) error {
			var err error
			averages, err = s.productAverages(ctx, w.loc, cat)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		s.metrics.ObserveRun(time.Since(started), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("membership report failed",
			zap.String("reason", metrics.ClassifyReason(err)),
			zap.Error(err),
		)
		return domain.Report{}, err
	}

	report := domain.Report{
		Metrics:         compose(w, revenue, lifecycle),
		ProductAverages: averages,
	}

	s.metrics.ObserveRun(time.Since(started), nil)
	log.Info("membership report built",
		zap.String("window_start", w.buckets[0].key),
		zap.String("window_end", w.buckets[len(w.buckets)-1].key),
		zap.Int("products", len(averages)),
		zap.Duration("duration", time.Since(started)),
	)
	return report, nil
}

func (s *Service) runPass(ctx context.Context, pass string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "membershipmetrics."+pass)
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	s.metrics.ObservePass(pass, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &domain.AggregationError{Pass: pass, Err: err}
	}
	return nil
}

func (s *Service) skip(ctx context.Context, pass, reason, invoiceID string) {
	s.metrics.IncSkipped(pass, reason)
	if s.log.Core().Enabled(zap.DebugLevel) {
		logger.WithContext(ctx, s.log).Debug("ledger record skipped",
			zap.String("pass", pass),
			zap.String("reason", reason),
			zap.String("invoice_id", invoiceID),
		)
	}
}

func compose(w window, revenue revenueTotals, lifecycle lifecycleCounts) []domain.MonthlyMetric {
	out := make([]domain.MonthlyMetric, 0, len(w.buckets))
	for i, b := range w.buckets {
		metric := domain.MonthlyMetric{
			Month:      b.key,
			MonthLabel: b.label,
		}
		if i < len(revenue.membership) {
			metric.MembershipRevenue = toMajor(revenue.membership[i])
			metric.OtherRevenue = toMajor(revenue.other[i])
		}
		if i < len(lifecycle.created) {
			metric.NewMemberships = lifecycle.created[i]
			metric.Renewals = lifecycle.renewals[i]
			metric.Churns = lifecycle.churns[i]
		}
		out = append(out, metric)
	}
	return out
}

func toMajor(minor int64) float64 {
	return float64(minor) / 100
}
