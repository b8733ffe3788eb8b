// Package claims provides the application service tying the underpayment
// intelligence engine to storage, caching and instrumentation.  Callers
// (CLI, worker) talk to this layer rather than to the engine directly.
package claims

import (
	"context"
	"strings"
	"time"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/redis"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// Analysis kinds, used as metric label values.
const (
	kindItem  = "item"
	kindBatch = "batch"
	kindClaim = "claim"
)

// Service is the claim-analysis application interface.
type Service interface {
	// AnalyzeItem scores one line item against the carrier's known
	// patterns.  A nil insight with a nil error means no pattern matched.
	AnalyzeItem(ctx context.Context, carrierName, itemDescription string) (*underpay.CarrierInsight, error)

	// AnalyzeItems scores a batch of line items; the result is index
	// aligned with items and holds nil for non-matches.
	AnalyzeItems(ctx context.Context, carrierName string, items []string) ([]*underpay.CarrierInsight, error)

	// AssessClaim folds per-item insights into a claim-level verdict.
	AssessClaim(ctx context.Context, carrierName string, items []string) (*underpay.ClaimAssessment, error)

	// RecordAuditOutcome folds one completed audit into the pattern store.
	RecordAuditOutcome(ctx context.Context, outcome *underpay.AuditOutcome) (*underpay.TrendUpdate, error)

	// CarrierStatistics rolls up one carrier's pattern history.
	CarrierStatistics(ctx context.Context, carrierName string) (*carrier.Stats, error)

	// PortfolioStatistics ranks every known carrier by risk.
	PortfolioStatistics(ctx context.Context) (*carrier.PortfolioStats, error)

	// SelfTest runs the built-in verification battery.
	SelfTest(ctx context.Context) (*underpay.SelfTestReport, error)
}

// Option configures the service.
type Option func(*options)

type options struct {
	cache        redis.Cache
	cacheTTL     time.Duration
	metrics      *prometheus.Metrics
	analyzerOpts []underpay.AnalyzerOption
}

// WithCache enables cache-aside reads of per-carrier pattern sets.
func WithCache(cache redis.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = cache
		o.cacheTTL = ttl
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAnalyzerOptions forwards tunables to the underlying analyzer.
func WithAnalyzerOptions(opts ...underpay.AnalyzerOption) Option {
	return func(o *options) { o.analyzerOpts = append(o.analyzerOpts, opts...) }
}

type service struct {
	repo     carrier.PatternRepository
	analyzer underpay.Analyzer
	updater  *underpay.TrendUpdater
	metrics  *prometheus.Metrics
	log      logging.Logger
}

// NewService wires the engine against repo.  When a cache is configured the
// per-carrier pattern reads feeding the analyzer go through it, and every
// write invalidates the affected carrier's entry.
func NewService(repo carrier.PatternRepository, log logging.Logger, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.ErrCodeValidation, "pattern repository is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	effective := repo
	if o.cache != nil {
		effective = newCachingRepository(repo, o.cache, o.cacheTTL, log, o.metrics)
	}

	analyzer, err := underpay.NewAnalyzer(effective, log, o.analyzerOpts...)
	if err != nil {
		return nil, err
	}
	updater, err := underpay.NewTrendUpdater(effective, log)
	if err != nil {
		return nil, err
	}

	return &service{
		repo:     effective,
		analyzer: analyzer,
		updater:  updater,
		metrics:  o.metrics,
		log:      log,
	}, nil
}

func (s *service) AnalyzeItem(ctx context.Context, carrierName, itemDescription string) (*underpay.CarrierInsight, error) {
	defer s.observeDuration(kindItem, time.Now())

	insight, err := s.analyzer.AnalyzeItem(ctx, carrierName, itemDescription)
	if err != nil {
		s.countRequest(kindItem, "error")
		return nil, err
	}
	s.countRequest(kindItem, "ok")
	s.countInsight(kindItem, insight)
	return insight, nil
}

func (s *service) AnalyzeItems(ctx context.Context, carrierName string, items []string) ([]*underpay.CarrierInsight, error) {
	defer s.observeDuration(kindBatch, time.Now())

	insights, err := s.analyzer.AnalyzeItems(ctx, carrierName, items)
	if err != nil {
		s.countRequest(kindBatch, "error")
		return nil, err
	}
	s.countRequest(kindBatch, "ok")
	for _, insight := range insights {
		s.countInsight(kindBatch, insight)
	}
	return insights, nil
}

func (s *service) AssessClaim(ctx context.Context, carrierName string, items []string) (*underpay.ClaimAssessment, error) {
	defer s.observeDuration(kindClaim, time.Now())

	assessment, err := s.analyzer.AssessClaim(ctx, carrierName, items)
	if err != nil {
		s.countRequest(kindClaim, "error")
		return nil, err
	}
	s.countRequest(kindClaim, "ok")
	if s.metrics != nil {
		s.metrics.ClaimRiskTotal.WithLabelValues(assessment.OverallRisk.String()).Inc()
	}
	return assessment, nil
}

func (s *service) RecordAuditOutcome(ctx context.Context, outcome *underpay.AuditOutcome) (*underpay.TrendUpdate, error) {
	update, err := s.updater.Record(ctx, outcome)
	if err != nil {
		status := "error"
		if errors.IsCode(err, errors.ErrCodeInvalidAuditInput) {
			status = "invalid"
		}
		s.countTrendUpdate(status)
		return nil, err
	}
	s.countTrendUpdate("ok")
	if update.Created && s.metrics != nil {
		s.metrics.PatternsCreated.Inc()
	}
	return update, nil
}

func (s *service) CarrierStatistics(ctx context.Context, carrierName string) (*carrier.Stats, error) {
	if strings.TrimSpace(carrierName) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "carrier name is required")
	}
	patterns, err := s.repo.GetByCarrier(ctx, carrierName)
	if err != nil {
		s.countRepositoryFailure("get_by_carrier")
		return nil, err
	}
	return carrier.ComputeStats(carrierName, patterns), nil
}

func (s *service) PortfolioStatistics(ctx context.Context) (*carrier.PortfolioStats, error) {
	names, err := s.repo.ListCarriers(ctx)
	if err != nil {
		s.countRepositoryFailure("list_carriers")
		return nil, err
	}

	byCarrier := make(map[string][]*carrier.CarrierPattern, len(names))
	for _, name := range names {
		patterns, err := s.repo.GetByCarrier(ctx, name)
		if err != nil {
			s.countRepositoryFailure("get_by_carrier")
			return nil, err
		}
		byCarrier[name] = patterns
	}
	return carrier.ComputePortfolioStats(byCarrier), nil
}

func (s *service) SelfTest(ctx context.Context) (*underpay.SelfTestReport, error) {
	report := underpay.SelfTest(ctx, s.repo, s.log)
	if s.metrics != nil {
		s.metrics.SelfTestFailures.Set(float64(report.Failed))
	}
	return report, nil
}

func (s *service) observeDuration(kind string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (s *service) countRequest(kind, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysisRequestsTotal.WithLabelValues(kind, status).Inc()
}

func (s *service) countInsight(kind string, insight *underpay.CarrierInsight) {
	if s.metrics == nil {
		return
	}
	if insight == nil {
		s.metrics.NoMatchTotal.WithLabelValues(kind).Inc()
		return
	}
	s.metrics.InsightsTotal.WithLabelValues(insight.Severity.String()).Inc()
}

func (s *service) countTrendUpdate(status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.TrendUpdatesTotal.WithLabelValues(status).Inc()
}

func (s *service) countRepositoryFailure(operation string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RepositoryFailures.WithLabelValues(operation).Inc()
}
