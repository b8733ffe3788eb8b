package underpay

import (
	"context"
	"math"
	"sync"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// CarrierInsight is the per-item, per-carrier analysis result.  It is
// request-scoped and never persisted by the engine; callers serialize it as
// needed.
type CarrierInsight struct {
	CarrierName         string `json:"carrier_name"`
	LineItemDescription string `json:"line_item_description"`

	Severity Severity `json:"severity"`

	// Variance is the matched pattern's signed underpayment rate.
	Variance float64 `json:"variance"`

	// UnderpaymentPct is the magnitude of the variance.
	UnderpaymentPct float64 `json:"underpayment_pct"`

	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`

	Confidence ConfidenceAssessment `json:"confidence"`
	SampleSize int                  `json:"sample_size"`

	MatchScore float64 `json:"match_score"`

	// Pattern references the matched pattern.  Nil never reaches callers:
	// a non-match yields a nil insight, not an insight without a pattern.
	Pattern *carrier.CarrierPattern `json:"pattern"`
}

// AnalyzerOptions holds tunables for an analysis run.
type AnalyzerOptions struct {
	// MatchThreshold is the minimum pattern score accepted as a match.
	MatchThreshold float64

	// MaxConcurrency caps parallel per-item analysis in batch mode.  Batch
	// matching only reads pattern state, so items are embarrassingly
	// parallel.
	MaxConcurrency int
}

// DefaultAnalyzerOptions returns production defaults.
func DefaultAnalyzerOptions() *AnalyzerOptions {
	return &AnalyzerOptions{
		MatchThreshold: DefaultMatchThreshold,
		MaxConcurrency: 8,
	}
}

// AnalyzerOption mutates AnalyzerOptions.
type AnalyzerOption func(*AnalyzerOptions)

// WithMatchThreshold overrides the match threshold; values outside (0,1] are
// ignored.
func WithMatchThreshold(threshold float64) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		if threshold > 0 && threshold <= 1 {
			o.MatchThreshold = threshold
		}
	}
}

// WithMaxConcurrency caps batch parallelism; non-positive values are ignored.
func WithMaxConcurrency(n int) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		if n > 0 {
			o.MaxConcurrency = n
		}
	}
}

func applyAnalyzerOptions(opts []AnalyzerOption) *AnalyzerOptions {
	o := DefaultAnalyzerOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Analyzer evaluates claim line items against a carrier's underpayment
// patterns.  All methods are read-only over pattern state and safe for
// concurrent use.
type Analyzer interface {
	// AnalyzeItem returns the insight for one line item, or (nil, nil) when
	// no pattern scores at or above the threshold.  A nil insight means "no
	// known pattern", not an error.
	AnalyzeItem(ctx context.Context, carrierName, itemDescription string) (*CarrierInsight, error)

	// AnalyzeItems analyzes a batch of line items for one carrier.  The
	// returned slice is index-aligned with items; entries are nil where no
	// pattern matched.
	AnalyzeItems(ctx context.Context, carrierName string, items []string) ([]*CarrierInsight, error)

	// AssessClaim analyzes all items and folds the matching insights into a
	// single claim-level risk assessment.
	AssessClaim(ctx context.Context, carrierName string, items []string) (*ClaimAssessment, error)
}

type analyzer struct {
	repo carrier.PatternRepository
	log  logging.Logger
	opts *AnalyzerOptions
}

// NewAnalyzer constructs an Analyzer over the given pattern repository.
func NewAnalyzer(repo carrier.PatternRepository, log logging.Logger, opts ...AnalyzerOption) (Analyzer, error) {
	if repo == nil {
		return nil, errors.InvalidInput("pattern repository is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &analyzer{
		repo: repo,
		log:  log.Named("underpay"),
		opts: applyAnalyzerOptions(opts),
	}, nil
}

func (a *analyzer) AnalyzeItem(ctx context.Context, carrierName, itemDescription string) (*CarrierInsight, error) {
	if carrierName == "" || itemDescription == "" {
		a.log.Warn("rejecting analysis request with empty input",
			logging.String("carrier", carrierName),
			logging.String("item", itemDescription))
		return nil, errors.InvalidInput("carrier name and item description are required")
	}

	patterns, err := a.repo.GetByCarrier(ctx, carrierName)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading carrier patterns")
	}
	return a.analyzeAgainst(carrierName, itemDescription, patterns), nil
}

func (a *analyzer) AnalyzeItems(ctx context.Context, carrierName string, items []string) ([]*CarrierInsight, error) {
	if carrierName == "" {
		return nil, errors.InvalidInput("carrier name is required")
	}
	if len(items) == 0 {
		return []*CarrierInsight{}, nil
	}

	// One repository read serves the whole batch; per-item work is pure.
	patterns, err := a.repo.GetByCarrier(ctx, carrierName)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading carrier patterns")
	}

	insights := make([]*CarrierInsight, len(items))
	sem := make(chan struct{}, a.opts.MaxConcurrency)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, desc string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			insights[idx] = a.analyzeAgainst(carrierName, desc, patterns)
		}(i, item)
	}
	wg.Wait()
	return insights, nil
}

func (a *analyzer) AssessClaim(ctx context.Context, carrierName string, items []string) (*ClaimAssessment, error) {
	insights, err := a.analyzeForAssessment(ctx, carrierName, items)
	if err != nil {
		return nil, err
	}
	assessment := AssessInsights(insights)
	assessment.CarrierName = carrierName
	assessment.ItemCount = len(items)
	return assessment, nil
}

func (a *analyzer) analyzeForAssessment(ctx context.Context, carrierName string, items []string) ([]*CarrierInsight, error) {
	insights, err := a.AnalyzeItems(ctx, carrierName, items)
	if err != nil {
		return nil, err
	}
	matched := make([]*CarrierInsight, 0, len(insights))
	for _, ins := range insights {
		if ins != nil {
			matched = append(matched, ins)
		}
	}
	return matched, nil
}

// analyzeAgainst runs the match pipeline for one item against preloaded
// patterns.  Empty descriptions and non-matches both yield nil.
func (a *analyzer) analyzeAgainst(carrierName, itemDescription string, patterns []*carrier.CarrierPattern) *CarrierInsight {
	if itemDescription == "" || len(patterns) == 0 {
		return nil
	}

	tokens := Normalize(itemDescription)
	match := BestMatch(tokens, patterns, a.opts.MatchThreshold)
	if match == nil {
		a.log.Debug("no pattern matched",
			logging.String("carrier", carrierName),
			logging.String("item", itemDescription))
		return nil
	}

	return BuildInsight(carrierName, itemDescription, match)
}

// BuildInsight turns a pattern match into the caller-facing insight.
func BuildInsight(carrierName, itemDescription string, match *Match) *CarrierInsight {
	p := match.Pattern
	severity := ClassifySeverity(p.UnderpaymentRate)
	pct := math.Abs(p.UnderpaymentRate)

	return &CarrierInsight{
		CarrierName:         carrierName,
		LineItemDescription: itemDescription,
		Severity:            severity,
		Variance:            p.UnderpaymentRate,
		UnderpaymentPct:     pct,
		Message:             WarningMessage(severity, carrierName, itemDescription, pct),
		Recommendation:      Recommendation(severity, carrierName, itemDescription, pct),
		Confidence:          CalculateConfidence(p.HistoricalCount, p.Confidence),
		SampleSize:          p.HistoricalCount,
		MatchScore:          match.Score,
		Pattern:             p,
	}
}
