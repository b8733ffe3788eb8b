package underpay

import (
	"context"
	"math"
	"strings"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// AuditOutcome is the inbound signal from a completed, priced audit: the
// price the carrier approved for an item versus its fair market price.
type AuditOutcome struct {
	Carrier     string  `json:"carrier"`
	ItemName    string  `json:"item_name"`
	ClaimPrice  float64 `json:"claim_price"`
	MarketPrice float64 `json:"market_price"`
}

// Validate checks the outcome's preconditions: non-empty identifiers, a
// strictly positive market price, and finite prices.
func (o *AuditOutcome) Validate() error {
	if o == nil {
		return errors.New(errors.ErrCodeInvalidAuditInput, "audit outcome is nil")
	}
	if strings.TrimSpace(o.Carrier) == "" {
		return errors.New(errors.ErrCodeInvalidAuditInput, "carrier is required")
	}
	if strings.TrimSpace(o.ItemName) == "" {
		return errors.New(errors.ErrCodeInvalidAuditInput, "item name is required")
	}
	if math.IsNaN(o.ClaimPrice) || math.IsInf(o.ClaimPrice, 0) {
		return errors.New(errors.ErrCodeInvalidAuditInput, "claim price is not a finite number")
	}
	if math.IsNaN(o.MarketPrice) || math.IsInf(o.MarketPrice, 0) {
		return errors.New(errors.ErrCodeInvalidAuditInput, "market price is not a finite number")
	}
	if o.MarketPrice <= 0 {
		return errors.Newf(errors.ErrCodeInvalidAuditInput, "market price %.2f must be positive", o.MarketPrice)
	}
	return nil
}

// Variance converts the outcome's prices into the signed percentage
// variance.
func (o *AuditOutcome) Variance() float64 {
	return carrier.VarianceFromPrices(o.ClaimPrice, o.MarketPrice)
}

// TrendUpdate reports the result of incorporating one audit outcome.
type TrendUpdate struct {
	// Pattern is the post-update state of the affected pattern.
	Pattern *carrier.CarrierPattern `json:"pattern"`

	// Created is true when this outcome established a brand-new pattern
	// for a previously unseen (carrier, item) pair.
	Created bool `json:"created"`

	// Variance is the observation that was folded in.
	Variance float64 `json:"variance"`
}

// TrendUpdater closes the feedback loop: it folds completed audit outcomes
// into the pattern store.  It is the engine's one stateful operation; the
// repository's RecordObservation is atomic, so concurrent updates to the
// same (carrier, item) pair each count.  The updater performs no retries of
// its own - repository failures propagate with context so the caller can
// decide redelivery.
type TrendUpdater struct {
	repo carrier.PatternRepository
	log  logging.Logger
}

// NewTrendUpdater constructs a TrendUpdater over the given repository.
func NewTrendUpdater(repo carrier.PatternRepository, log logging.Logger) (*TrendUpdater, error) {
	if repo == nil {
		return nil, errors.InvalidInput("pattern repository is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &TrendUpdater{repo: repo, log: log.Named("trend")}, nil
}

// Record validates the outcome and atomically folds its variance into the
// pattern for the case-insensitive (carrier, item) pair.  Invalid input is
// logged as a warning and returned as a typed failure with nothing mutated,
// so a single bad outcome cannot abort a batch of updates.
func (u *TrendUpdater) Record(ctx context.Context, outcome *AuditOutcome) (*TrendUpdate, error) {
	if err := outcome.Validate(); err != nil {
		u.log.Warn("rejecting invalid audit outcome", logging.Err(err))
		return nil, err
	}

	variance := outcome.Variance()
	pattern, err := u.repo.RecordObservation(ctx, outcome.Carrier, outcome.ItemName, variance)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAuditWriteFailed, "recording audit observation").
			WithDetail(carrier.DescribeKey(outcome.Carrier, outcome.ItemName))
	}

	created := pattern.HistoricalCount == 1
	u.log.Info("audit outcome recorded",
		logging.String("carrier", outcome.Carrier),
		logging.String("item", outcome.ItemName),
		logging.Float64("variance", variance),
		logging.Int("historical_count", pattern.HistoricalCount),
		logging.Bool("created", created))

	return &TrendUpdate{Pattern: pattern, Created: created, Variance: variance}, nil
}
