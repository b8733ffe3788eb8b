// Package carrier defines the carrier-underpayment domain model: the
// CarrierPattern entity describing how a specific insurance carrier tends to
// mis-price a specific kind of claim line item, its repository contract, and
// per-carrier statistical rollups.
package carrier

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// Strategy classifies the behaviour a carrier typically uses to reduce a
// line-item payout.
type Strategy string

const (
	StrategyOmit         Strategy = "OMIT"
	StrategyUndervalue   Strategy = "UNDERVALUE"
	StrategyDenyCoverage Strategy = "DENY_COVERAGE"
	StrategyDenyModifier Strategy = "DENY_MODIFIER"
	StrategyZeroCost     Strategy = "ZERO_COST"
)

// Strategies lists all valid strategy values in a fixed order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyOmit,
		StrategyUndervalue,
		StrategyDenyCoverage,
		StrategyDenyModifier,
		StrategyZeroCost,
	}
}

// Valid reports whether s is one of the known strategy values.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyOmit, StrategyUndervalue, StrategyDenyCoverage, StrategyDenyModifier, StrategyZeroCost:
		return true
	}
	return false
}

func (s Strategy) String() string { return string(s) }

// ParseStrategy converts a stored string into a Strategy.
func ParseStrategy(v string) (Strategy, error) {
	s := Strategy(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", errors.Newf(errors.ErrCodeInvalidPattern, "unknown strategy %q", v)
	}
	return s, nil
}

// CanonicalName lowercases and trims a carrier name or line-item description
// for identity purposes.  Every lookup and every write uses this single
// canonicalization so case variants can never diverge into separate patterns.
func CanonicalName(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// PatternKey builds the canonical identity key for the case-insensitive
// (carrier, line item) pair.
func PatternKey(carrierName, lineItemDescription string) string {
	return CanonicalName(carrierName) + "|" + CanonicalName(lineItemDescription)
}

// CarrierPattern is a historical behavioural fact about one carrier on one
// kind of claim line item.  The case-insensitive (CarrierName,
// LineItemDescription) pair is its identity; see PatternKey.
type CarrierPattern struct {
	ID uuid.UUID `json:"id"`

	CarrierName         string `json:"carrier_name"`
	LineItemDescription string `json:"line_item_description"`

	// UnderpaymentRate is a signed percentage; negative means the carrier
	// pays less than fair market value, magnitude is how far off.
	UnderpaymentRate float64 `json:"underpayment_rate"`

	// Frequency is the fraction in [0,1] of appearances of this item on
	// which the gap is observed.
	Frequency float64 `json:"frequency"`

	// TypicalGaps are short phrases describing what is typically omitted or
	// undervalued; they double as alternate match targets.
	TypicalGaps []string `json:"typical_gaps"`

	CommonStrategy Strategy `json:"common_strategy"`

	// HistoricalCount is the number of observations backing this pattern.
	// It grows only through audit-outcome observations.
	HistoricalCount int `json:"historical_count"`

	// Confidence is the base confidence score in [0,99], independent of the
	// sample-size adjustment applied at query time.
	Confidence float64 `json:"confidence"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Key returns the canonical identity key of the pattern.
func (p *CarrierPattern) Key() string {
	return PatternKey(p.CarrierName, p.LineItemDescription)
}

// Gaps returns the typical-gap phrases, never nil, so consumers can iterate
// and serialize without guarding against a missing collection.
func (p *CarrierPattern) Gaps() []string {
	if p.TypicalGaps == nil {
		return []string{}
	}
	return p.TypicalGaps
}

// Validate checks the pattern's structural invariants.
func (p *CarrierPattern) Validate() error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidPattern, "pattern is nil")
	}
	if strings.TrimSpace(p.CarrierName) == "" {
		return errors.New(errors.ErrCodeInvalidPattern, "carrier name is required")
	}
	if strings.TrimSpace(p.LineItemDescription) == "" {
		return errors.New(errors.ErrCodeInvalidPattern, "line item description is required")
	}
	if p.Frequency < 0 || p.Frequency > 1 {
		return errors.Newf(errors.ErrCodeInvalidPattern, "frequency %.3f outside [0,1]", p.Frequency)
	}
	if p.Confidence < 0 || p.Confidence > 99 {
		return errors.Newf(errors.ErrCodeInvalidPattern, "confidence %.1f outside [0,99]", p.Confidence)
	}
	if p.HistoricalCount < 0 {
		return errors.Newf(errors.ErrCodeInvalidPattern, "historical count %d is negative", p.HistoricalCount)
	}
	if !p.CommonStrategy.Valid() {
		return errors.Newf(errors.ErrCodeInvalidPattern, "unknown strategy %q", p.CommonStrategy)
	}
	return nil
}

// Clone returns a deep copy so callers can hand patterns across goroutines
// without sharing the gap slice.
func (p *CarrierPattern) Clone() *CarrierPattern {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TypicalGaps = append([]string(nil), p.TypicalGaps...)
	return &clone
}

// MarshalJSON defaults the gap collection so serialized patterns always carry
// an array, never null.
func (p *CarrierPattern) MarshalJSON() ([]byte, error) {
	type alias CarrierPattern
	a := alias(*p)
	if a.TypicalGaps == nil {
		a.TypicalGaps = []string{}
	}
	return json.Marshal(a)
}

// ApplyObservation folds one audit-derived variance observation into an
// existing pattern, or creates a new pattern when existing is nil.  This is
// the single definition of the incremental weighted-average update; both
// repository adapters implement RecordObservation in terms of it (the
// postgres adapter mirrors the same arithmetic server-side).
//
//	weighted = (rate×count + variance) / (count+1)
//
// The stored rate keeps full float precision; repeated observations of the
// same variance must keep moving the mean toward it, so rounding only
// happens where values are rendered. Both adapters store the raw mean.
//
// For a brand-new pair the pattern starts at one observation, confidence 50,
// frequency 0.1, the item itself as the only gap phrase, and a strategy of
// UNDERVALUE for variances below −20, OMIT otherwise.
func ApplyObservation(existing *CarrierPattern, carrierName, lineItemDescription string, variance float64) *CarrierPattern {
	now := time.Now().UTC()
	if existing == nil {
		strategy := StrategyOmit
		if variance < -20 {
			strategy = StrategyUndervalue
		}
		return &CarrierPattern{
			ID:                  uuid.New(),
			CarrierName:         carrierName,
			LineItemDescription: lineItemDescription,
			UnderpaymentRate:    variance,
			Frequency:           0.1,
			TypicalGaps:         []string{lineItemDescription},
			CommonStrategy:      strategy,
			HistoricalCount:     1,
			Confidence:          50,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
	}

	updated := existing.Clone()
	count := float64(existing.HistoricalCount)
	updated.UnderpaymentRate = (existing.UnderpaymentRate*count + variance) / (count + 1)
	updated.HistoricalCount = existing.HistoricalCount + 1
	updated.Confidence = math.Min(99, existing.Confidence+0.1)
	updated.UpdatedAt = now
	return updated
}

// VarianceFromPrices converts claim and market prices into the signed
// percentage variance; negative means underpaid.
func VarianceFromPrices(claimPrice, marketPrice float64) float64 {
	return (claimPrice - marketPrice) / marketPrice * 100
}

// DescribeKey renders the canonical pair for log and error detail strings.
func DescribeKey(carrierName, lineItemDescription string) string {
	return fmt.Sprintf("(%s, %s)", CanonicalName(carrierName), CanonicalName(lineItemDescription))
}
