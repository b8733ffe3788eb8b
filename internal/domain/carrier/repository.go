package carrier

import (
	"context"
)

// PatternRepository is the persistence contract for carrier patterns.  The
// engine owns no storage of its own; adapters (postgres, in-memory) implement
// this port.
//
// Ordering contract: GetByCarrier returns a carrier's patterns sorted by
// canonical line-item description ascending.  The matcher's best-match
// selection is first-seen-wins on ties, so deterministic ordering here makes
// tie-breaks reproducible across runs and stores.
type PatternRepository interface {
	// GetByCarrier returns all patterns recorded for the carrier, matched
	// case-insensitively.  A carrier with no history yields an empty slice,
	// not an error.
	GetByCarrier(ctx context.Context, carrierName string) ([]*CarrierPattern, error)

	// GetByCarrierAndItem returns the single pattern identified by the
	// case-insensitive (carrier, item) pair, or (nil, nil) when absent.
	GetByCarrierAndItem(ctx context.Context, carrierName, lineItemDescription string) (*CarrierPattern, error)

	// Upsert inserts or replaces the pattern identified by its canonical
	// key.  Used for catalog seeding and administrative correction, not for
	// audit observations.
	Upsert(ctx context.Context, pattern *CarrierPattern) error

	// RecordObservation atomically folds one variance observation into the
	// pattern for the (carrier, item) pair, creating the pattern when the
	// pair is new, and returns the resulting state.  Atomicity is the
	// adapter's obligation: concurrent observations on the same pair must
	// each be counted (no lost update).
	RecordObservation(ctx context.Context, carrierName, lineItemDescription string, variance float64) (*CarrierPattern, error)

	// ListCarriers returns the distinct canonical carrier names with at
	// least one pattern, sorted ascending.
	ListCarriers(ctx context.Context) ([]string, error)
}
