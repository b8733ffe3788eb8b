package testutil

import (
	"context"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// FailingPatternRepository errors every write so error-wrapping paths can be
// asserted.  Read methods panic unless an inner repository is embedded.
type FailingPatternRepository struct {
	carrier.PatternRepository

	// Err is returned from RecordObservation; a coded database error is
	// used when nil.
	Err error
}

func (r FailingPatternRepository) RecordObservation(context.Context, string, string, float64) (*carrier.CarrierPattern, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return nil, errors.New(errors.ErrCodeDatabaseError, "write rejected")
}
