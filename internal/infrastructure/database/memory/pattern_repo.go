// Package memory provides the in-memory carrier.PatternRepository adapter.
// It backs the CLI's default mode, the self-test battery, and unit tests,
// and is seeded from the static catalog at startup.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// PatternRepository is a mutex-guarded map keyed by the canonical
// (carrier, item) key.  RecordObservation performs its read-modify-write
// under the write lock, so concurrent observations on the same pair each
// count.
type PatternRepository struct {
	mu       sync.RWMutex
	patterns map[string]*carrier.CarrierPattern
}

var _ carrier.PatternRepository = (*PatternRepository)(nil)

// NewPatternRepository constructs the adapter, seeded with the given
// patterns.  Each seed pattern must validate; duplicate canonical keys are
// rejected rather than silently overwritten.
func NewPatternRepository(seed []*carrier.CarrierPattern) (*PatternRepository, error) {
	repo := &PatternRepository{patterns: make(map[string]*carrier.CarrierPattern, len(seed))}
	for _, p := range seed {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := p.Key()
		if _, exists := repo.patterns[key]; exists {
			return nil, errors.New(errors.ErrCodePatternConflict, "duplicate seed pattern").
				WithDetail(carrier.DescribeKey(p.CarrierName, p.LineItemDescription))
		}
		repo.patterns[key] = p.Clone()
	}
	return repo, nil
}

func (r *PatternRepository) GetByCarrier(_ context.Context, carrierName string) ([]*carrier.CarrierPattern, error) {
	prefix := carrier.CanonicalName(carrierName) + "|"

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*carrier.CarrierPattern
	for key, p := range r.patterns {
		if strings.HasPrefix(key, prefix) {
			out = append(out, p.Clone())
		}
	}
	// Deterministic order keeps the matcher's first-seen tie-break stable.
	sort.Slice(out, func(i, j int) bool {
		return carrier.CanonicalName(out[i].LineItemDescription) < carrier.CanonicalName(out[j].LineItemDescription)
	})
	return out, nil
}

func (r *PatternRepository) GetByCarrierAndItem(_ context.Context, carrierName, lineItemDescription string) (*carrier.CarrierPattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.patterns[carrier.PatternKey(carrierName, lineItemDescription)]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (r *PatternRepository) Upsert(_ context.Context, pattern *carrier.CarrierPattern) error {
	if err := pattern.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[pattern.Key()] = pattern.Clone()
	return nil
}

func (r *PatternRepository) RecordObservation(_ context.Context, carrierName, lineItemDescription string, variance float64) (*carrier.CarrierPattern, error) {
	key := carrier.PatternKey(carrierName, lineItemDescription)

	r.mu.Lock()
	defer r.mu.Unlock()

	updated := carrier.ApplyObservation(r.patterns[key], carrierName, lineItemDescription, variance)
	r.patterns[key] = updated
	return updated.Clone(), nil
}

func (r *PatternRepository) ListCarriers(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, p := range r.patterns {
		name := carrier.CanonicalName(p.CarrierName)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len reports the number of stored patterns.
func (r *PatternRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}
