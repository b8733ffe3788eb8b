package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

const patternColumns = `id, carrier_name, line_item_description, underpayment_rate,
	frequency, typical_gaps, common_strategy, historical_count, confidence,
	created_at, updated_at`

type patternRepo struct {
	conn *Connection
	log  logging.Logger
}

// NewPatternRepository returns the PostgreSQL-backed carrier.PatternRepository.
func NewPatternRepository(conn *Connection, log logging.Logger) carrier.PatternRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &patternRepo{conn: conn, log: log.Named("pattern_repo")}
}

func (r *patternRepo) GetByCarrier(ctx context.Context, carrierName string) ([]*carrier.CarrierPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM carrier_patterns
		WHERE carrier_canon = $1
		ORDER BY lower(btrim(line_item_description)) ASC
	`
	rows, err := r.conn.DB().QueryContext(ctx, query, carrier.CanonicalName(carrierName))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query carrier patterns")
	}
	defer rows.Close()

	var out []*carrier.CarrierPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate carrier patterns")
	}
	return out, nil
}

func (r *patternRepo) GetByCarrierAndItem(ctx context.Context, carrierName, lineItemDescription string) (*carrier.CarrierPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM carrier_patterns
		WHERE pattern_key = $1
	`
	row := r.conn.DB().QueryRowContext(ctx, query, carrier.PatternKey(carrierName, lineItemDescription))
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patternRepo) Upsert(ctx context.Context, pattern *carrier.CarrierPattern) error {
	if err := pattern.Validate(); err != nil {
		return err
	}
	id := pattern.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO carrier_patterns (
			id, pattern_key, carrier_canon, carrier_name, line_item_description,
			underpayment_rate, frequency, typical_gaps, common_strategy,
			historical_count, confidence, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (pattern_key) DO UPDATE SET
			carrier_name = EXCLUDED.carrier_name,
			line_item_description = EXCLUDED.line_item_description,
			underpayment_rate = EXCLUDED.underpayment_rate,
			frequency = EXCLUDED.frequency,
			typical_gaps = EXCLUDED.typical_gaps,
			common_strategy = EXCLUDED.common_strategy,
			historical_count = EXCLUDED.historical_count,
			confidence = EXCLUDED.confidence,
			updated_at = NOW()
	`
	_, err := r.conn.DB().ExecContext(ctx, query,
		id,
		pattern.Key(),
		carrier.CanonicalName(pattern.CarrierName),
		pattern.CarrierName,
		pattern.LineItemDescription,
		pattern.UnderpaymentRate,
		pattern.Frequency,
		pq.Array(pattern.Gaps()),
		pattern.CommonStrategy.String(),
		pattern.HistoricalCount,
		pattern.Confidence,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert carrier pattern").
			WithDetail(carrier.DescribeKey(pattern.CarrierName, pattern.LineItemDescription))
	}
	return nil
}

// RecordObservation folds one variance observation into the pattern row in a
// single statement, so concurrent observations on the same pair serialize on
// the row and each count.  The arithmetic mirrors carrier.ApplyObservation.
func (r *patternRepo) RecordObservation(ctx context.Context, carrierName, lineItemDescription string, variance float64) (*carrier.CarrierPattern, error) {
	strategy := carrier.StrategyOmit
	if variance < -20 {
		strategy = carrier.StrategyUndervalue
	}

	query := `
		INSERT INTO carrier_patterns (
			id, pattern_key, carrier_canon, carrier_name, line_item_description,
			underpayment_rate, frequency, typical_gaps, common_strategy,
			historical_count, confidence, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0.1, $7, $8, 1, 50, NOW(), NOW())
		ON CONFLICT (pattern_key) DO UPDATE SET
			underpayment_rate = (carrier_patterns.underpayment_rate * carrier_patterns.historical_count + $6)
				/ (carrier_patterns.historical_count + 1),
			historical_count = carrier_patterns.historical_count + 1,
			confidence = LEAST(99, carrier_patterns.confidence + 0.1),
			updated_at = NOW()
		RETURNING ` + patternColumns + `
	`
	row := r.conn.DB().QueryRowContext(ctx, query,
		uuid.New(),
		carrier.PatternKey(carrierName, lineItemDescription),
		carrier.CanonicalName(carrierName),
		carrierName,
		lineItemDescription,
		variance,
		pq.Array([]string{lineItemDescription}),
		strategy.String(),
	)
	p, err := scanPattern(row)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record observation").
			WithDetail(carrier.DescribeKey(carrierName, lineItemDescription))
	}
	return p, nil
}

func (r *patternRepo) ListCarriers(ctx context.Context) ([]string, error) {
	rows, err := r.conn.DB().QueryContext(ctx,
		`SELECT DISTINCT carrier_canon FROM carrier_patterns ORDER BY carrier_canon ASC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list carriers")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan carrier name")
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate carriers")
	}
	return out, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPattern(s scanner) (*carrier.CarrierPattern, error) {
	var (
		p        carrier.CarrierPattern
		gaps     pq.StringArray
		strategy string
	)
	err := s.Scan(
		&p.ID,
		&p.CarrierName,
		&p.LineItemDescription,
		&p.UnderpaymentRate,
		&p.Frequency,
		&gaps,
		&strategy,
		&p.HistoricalCount,
		&p.Confidence,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan carrier pattern")
	}
	p.TypicalGaps = []string(gaps)
	parsed, err := carrier.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	p.CommonStrategy = parsed
	return &p, nil
}
