package claims_test

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/application/claims"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/memory"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

func newService(t *testing.T, opts ...claims.Option) claims.Service {
	t.Helper()
	repo, err := memory.NewSeededRepository()
	require.NoError(t, err)
	svc, err := claims.NewService(repo, logging.NewNopLogger(), opts...)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := claims.NewService(nil, logging.NewNopLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestAnalyzeItemReturnsInsight(t *testing.T) {
	svc := newService(t)

	insight, err := svc.AnalyzeItem(context.Background(), "State Farm", "Roof Tear Off SQ")
	require.NoError(t, err)
	require.NotNil(t, insight)
	assert.Equal(t, underpay.SeverityHigh, insight.Severity)
	assert.Equal(t, -32.5, insight.Variance)
}

func TestAnalyzeItemNoMatch(t *testing.T) {
	svc := newService(t)

	insight, err := svc.AnalyzeItem(context.Background(), "State Farm", "completely unrelated garbage item xyz")
	require.NoError(t, err)
	assert.Nil(t, insight)
}

func TestAnalyzeItemsIndexAligned(t *testing.T) {
	svc := newService(t)

	items := []string{"Roof Tear Off SQ", "completely unrelated garbage item xyz", "Drip edge metal"}
	insights, err := svc.AnalyzeItems(context.Background(), "State Farm", items)
	require.NoError(t, err)
	require.Len(t, insights, 3)
	assert.NotNil(t, insights[0])
	assert.Nil(t, insights[1])
	assert.NotNil(t, insights[2])
}

func TestAssessClaim(t *testing.T) {
	svc := newService(t)

	items := []string{
		"Steep slope charge",
		"Step flashing",
		"Ridge cap shingles",
		"Tear off comp shingles",
		"Drip edge",
		"Unknown widget xyz",
	}
	assessment, err := svc.AssessClaim(context.Background(), "State Farm", items)
	require.NoError(t, err)
	assert.Equal(t, underpay.SeverityCritical, assessment.OverallRisk)
	assert.Equal(t, 6, assessment.ItemCount)
	assert.Equal(t, 5, assessment.MatchedCount)
}

func TestRecordAuditOutcome(t *testing.T) {
	svc := newService(t)

	update, err := svc.RecordAuditOutcome(context.Background(), &underpay.AuditOutcome{
		Carrier:     "Farmers",
		ItemName:    "Ridge vent",
		ClaimPrice:  700,
		MarketPrice: 1000,
	})
	require.NoError(t, err)
	assert.True(t, update.Created)
	assert.Equal(t, -30.0, update.Variance)
}

func TestRecordAuditOutcomeInvalid(t *testing.T) {
	svc := newService(t)

	_, err := svc.RecordAuditOutcome(context.Background(), &underpay.AuditOutcome{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAuditInput))
}

func TestCarrierStatistics(t *testing.T) {
	svc := newService(t)

	stats, err := svc.CarrierStatistics(context.Background(), "State Farm")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.PatternCount)
	// Mean of the absolute seeded rates: (32.5+18.2+26.4+41.0+52.3)/5.
	assert.InDelta(t, 34.08, stats.AvgUnderpaymentRate, 1e-9)

	_, err = svc.CarrierStatistics(context.Background(), "  ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestCarrierStatisticsUnknownCarrierIsEmpty(t *testing.T) {
	svc := newService(t)

	stats, err := svc.CarrierStatistics(context.Background(), "No Such Mutual")
	require.NoError(t, err)
	assert.Zero(t, stats.PatternCount)
	assert.Equal(t, carrier.TrendGenerous, stats.Trend)
}

func TestPortfolioStatistics(t *testing.T) {
	svc := newService(t)

	portfolio, err := svc.PortfolioStatistics(context.Background())
	require.NoError(t, err)
	assert.Len(t, portfolio.Carriers, 4)
	assert.Equal(t, 12, portfolio.TotalPatterns)

	// Ranked by risk score descending.
	for i := 1; i < len(portfolio.Carriers); i++ {
		assert.GreaterOrEqual(t, portfolio.Carriers[i-1].RiskScore, portfolio.Carriers[i].RiskScore)
	}
}

func TestSelfTest(t *testing.T) {
	svc := newService(t)

	report, err := svc.SelfTest(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 8, report.Passed)
}

func TestMetricsInstrumentation(t *testing.T) {
	m := prometheus.NewMetrics("claims_test")
	svc := newService(t, claims.WithMetrics(m))
	ctx := context.Background()

	_, err := svc.AnalyzeItem(ctx, "State Farm", "Roof Tear Off SQ")
	require.NoError(t, err)
	_, err = svc.AnalyzeItem(ctx, "State Farm", "completely unrelated garbage item xyz")
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.AnalysisRequestsTotal.WithLabelValues("item", "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.InsightsTotal.WithLabelValues(string(underpay.SeverityHigh))))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.NoMatchTotal.WithLabelValues("item")))

	_, err = svc.AssessClaim(ctx, "State Farm", []string{"Steep slope charge"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.ClaimRiskTotal.WithLabelValues(string(underpay.SeverityHigh))))

	_, err = svc.RecordAuditOutcome(ctx, &underpay.AuditOutcome{
		Carrier:     "Farmers",
		ItemName:    "Ridge vent",
		ClaimPrice:  700,
		MarketPrice: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.TrendUpdatesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.PatternsCreated))

	report, err := svc.SelfTest(ctx)
	require.NoError(t, err)
	require.True(t, report.OK())
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.SelfTestFailures))
}
