package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsFixture() []*CarrierPattern {
	return []*CarrierPattern{
		{
			CarrierName:         "State Farm",
			LineItemDescription: "Tear off composition shingles",
			UnderpaymentRate:    -30,
			Frequency:           0.8,
			Confidence:          90,
			CommonStrategy:      StrategyOmit,
			HistoricalCount:     300,
		},
		{
			CarrierName:         "State Farm",
			LineItemDescription: "Drip edge",
			UnderpaymentRate:    -10,
			Frequency:           0.4,
			Confidence:          70,
			CommonStrategy:      StrategyOmit,
			HistoricalCount:     120,
		},
		{
			CarrierName:         "State Farm",
			LineItemDescription: "Steep charge",
			UnderpaymentRate:    20,
			Frequency:           0.6,
			Confidence:          80,
			CommonStrategy:      StrategyUndervalue,
			HistoricalCount:     90,
		},
	}
}

func TestClassifyTrend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TrendProblematic, ClassifyTrend(25.01))
	assert.Equal(t, TrendUnderpays, ClassifyTrend(25))
	assert.Equal(t, TrendUnderpays, ClassifyTrend(15.5))
	assert.Equal(t, TrendFair, ClassifyTrend(15))
	assert.Equal(t, TrendFair, ClassifyTrend(5))
	assert.Equal(t, TrendGenerous, ClassifyTrend(4.99))
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	s := ComputeStats("State Farm", statsFixture())

	assert.Equal(t, 3, s.PatternCount)
	assert.InDelta(t, 20, s.AvgUnderpaymentRate, 1e-9) // mean of |−30|,|−10|,|20|
	assert.InDelta(t, 0.6, s.AvgFrequency, 1e-9)
	assert.InDelta(t, 80, s.AvgConfidence, 1e-9)
	assert.Equal(t, StrategyOmit, s.PrimaryStrategy)
	// 20×0.4 + 0.6×100×0.3 + 3×5×0.3 = 8 + 18 + 4.5 = 30.5 → 31
	assert.Equal(t, 31, s.RiskScore)
	assert.Equal(t, TrendUnderpays, s.Trend)
}

func TestComputeStats_EmptyCarrierIsWellDefined(t *testing.T) {
	t.Parallel()

	s := ComputeStats("Ghost Carrier", nil)
	assert.Equal(t, 0, s.PatternCount)
	assert.Zero(t, s.AvgUnderpaymentRate)
	assert.Zero(t, s.RiskScore)
	assert.Empty(t, s.PrimaryStrategy)
	assert.Equal(t, TrendGenerous, s.Trend)
}

func TestDominantStrategy_TieBreaksDeterministically(t *testing.T) {
	t.Parallel()

	counts := map[Strategy]int{StrategyUndervalue: 2, StrategyOmit: 2}
	// OMIT precedes UNDERVALUE in the fixed order.
	assert.Equal(t, StrategyOmit, dominantStrategy(counts))
}

func TestComputePortfolioStats_RanksByRiskScoreDescending(t *testing.T) {
	t.Parallel()

	byCarrier := map[string][]*CarrierPattern{
		"State Farm": statsFixture(),
		"Acme Mutual": {
			{
				CarrierName:         "Acme Mutual",
				LineItemDescription: "Ridge cap",
				UnderpaymentRate:    -55,
				Frequency:           0.9,
				Confidence:          85,
				CommonStrategy:      StrategyZeroCost,
				HistoricalCount:     500,
			},
		},
		"Ghost Carrier": {},
	}

	p := ComputePortfolioStats(byCarrier)

	require.Len(t, p.Carriers, 3)
	// Acme: 55×0.4 + 0.9×100×0.3 + 1×5×0.3 = 22+27+1.5 = 50.5 → 51
	assert.Equal(t, "Acme Mutual", p.Carriers[0].CarrierName)
	assert.Equal(t, 51, p.Carriers[0].RiskScore)
	assert.Equal(t, "State Farm", p.Carriers[1].CarrierName)
	assert.Equal(t, "Ghost Carrier", p.Carriers[2].CarrierName)

	assert.Equal(t, 4, p.TotalPatterns)
	assert.Equal(t, 2, p.StrategyPrevalence[StrategyOmit])
	assert.Equal(t, 1, p.StrategyPrevalence[StrategyUndervalue])
	assert.Equal(t, 1, p.StrategyPrevalence[StrategyZeroCost])
}
