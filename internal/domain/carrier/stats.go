package carrier

import (
	"math"
	"sort"
)

// Trend classifies a carrier's overall payment behaviour from its average
// absolute underpayment rate.
type Trend string

const (
	TrendProblematic Trend = "PROBLEMATIC"
	TrendUnderpays   Trend = "UNDERPAYS"
	TrendFair        Trend = "FAIR"
	TrendGenerous    Trend = "GENEROUS"
)

// ClassifyTrend maps an average absolute underpayment rate to a Trend.
func ClassifyTrend(avgUnderpaymentRate float64) Trend {
	switch {
	case avgUnderpaymentRate > 25:
		return TrendProblematic
	case avgUnderpaymentRate > 15:
		return TrendUnderpays
	case avgUnderpaymentRate < 5:
		return TrendGenerous
	default:
		return TrendFair
	}
}

// Stats is the per-carrier statistical rollup over all of its patterns.
type Stats struct {
	CarrierName         string   `json:"carrier_name"`
	PatternCount        int      `json:"pattern_count"`
	AvgUnderpaymentRate float64  `json:"avg_underpayment_rate"`
	AvgFrequency        float64  `json:"avg_frequency"`
	AvgConfidence       float64  `json:"avg_confidence"`
	PrimaryStrategy     Strategy `json:"primary_strategy,omitempty"`
	RiskScore           int      `json:"risk_score"`
	Trend               Trend    `json:"trend"`
}

// Risk-score weights: gap magnitude, observed frequency, and breadth of the
// carrier's pattern catalog each contribute a fixed share.
const (
	riskWeightMagnitude = 0.4
	riskWeightFrequency = 0.3
	riskWeightBreadth   = 0.3
)

// ComputeStats rolls a carrier's patterns up into Stats.  A carrier with no
// history produces a well-defined zero-valued Stats (trend GENEROUS follows
// from a zero average, and no primary strategy is reported) rather than an
// error.
func ComputeStats(carrierName string, patterns []*CarrierPattern) *Stats {
	s := &Stats{CarrierName: carrierName, PatternCount: len(patterns)}
	if len(patterns) == 0 {
		s.Trend = ClassifyTrend(0)
		return s
	}

	var sumAbsRate, sumFreq, sumConf float64
	strategyCounts := make(map[Strategy]int)
	for _, p := range patterns {
		sumAbsRate += math.Abs(p.UnderpaymentRate)
		sumFreq += p.Frequency
		sumConf += p.Confidence
		strategyCounts[p.CommonStrategy]++
	}

	n := float64(len(patterns))
	s.AvgUnderpaymentRate = sumAbsRate / n
	s.AvgFrequency = sumFreq / n
	s.AvgConfidence = sumConf / n
	s.PrimaryStrategy = dominantStrategy(strategyCounts)
	s.RiskScore = int(math.Round(
		s.AvgUnderpaymentRate*riskWeightMagnitude +
			s.AvgFrequency*100*riskWeightFrequency +
			float64(s.PatternCount)*5*riskWeightBreadth))
	s.Trend = ClassifyTrend(s.AvgUnderpaymentRate)
	return s
}

// dominantStrategy returns the mode of the strategy counts; ties break on the
// fixed Strategies() order so the result is deterministic.
func dominantStrategy(counts map[Strategy]int) Strategy {
	var best Strategy
	bestCount := 0
	for _, s := range Strategies() {
		if c := counts[s]; c > bestCount {
			best, bestCount = s, c
		}
	}
	return best
}

// PortfolioStats is the cross-carrier rollup: carriers ranked by risk score
// descending plus aggregate strategy prevalence.
type PortfolioStats struct {
	Carriers           []*Stats         `json:"carriers"`
	TotalPatterns      int              `json:"total_patterns"`
	StrategyPrevalence map[Strategy]int `json:"strategy_prevalence"`
}

// ComputePortfolioStats aggregates per-carrier pattern sets into a ranked
// portfolio view.  Ranking is risk score descending, ties broken by carrier
// name ascending.
func ComputePortfolioStats(patternsByCarrier map[string][]*CarrierPattern) *PortfolioStats {
	out := &PortfolioStats{
		Carriers:           make([]*Stats, 0, len(patternsByCarrier)),
		StrategyPrevalence: make(map[Strategy]int),
	}

	for name, patterns := range patternsByCarrier {
		out.Carriers = append(out.Carriers, ComputeStats(name, patterns))
		out.TotalPatterns += len(patterns)
		for _, p := range patterns {
			out.StrategyPrevalence[p.CommonStrategy]++
		}
	}

	sort.Slice(out.Carriers, func(i, j int) bool {
		if out.Carriers[i].RiskScore != out.Carriers[j].RiskScore {
			return out.Carriers[i].RiskScore > out.Carriers[j].RiskScore
		}
		return out.Carriers[i].CarrierName < out.Carriers[j].CarrierName
	})
	return out
}
