package underpay

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
)

// SelfTestCase is one known-good/known-bad check in the battery.
type SelfTestCase struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SelfTestReport summarises a self-test run.
type SelfTestReport struct {
	Passed int            `json:"passed"`
	Failed int            `json:"failed"`
	Cases  []SelfTestCase `json:"cases"`
}

func (r *SelfTestReport) add(name string, passed bool, detail string) {
	if passed {
		r.Passed++
		detail = ""
	} else {
		r.Failed++
	}
	r.Cases = append(r.Cases, SelfTestCase{Name: name, Passed: passed, Detail: detail})
}

// OK reports whether every case passed.
func (r *SelfTestReport) OK() bool { return r.Failed == 0 }

// SelfTest runs the engine's fixed regression battery against a repository
// seeded with the default catalog and reports pass/fail counts.  It is
// usable as a deployment smoke check independent of any test framework.
//
// The trend-update case writes one observation for a uniquely named
// (carrier, item) pair so repeated runs against a persistent store never
// collide with earlier runs.
func SelfTest(ctx context.Context, repo carrier.PatternRepository, log logging.Logger) *SelfTestReport {
	if log == nil {
		log = logging.NewNopLogger()
	}
	report := &SelfTestReport{}

	// Known-good match: a roofing tear-off item against State Farm history.
	analyzer, err := NewAnalyzer(repo, log)
	if err != nil {
		report.add("analyzer construction", false, err.Error())
		return report
	}
	insight, err := analyzer.AnalyzeItem(ctx, "State Farm", "Roof Tear Off SQ")
	report.add("match: State Farm roof tear off",
		err == nil && insight != nil,
		fmt.Sprintf("insight=%v err=%v", insight != nil, err))

	// Known-bad match: unrelated text must stay below the threshold.
	miss, err := analyzer.AnalyzeItem(ctx, "State Farm", "completely unrelated garbage item xyz")
	report.add("no match: unrelated item",
		err == nil && miss == nil,
		fmt.Sprintf("insight=%v err=%v", miss != nil, err))

	// Confidence gating for thin samples.
	conf := CalculateConfidence(30, 90)
	report.add("confidence: 30 observations gate to insufficient",
		conf.Level == ConfidenceInsufficient && conf.AdjustedConfidence == 45 && conf.SampleSizeCategory == "insufficient_data",
		fmt.Sprintf("got %+v", conf))

	// Severity thresholds.
	report.add("severity: -55 is CRITICAL", ClassifySeverity(-55) == SeverityCritical,
		string(ClassifySeverity(-55)))
	report.add("severity: -5 is LOW", ClassifySeverity(-5) == SeverityLow,
		string(ClassifySeverity(-5)))
	report.add("severity: 0 is NONE", ClassifySeverity(0) == SeverityNone,
		string(ClassifySeverity(0)))

	// Trend update on a brand-new pair.
	updater, err := NewTrendUpdater(repo, log)
	if err != nil {
		report.add("trend updater construction", false, err.Error())
		return report
	}
	item := "selftest drip edge " + uuid.NewString()
	update, err := updater.Record(ctx, &AuditOutcome{
		Carrier:     "Selftest Mutual",
		ItemName:    item,
		ClaimPrice:  800,
		MarketPrice: 1000,
	})
	trendOK := err == nil &&
		update != nil &&
		update.Created &&
		update.Pattern.UnderpaymentRate == -20.0 &&
		update.Pattern.HistoricalCount == 1 &&
		update.Pattern.Confidence == 50 &&
		update.Pattern.CommonStrategy == carrier.StrategyOmit
	report.add("trend: new pair at 800/1000", trendOK, fmt.Sprintf("update=%+v err=%v", update, err))

	// Aggregate precedence: two criticals dominate everything else.
	critical := &CarrierInsight{Severity: SeverityCritical, Variance: -60}
	assessment := AssessInsights([]*CarrierInsight{
		critical, critical,
		{Severity: SeverityLow, Variance: -4},
	})
	report.add("aggregate: two criticals force CRITICAL",
		assessment.OverallRisk == SeverityCritical,
		string(assessment.OverallRisk))

	return report
}
