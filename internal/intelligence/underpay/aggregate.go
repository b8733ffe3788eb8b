package underpay

import (
	"fmt"
	"math"
)

// maxPriorityHighItems caps how many HIGH-severity items join the priority
// list; CRITICAL items are always included.
const maxPriorityHighItems = 5

// ClaimAssessment is the claim-level verdict folded from all per-item
// insights for one carrier.
type ClaimAssessment struct {
	CarrierName string `json:"carrier_name"`

	// ItemCount is the number of line items analyzed; MatchedCount is how
	// many of them matched a known pattern.
	ItemCount    int `json:"item_count"`
	MatchedCount int `json:"matched_count"`

	SeverityCounts map[Severity]int `json:"severity_counts"`

	// TotalVariance is the sum of absolute variances across matched items.
	TotalVariance float64 `json:"total_variance"`

	// PriorityItems lists every CRITICAL insight plus up to five HIGH ones.
	PriorityItems []*CarrierInsight `json:"priority_items"`

	OverallRisk   Severity `json:"overall_risk"`
	ActionSummary string   `json:"action_summary"`
}

// AssessInsights folds per-item insights into one aggregate verdict.  Nil
// entries (items with no known pattern) are skipped.  The overall risk is
// decided by a fixed precedence table evaluated top to bottom, first match
// wins.
func AssessInsights(insights []*CarrierInsight) *ClaimAssessment {
	out := &ClaimAssessment{
		SeverityCounts: map[Severity]int{
			SeverityNone:     0,
			SeverityLow:      0,
			SeverityMedium:   0,
			SeverityHigh:     0,
			SeverityCritical: 0,
		},
		PriorityItems: []*CarrierInsight{},
	}

	highIncluded := 0
	for _, ins := range insights {
		if ins == nil {
			continue
		}
		out.MatchedCount++
		out.SeverityCounts[ins.Severity]++
		out.TotalVariance += math.Abs(ins.Variance)

		switch ins.Severity {
		case SeverityCritical:
			out.PriorityItems = append(out.PriorityItems, ins)
		case SeverityHigh:
			if highIncluded < maxPriorityHighItems {
				out.PriorityItems = append(out.PriorityItems, ins)
				highIncluded++
			}
		}
	}

	out.OverallRisk, out.ActionSummary = overallRisk(
		out.SeverityCounts[SeverityCritical],
		out.SeverityCounts[SeverityHigh],
		out.SeverityCounts[SeverityMedium],
		out.SeverityCounts[SeverityLow],
	)
	return out
}

// overallRisk applies the fixed precedence table.
func overallRisk(critical, high, medium, low int) (Severity, string) {
	switch {
	case critical >= 2 || (critical >= 1 && high >= 2):
		return SeverityCritical, fmt.Sprintf(
			"URGENT: %d critical and %d high-risk items detected - escalate this claim for supervisor review before submission", critical, high)
	case critical >= 1 || high >= 3:
		return SeverityHigh, fmt.Sprintf(
			"ALERT: %d critical and %d high-risk items detected - reinforce documentation on flagged lines before submission", critical, high)
	case high >= 1 || medium >= 3:
		return SeverityMedium, fmt.Sprintf(
			"CAUTION: %d high and %d medium-risk items detected - review flagged lines against the carrier's known gaps", high, medium)
	case medium >= 1 || low >= 2:
		return SeverityLow, fmt.Sprintf(
			"MINOR: %d medium and %d low-risk items detected - verify pricing on flagged lines", medium, low)
	default:
		return SeverityNone, "No known underpayment patterns detected - proceed with standard documentation"
	}
}
