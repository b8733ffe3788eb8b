package underpay

import (
	"fmt"
	"math"
)

// Severity classifies how large an underpayment gap is, independent of how
// many observations support it.  Confidence is reported alongside severity,
// never folded into it; a low-confidence CRITICAL pattern still surfaces as
// CRITICAL and callers weigh both.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRanks orders severities for monotonicity comparisons and counting.
var severityRanks = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal position of the severity; unknown values rank as
// NONE.
func (s Severity) Rank() int { return severityRanks[s] }

func (s Severity) String() string { return string(s) }

// ClassifySeverity maps a signed variance percentage to a Severity by its
// magnitude alone.
func ClassifySeverity(variance float64) Severity {
	abs := math.Abs(variance)
	switch {
	case abs >= 50:
		return SeverityCritical
	case abs >= 25:
		return SeverityHigh
	case abs >= 10:
		return SeverityMedium
	case abs > 0:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// WarningMessage renders the fixed warning template for a severity,
// parameterized by carrier, item, and the rounded underpayment percentage.
func WarningMessage(severity Severity, carrierName, item string, underpaymentPct float64) string {
	pct := math.Round(underpaymentPct)
	switch severity {
	case SeverityCritical:
		return fmt.Sprintf("%s historically underpays %s by %.0f%% - severe underpayment risk", carrierName, item, pct)
	case SeverityHigh:
		return fmt.Sprintf("%s frequently underpays %s by %.0f%% - high underpayment risk", carrierName, item, pct)
	case SeverityMedium:
		return fmt.Sprintf("%s tends to underpay %s by %.0f%% - moderate underpayment risk", carrierName, item, pct)
	case SeverityLow:
		return fmt.Sprintf("%s occasionally shortchanges %s by %.0f%% - minor underpayment risk", carrierName, item, pct)
	default:
		return fmt.Sprintf("No underpayment history for %s on %s", carrierName, item)
	}
}

// Recommendation renders the fixed recommended-action template for a
// severity.
func Recommendation(severity Severity, carrierName, item string, underpaymentPct float64) string {
	pct := math.Round(underpaymentPct)
	switch severity {
	case SeverityCritical:
		return fmt.Sprintf("Escalate before submission: itemize every component of %s with photos and manufacturer pricing; expect %s to cut this line by roughly %.0f%%", item, carrierName, pct)
	case SeverityHigh:
		return fmt.Sprintf("Attach supporting documentation for %s and pre-empt the typical %.0f%% reduction from %s with line-item justification", item, pct, carrierName)
	case SeverityMedium:
		return fmt.Sprintf("Double-check measurements and unit pricing on %s; %s commonly trims this line by about %.0f%%", item, carrierName, pct)
	case SeverityLow:
		return fmt.Sprintf("Standard documentation should suffice for %s; monitor %s's payout against the estimate", item, carrierName)
	default:
		return fmt.Sprintf("Proceed with standard documentation for %s", item)
	}
}
