package underpay_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
)

func insightWith(severity underpay.Severity, variance float64) *underpay.CarrierInsight {
	return &underpay.CarrierInsight{
		LineItemDescription: fmt.Sprintf("%s item at %.1f", strings.ToLower(string(severity)), variance),
		Severity:            severity,
		Variance:            variance,
		UnderpaymentPct:     -variance,
	}
}

func repeatInsights(severity underpay.Severity, variance float64, n int) []*underpay.CarrierInsight {
	out := make([]*underpay.CarrierInsight, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, insightWith(severity, variance))
	}
	return out
}

func TestAssessInsightsEmpty(t *testing.T) {
	got := underpay.AssessInsights(nil)
	assert.Equal(t, underpay.SeverityNone, got.OverallRisk)
	assert.Zero(t, got.MatchedCount)
	assert.Empty(t, got.PriorityItems)
	assert.Equal(t, "No known underpayment patterns detected - proceed with standard documentation", got.ActionSummary)
}

func TestAssessInsightsSkipsNilEntries(t *testing.T) {
	got := underpay.AssessInsights([]*underpay.CarrierInsight{
		nil,
		insightWith(underpay.SeverityMedium, -15),
		nil,
	})
	assert.Equal(t, 1, got.MatchedCount)
	assert.Equal(t, 1, got.SeverityCounts[underpay.SeverityMedium])
	assert.Equal(t, underpay.SeverityLow, got.OverallRisk)
}

func TestAssessInsightsRiskPrecedence(t *testing.T) {
	tests := []struct {
		name          string
		insights      []*underpay.CarrierInsight
		wantRisk      underpay.Severity
		summaryPrefix string
	}{
		{
			name:          "two criticals",
			insights:      repeatInsights(underpay.SeverityCritical, -60, 2),
			wantRisk:      underpay.SeverityCritical,
			summaryPrefix: "URGENT:",
		},
		{
			name: "one critical with two highs",
			insights: append(repeatInsights(underpay.SeverityCritical, -55, 1),
				repeatInsights(underpay.SeverityHigh, -30, 2)...),
			wantRisk:      underpay.SeverityCritical,
			summaryPrefix: "URGENT:",
		},
		{
			name:          "single critical alone",
			insights:      repeatInsights(underpay.SeverityCritical, -55, 1),
			wantRisk:      underpay.SeverityHigh,
			summaryPrefix: "ALERT:",
		},
		{
			name:          "three highs",
			insights:      repeatInsights(underpay.SeverityHigh, -30, 3),
			wantRisk:      underpay.SeverityHigh,
			summaryPrefix: "ALERT:",
		},
		{
			name:          "one high",
			insights:      repeatInsights(underpay.SeverityHigh, -30, 1),
			wantRisk:      underpay.SeverityMedium,
			summaryPrefix: "CAUTION:",
		},
		{
			name:          "three mediums",
			insights:      repeatInsights(underpay.SeverityMedium, -15, 3),
			wantRisk:      underpay.SeverityMedium,
			summaryPrefix: "CAUTION:",
		},
		{
			name:          "one medium",
			insights:      repeatInsights(underpay.SeverityMedium, -15, 1),
			wantRisk:      underpay.SeverityLow,
			summaryPrefix: "MINOR:",
		},
		{
			name:          "two lows",
			insights:      repeatInsights(underpay.SeverityLow, -4, 2),
			wantRisk:      underpay.SeverityLow,
			summaryPrefix: "MINOR:",
		},
		{
			name:          "one low only",
			insights:      repeatInsights(underpay.SeverityLow, -4, 1),
			wantRisk:      underpay.SeverityNone,
			summaryPrefix: "No known underpayment patterns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := underpay.AssessInsights(tt.insights)
			assert.Equal(t, tt.wantRisk, got.OverallRisk)
			assert.True(t, strings.HasPrefix(got.ActionSummary, tt.summaryPrefix),
				"summary %q should start with %q", got.ActionSummary, tt.summaryPrefix)
		})
	}
}

func TestAssessInsightsPriorityItems(t *testing.T) {
	insights := append(
		repeatInsights(underpay.SeverityCritical, -70, 3),
		repeatInsights(underpay.SeverityHigh, -30, 7)...)
	insights = append(insights, repeatInsights(underpay.SeverityMedium, -12, 4)...)

	got := underpay.AssessInsights(insights)

	// All criticals plus at most five highs, nothing below HIGH.
	require.Len(t, got.PriorityItems, 8)
	criticals, highs := 0, 0
	for _, item := range got.PriorityItems {
		switch item.Severity {
		case underpay.SeverityCritical:
			criticals++
		case underpay.SeverityHigh:
			highs++
		default:
			t.Fatalf("unexpected severity %s in priority items", item.Severity)
		}
	}
	assert.Equal(t, 3, criticals)
	assert.Equal(t, 5, highs)
}

func TestAssessInsightsTotalVarianceIsAbsoluteSum(t *testing.T) {
	got := underpay.AssessInsights([]*underpay.CarrierInsight{
		insightWith(underpay.SeverityHigh, -30),
		insightWith(underpay.SeverityMedium, 12.5),
	})
	assert.InDelta(t, 42.5, got.TotalVariance, 1e-9)
}
