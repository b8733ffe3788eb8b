package underpay

import (
	"strings"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
)

// DefaultMatchThreshold is the minimum overall score at which a pattern is
// considered a match for a line item.  Tuned for short, jargon-heavy
// trade-description text.
const DefaultMatchThreshold = 0.35

// minSubstringLen is the shortest token that may match by containment rather
// than equality; shorter fragments are too ambiguous.
const minSubstringLen = 3

// Match pairs a pattern with the score it achieved against a query.
type Match struct {
	Pattern *carrier.CarrierPattern `json:"pattern"`
	Score   float64                 `json:"score"`
}

// OverlapScore computes the token-overlap coefficient between two token
// lists.  Each query token contributes at most one match: the first
// candidate token that is equal to it, or where either token (length >= 3)
// contains the other.  The score is 2·matches/(|query|+|candidate|), in
// [0,1], and 0 when either list is empty.
func OverlapScore(query, candidate []string) float64 {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}
	matches := 0
	for _, q := range query {
		for _, c := range candidate {
			if tokensMatch(q, c) {
				matches++
				break
			}
		}
	}
	return 2 * float64(matches) / float64(len(query)+len(candidate))
}

func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) >= minSubstringLen && strings.Contains(b, a) {
		return true
	}
	if len(b) >= minSubstringLen && strings.Contains(a, b) {
		return true
	}
	return false
}

// PatternScore scores normalized query tokens against one pattern: once
// against the pattern's own description tokens and once against each typical
// gap phrase, each normalized independently.  The overall score is the
// maximum.
func PatternScore(queryTokens []string, pattern *carrier.CarrierPattern) float64 {
	if pattern == nil {
		return 0
	}
	best := OverlapScore(queryTokens, Normalize(pattern.LineItemDescription))
	for _, gap := range pattern.Gaps() {
		if s := OverlapScore(queryTokens, Normalize(gap)); s > best {
			best = s
		}
	}
	return best
}

// BestMatch selects the single highest-scoring pattern at or above the
// threshold, or nil when nothing qualifies.  Ties keep the first pattern
// encountered, so the caller-supplied ordering decides; repository adapters
// return patterns in deterministic order to make that reproducible.
func BestMatch(queryTokens []string, patterns []*carrier.CarrierPattern, threshold float64) *Match {
	var best *Match
	for _, p := range patterns {
		score := PatternScore(queryTokens, p)
		if score < threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Pattern: p, Score: score}
		}
	}
	return best
}
