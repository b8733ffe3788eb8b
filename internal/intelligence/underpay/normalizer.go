// Package underpay implements the carrier-underpayment intelligence engine:
// normalization and fuzzy matching of claim line-item text against known
// underpayment patterns, sample-size-aware confidence scoring, severity
// classification and messaging, incremental trend updates from audit
// outcomes, and claim-level aggregate risk assessment.
//
// The engine is pure computation over pattern data supplied by a
// carrier.PatternRepository; read paths are safe to invoke concurrently.
package underpay

import (
	"strings"
	"unicode"
)

// stopwords are connective words carrying no matching signal in short
// trade-description text.
var stopwords = map[string]struct{}{
	"and":  {},
	"the":  {},
	"for":  {},
	"of":   {},
	"to":   {},
	"in":   {},
	"on":   {},
	"at":   {},
	"per":  {},
	"with": {},
	"from": {},
	"or":   {},
	"by":   {},
}

// abbreviations maps trade shorthand to its expansions.  Expansion is
// additive (the original token is retained) so exact-abbreviation matches
// still succeed.
var abbreviations = map[string][]string{
	"sq":   {"square", "squares"},
	"arch": {"architectural", "architecture"},
	"lf":   {"linear", "feet"},
	"sf":   {"square", "feet"},
	"hv":   {"hvac"},
	"ins":  {"insulation", "install"},
	"rem":  {"remove", "removal"},
	"rep":  {"replace", "repair"},
	"flsh": {"flashing"},
	"mod":  {"modified", "modifier"},
	"comp": {"composition", "composite"},
	"asph": {"asphalt"},
	"shgl": {"shingle", "shingles"},
}

// Normalize tokenizes raw line-item or gap-phrase text into an ordered,
// de-duplicated list of lowercase alphanumeric tokens of length >= 2, with
// stopwords removed and trade abbreviations expanded additively.  It is
// deterministic, side-effect free, and idempotent on its own output.
func Normalize(text string) []string {
	raw := splitAlnum(strings.ToLower(text))

	seen := make(map[string]struct{}, len(raw)*2)
	out := make([]string, 0, len(raw)*2)
	add := func(tok string) {
		if len(tok) < 2 {
			return
		}
		if _, stop := stopwords[tok]; stop {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, tok := range raw {
		add(tok)
		for _, exp := range abbreviations[tok] {
			add(exp)
		}
	}
	return out
}

// splitAlnum splits text on every non-alphanumeric rune.
func splitAlnum(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
