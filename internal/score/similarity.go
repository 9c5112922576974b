package score

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Normalize lowercases, trims, and collapses whitespace for comparison.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity computes a sequence-matcher ratio between two strings after
// normalization. Empty input on either side scores 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	m := difflib.NewMatcher(splitChars(Normalize(a)), splitChars(Normalize(b)))
	return m.Ratio()
}

// splitChars breaks a string into per-rune elements so the matcher operates
// at character granularity.
func splitChars(s string) []string {
	return strings.Split(s, "")
}

// speakerMatch reports whether two speaker identifiers refer to the same
// person. Without a speaker map a label cannot be verified against a name,
// so substring containment either way is accepted.
func speakerMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	if strings.HasPrefix(na, "speaker_me") && strings.HasPrefix(nb, "speaker_me") {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return false
}

// deadlineMatch: both absent is a match, one absent is not, otherwise fuzzy.
func deadlineMatch(a, b string) bool {
	if a == "" && b == "" {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return Similarity(a, b) >= 0.6
}
