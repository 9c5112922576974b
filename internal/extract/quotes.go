package extract

import (
	"strings"

	"github.com/ppiankov/pacta/internal/model"
	"github.com/ppiankov/pacta/internal/score"
)

const quoteSupportThreshold = 0.8

// VerifyQuotes checks how many commitment quotes are actually supported by
// the transcript. A quote counts as supported when its normalized form
// appears as a substring, or a sliding window of the transcript reaches
// similarity 0.8. Informational only; records are never mutated.
func VerifyQuotes(commitments []model.Commitment, transcript string) (supported, total int) {
	normTranscript := score.Normalize(transcript)
	for _, c := range commitments {
		if c.Quote == "" {
			continue
		}
		total++
		if quoteSupported(c.Quote, normTranscript) {
			supported++
		}
	}
	return supported, total
}

func quoteSupported(quote, normTranscript string) bool {
	normQuote := score.Normalize(quote)
	if normQuote == "" {
		return false
	}
	if strings.Contains(normTranscript, normQuote) {
		return true
	}

	// Windowed fuzzy scan for quotes the model lightly paraphrased.
	qr := []rune(normQuote)
	tr := []rune(normTranscript)
	if len(tr) < len(qr) {
		return score.Similarity(normQuote, normTranscript) >= quoteSupportThreshold
	}

	step := len(qr) / 2
	if step < 1 {
		step = 1
	}
	for start := 0; start+len(qr) <= len(tr); start += step {
		window := string(tr[start : start+len(qr)])
		if score.Similarity(normQuote, window) >= quoteSupportThreshold {
			return true
		}
	}
	return false
}
