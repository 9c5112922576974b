// Package chunk splits long transcripts into overlapping windows that fit
// within a bounded model context.
package chunk

import "fmt"

// Default chunk sizing for long transcripts (~30 min of conversation).
// 25K chars fits comfortably within a 32K token context with prompt overhead.
const (
	DefaultMaxChars = 25000
	DefaultOverlap  = 2000
)

// Split splits text into overlapping chunks cut at line boundaries.
//
// Each chunk after the first repeats the trailing overlap characters of its
// predecessor so context survives the cut. Chunks never split a line mid-way
// unless a single line exceeds maxChars.
func Split(text string, maxChars, overlap int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("maxChars must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("overlap must be in [0, maxChars), got overlap=%d maxChars=%d", overlap, maxChars)
	}

	if len(text) <= maxChars {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	textLen := len(text)

	for start < textLen {
		end := start + maxChars

		if end >= textLen {
			// Last chunk takes everything remaining
			chunks = append(chunks, text[start:])
			break
		}

		// Cut at the last newline inside the window to avoid splitting
		// mid-line. A cut within overlap bytes of the window start would
		// make the overlapped position regress, so the raw boundary wins
		// there and the overlap survives intact.
		if lastNL := lastIndexByte(text, '\n', start, end); lastNL > start && lastNL+1-overlap > start {
			end = lastNL + 1
		}

		chunks = append(chunks, text[start:end])
		start = end - overlap
	}

	return chunks, nil
}

// lastIndexByte returns the index of the last occurrence of c in text[start:end],
// or -1 if absent.
func lastIndexByte(text string, c byte, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if text[i] == c {
			return i
		}
	}
	return -1
}
