// Package speaker resolves speaker identities from transcript context.
package speaker

import (
	"fmt"
	"strings"
)

// Map holds resolved speaker identities keyed by speaker label. Values are
// passed through to prompts verbatim, so the shape stays schemaless:
// typically name, confidence, source, evidence.
type Map map[string]map[string]any

// Fallback returns the minimal map: just the recording owner, confirmed via
// their microphone channel.
func Fallback() Map {
	return Map{
		"SPEAKER_ME": {"confirmed": true, "source": "mic_channel"},
	}
}

// Segment is one diarized span of the transcript.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker"`
}

// FormatSegments renders segments as timestamped lines for resolution
// prompts: [M:SS] LABEL: text. Empty-text segments are skipped.
func FormatSegments(segments []Segment) string {
	var lines []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		start := int(seg.Start)
		label := seg.Speaker
		if label == "" {
			label = "UNKNOWN"
		}
		lines = append(lines, fmt.Sprintf("[%d:%02d] %s: %s", start/60, start%60, label, text))
	}
	return strings.Join(lines, "\n")
}

// FormatTranscript renders segments with resolved names for downstream
// prompts:
//
//	[00:01:23] SPEAKER_ME: Хорошо, я пришлю тебе предложение до пятницы.
//	[00:01:31] SPEAKER_OTHER (Елена, conf=0.85): Отлично, буду ждать.
func FormatTranscript(segments []Segment, m Map) string {
	var lines []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		start := int(seg.Start)
		timestamp := fmt.Sprintf("[%02d:%02d:%02d]", start/3600, (start%3600)/60, start%60)

		label := seg.Speaker
		if label == "" {
			label = "UNKNOWN"
		}
		if info, ok := m[label]; ok {
			if name, _ := info["name"].(string); name != "" {
				conf, _ := info["confidence"].(float64)
				label = fmt.Sprintf("%s (%s, conf=%.2f)", label, name, conf)
			}
		}

		lines = append(lines, fmt.Sprintf("%s %s: %s", timestamp, label, text))
	}
	return strings.Join(lines, "\n")
}
