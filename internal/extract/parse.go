package extract

import (
	"encoding/json"
	"strings"
)

// Response is a parsed extraction payload from the model.
type Response struct {
	Commitments []map[string]any
	Notes       string
	Repaired    bool
}

// ParseResponse extracts a structured payload from raw model output.
//
// Handles think-block leakage, markdown code fences, and truncated JSON
// (the model running out of tokens mid-array). Returns false when no
// object with a commitments array can be recovered.
func ParseResponse(raw string) (*Response, bool) {
	text := StripWrapping(raw)

	repaired := false
	parsed, ok := parseObject(text)
	if !ok {
		parsed, ok = RepairTruncated(text)
		if !ok {
			return nil, false
		}
		repaired = true
	}

	rawList, ok := parsed["commitments"].([]any)
	if !ok {
		return nil, false
	}

	commitments := make([]map[string]any, 0, len(rawList))
	for _, item := range rawList {
		if m, ok := item.(map[string]any); ok {
			commitments = append(commitments, m)
		}
	}

	resp := &Response{Commitments: commitments, Repaired: repaired}
	if notes, ok := parsed["extraction_notes"].(string); ok {
		resp.Notes = notes
	}
	return resp, true
}

// StripWrapping removes a leaked <think> block and markdown code fences.
func StripWrapping(raw string) string {
	text := raw

	if idx := strings.Index(text, "<think>"); idx >= 0 {
		if end := strings.Index(text, "</think>"); end >= 0 {
			text = strings.TrimSpace(text[end+len("</think>"):])
		}
	}

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if !strings.HasPrefix(line, "```") {
				kept = append(kept, line)
			}
		}
		text = strings.Join(kept, "\n")
	}

	return strings.TrimSpace(text)
}

func parseObject(text string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// RepairTruncated attempts to close an object that was cut off mid-output.
// The text is truncated to its last closing brace, then unbalanced brackets
// counted in the prefix are appended.
func RepairTruncated(text string) (map[string]any, bool) {
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}

	last := strings.LastIndex(text, "}")
	if last < 0 {
		return nil, false
	}
	prefix := text[:last+1]

	openBrackets := strings.Count(prefix, "[") - strings.Count(prefix, "]")
	openBraces := strings.Count(prefix, "{") - strings.Count(prefix, "}")

	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; i < openBrackets; i++ {
		b.WriteString("]")
	}
	for i := 0; i < openBraces; i++ {
		b.WriteString("}")
	}

	return parseObject(b.String())
}
