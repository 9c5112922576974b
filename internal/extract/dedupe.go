package extract

import "strings"

// Dedupe removes duplicate commitments that overlapping chunks produced.
// The key covers the core content; records with no usable key are kept
// rather than risk dropping data. First occurrence wins, order preserved.
func Dedupe(commitments []map[string]any) []map[string]any {
	seen := make(map[string]struct{})
	unique := make([]map[string]any, 0, len(commitments))

	for _, c := range commitments {
		key := dedupeKey(c)
		if key == "" {
			unique = append(unique, c)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}

	return unique
}

func dedupeKey(c map[string]any) string {
	parts := []string{
		firstString(c, "what", "commitment_text"),
		firstString(c, "who", "committer_label"),
		firstString(c, "to_whom", "recipient_label"),
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	key := strings.Join(parts, "|")
	if key == "||" {
		return ""
	}
	return key
}

func firstString(c map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := c[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
