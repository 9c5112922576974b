// Package model defines the canonical commitment record and the mapping from
// the two extraction output schemas onto it.
package model

import "strings"

// Direction classifies a commitment relative to the recording owner.
const (
	DirectionOutgoing   = "outgoing"
	DirectionIncoming   = "incoming"
	DirectionThirdParty = "third_party"
)

// Low model confidence marks a commitment as uncertain.
const uncertainConfidenceThreshold = 0.8

// Commitment is the canonical record: one person promising an action to
// another. Who and Text are required; everything else may be empty.
type Commitment struct {
	Direction   string `json:"direction"`
	Who         string `json:"who"`
	ToWhom      string `json:"to_whom,omitempty"`
	Text        string `json:"text"`
	Quote       string `json:"quote,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Uncertain   bool   `json:"uncertain,omitempty"`
	Conditional bool   `json:"conditional,omitempty"`
}

// FromRaw maps a raw extraction dict onto the canonical record.
//
// The schema is detected by key presence: the fallback strategy's verbose
// field names first, then the primary strategy's short names, then the
// annotation-format aliases used by ground truth files. Records missing a
// non-empty who or text map to (nil, false) and must be dropped.
func FromRaw(raw map[string]any) (*Commitment, bool) {
	if raw == nil {
		return nil, false
	}

	var c Commitment
	switch {
	case hasAny(raw, "commitment_text", "committer_label"):
		c = fromVerboseSchema(raw)
	case hasAny(raw, "what", "type"):
		c = fromSimpleSchema(raw)
	default:
		c = fromAnnotation(raw)
	}

	if c.Who == "" || c.Text == "" {
		return nil, false
	}
	return &c, true
}

// fromSimpleSchema maps the primary strategy's output
// (type/who/what/quote/deadline).
func fromSimpleSchema(raw map[string]any) Commitment {
	return Commitment{
		Direction: stringField(raw, "type"),
		Who:       resolveName(raw, []string{"who"}, []string{"who_name"}),
		ToWhom:    resolveName(raw, []string{"to_whom"}, []string{"to_whom_name"}),
		Text:      stringField(raw, "what"),
		Quote:     stringField(raw, "quote"),
		Deadline:  stringField(raw, "deadline"),
		Timestamp: stringField(raw, "timestamp"),
		Uncertain: boolField(raw, "uncertain"),
	}
}

// fromVerboseSchema maps the fallback strategy's output
// (direction/committer_label/commitment_text/verbatim_quote/deadline_raw,
// plus confidence and conditionality).
func fromVerboseSchema(raw map[string]any) Commitment {
	conditional := boolField(raw, "conditional")
	uncertain := boolField(raw, "uncertain")
	if conf, ok := floatField(raw, "commitment_confidence"); ok && conf < uncertainConfidenceThreshold {
		uncertain = true
	}
	if conditional {
		// Conditionality always forces uncertainty
		uncertain = true
	}

	return Commitment{
		Direction:   stringField(raw, "direction"),
		Who:         resolveName(raw, []string{"committer_label"}, []string{"committer_name"}),
		ToWhom:      resolveName(raw, []string{"recipient_label"}, []string{"recipient_name"}),
		Text:        stringField(raw, "commitment_text"),
		Quote:       stringField(raw, "verbatim_quote"),
		Deadline:    stringField(raw, "deadline_raw"),
		Timestamp:   stringField(raw, "timestamp"),
		Uncertain:   uncertain,
		Conditional: conditional,
	}
}

// fromAnnotation maps ground-truth records, which historically allowed
// several alias chains per field.
func fromAnnotation(raw map[string]any) Commitment {
	return Commitment{
		Direction: stringField(raw, "direction"),
		Who: resolveName(raw,
			[]string{"who", "who_label", "agent_label"},
			[]string{"who_name", "agent_name"}),
		ToWhom: resolveName(raw,
			[]string{"to_whom", "to_label", "beneficiary_label"},
			[]string{"to_whom_name", "to_name", "beneficiary_name"}),
		Text:        firstString(raw, "text", "commitment_text", "what"),
		Quote:       firstString(raw, "quote", "verbatim_quote", "verbatim"),
		Deadline:    firstString(raw, "deadline", "deadline_raw"),
		Timestamp:   stringField(raw, "timestamp"),
		Uncertain:   boolField(raw, "uncertain"),
		Conditional: boolField(raw, "conditional"),
	}
}

// resolveName picks the speaker label from labelKeys, then overrides it with a
// resolved name when the label is a generic SPEAKER_ placeholder.
func resolveName(raw map[string]any, labelKeys, nameKeys []string) string {
	label := firstString(raw, labelKeys...)
	name := firstString(raw, nameKeys...)
	if name != "" && strings.HasPrefix(label, "SPEAKER_") {
		return name
	}
	return label
}

func hasAny(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := raw[k]; ok {
			return true
		}
	}
	return false
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(raw, k); s != "" {
			return s
		}
	}
	return ""
}

func boolField(raw map[string]any, key string) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return false
}

func floatField(raw map[string]any, key string) (float64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
