// Package summary generates structured call summaries via an LLM, with
// template-driven prompts and chunked map-reduce for long transcripts.
package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/ppiankov/pacta/internal/speaker"
)

// marshalForPrompt encodes values for inclusion in prompt text: indented,
// without HTML escaping (the schema placeholders use angle brackets).
func marshalForPrompt(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Section is one field of a summary template.
type Section struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Template defines the structure of a summary.
type Template struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

var templates = []Template{
	{
		Name:        "default",
		DisplayName: "Default",
		Description: "Standard call summary with key points, decisions, and action items",
		Sections: []Section{
			{Key: "summary", Label: "Summary", Type: "text"},
			{Key: "key_points", Label: "Key Points", Type: "list"},
			{Key: "decisions", Label: "Decisions", Type: "list"},
			{Key: "action_items", Label: "Action Items", Type: "list"},
			{Key: "participants", Label: "Participants", Type: "list"},
		},
	},
	{
		Name:        "sales_call",
		DisplayName: "Sales Call",
		Description: "Sales-focused: objections, budget signals, decision makers, next steps",
		Sections: []Section{
			{Key: "summary", Label: "Summary", Type: "text"},
			{Key: "objections", Label: "Objections", Type: "list"},
			{Key: "budget_signals", Label: "Budget Signals", Type: "list"},
			{Key: "decision_makers", Label: "Decision Makers", Type: "list"},
			{Key: "next_steps", Label: "Next Steps", Type: "list"},
			{Key: "participants", Label: "Participants", Type: "list"},
		},
	},
	{
		Name:        "one_on_one",
		DisplayName: "1-on-1",
		Description: "One-on-one meeting: feedback, blockers, goals, mood",
		Sections: []Section{
			{Key: "summary", Label: "Summary", Type: "text"},
			{Key: "feedback", Label: "Feedback", Type: "list"},
			{Key: "blockers", Label: "Blockers", Type: "list"},
			{Key: "goals", Label: "Goals", Type: "list"},
			{Key: "mood", Label: "Mood", Type: "text"},
			{Key: "participants", Label: "Participants", Type: "list"},
		},
	},
	{
		Name:        "standup",
		DisplayName: "Standup",
		Description: "Daily standup: done yesterday, doing today, blockers",
		Sections: []Section{
			{Key: "summary", Label: "Summary", Type: "text"},
			{Key: "done_yesterday", Label: "Done Yesterday", Type: "list"},
			{Key: "doing_today", Label: "Doing Today", Type: "list"},
			{Key: "blockers", Label: "Blockers", Type: "list"},
			{Key: "participants", Label: "Participants", Type: "list"},
		},
	},
	{
		Name:        "interview",
		DisplayName: "Interview",
		Description: "Interview debrief: strengths, concerns, culture fit, recommendation",
		Sections: []Section{
			{Key: "summary", Label: "Summary", Type: "text"},
			{Key: "strengths", Label: "Strengths", Type: "list"},
			{Key: "concerns", Label: "Concerns", Type: "list"},
			{Key: "culture_fit", Label: "Culture Fit", Type: "text"},
			{Key: "recommendation", Label: "Recommendation", Type: "text"},
			{Key: "participants", Label: "Participants", Type: "list"},
		},
	},
	{
		Name:        "brainstorm",
		DisplayName: "Brainstorm",
		Description: "Brainstorming session: ideas, feasibility, next steps",
		Sections: []Section{
			{Key: "summary", Label: "Summary", Type: "text"},
			{Key: "ideas", Label: "Ideas", Type: "list"},
			{Key: "feasibility", Label: "Feasibility Notes", Type: "list"},
			{Key: "next_steps", Label: "Next Steps", Type: "list"},
			{Key: "participants", Label: "Participants", Type: "list"},
		},
	},
}

// GetTemplate looks up a template by name.
func GetTemplate(name string) (Template, bool) {
	for _, t := range templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// ListTemplates returns all templates in registry order.
func ListTemplates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// detectLanguage classifies text as primarily Cyrillic or Latin.
func detectLanguage(text string) string {
	runes := []rune(text)
	if len(runes) > 500 {
		runes = runes[:500]
	}
	cyrillic, latin := 0, 0
	for _, r := range runes {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			latin++
		}
	}
	if cyrillic > latin {
		return "ru"
	}
	return "en"
}

func formatTimestamp(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// formatTranscriptWithTimestamps renders [M:SS-M:SS] lines when segments
// are available, the raw transcript otherwise.
func formatTranscriptWithTimestamps(transcript string, segments []speaker.Segment) string {
	if len(segments) == 0 {
		return transcript
	}
	var lines []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s-%s] %s", formatTimestamp(seg.Start), formatTimestamp(seg.End), text))
	}
	if len(lines) == 0 {
		return transcript
	}
	return strings.Join(lines, "\n")
}

// Descriptive schema placeholders: they show the model what quality output
// looks like, right where the field is defined.
var fieldHints = map[string]map[string]any{
	"participants": {
		"en": []string{"<Name (role if mentioned)>"},
		"ru": []string{"<Имя (роль если упомянута)>"},
	},
	"key_points": {
		"en": []string{"<specific fact with names/numbers — one sentence>"},
		"ru": []string{"<конкретный факт с именами/числами — одно предложение>"},
	},
	"decisions": {
		"en": []string{"<firm decision that closes a question>"},
		"ru": []string{"<принятое решение, закрывающее вопрос>"},
	},
	"action_items": {
		"en": []string{"<@Name: specific task [by deadline if stated]>"},
		"ru": []string{"<@Имя: задача [к сроку если назван]>"},
	},
	"summary": {
		"en": "<2-3 sentences: purpose, outcome, what's next. Plain text only.>",
		"ru": "<2-3 предложения: зачем звонок, результат, что дальше. Только текст.>",
	},
	"title": {
		"en": "<5-8 words: WHO + WHAT + OUTCOME>",
		"ru": "<5-8 слов: КТО + ЧТО + РЕЗУЛЬТАТ>",
	},
	"objections": {
		"en": []string{"<resistance or concern — quote the prospect's words>"},
		"ru": []string{"<возражение — цитируй слова клиента>"},
	},
	"budget_signals": {
		"en": []string{"<explicit mention of money/budget — quote exact words>"},
		"ru": []string{"<явное упоминание денег/бюджета — точная цитата>"},
	},
	"decision_makers": {
		"en": []string{"<Name (role in purchase decision)>"},
		"ru": []string{"<Имя (роль в решении о покупке)>"},
	},
	"next_steps": {
		"en": []string{"<@Name: specific action [by when]>"},
		"ru": []string{"<@Имя: конкретное действие [к когда]>"},
	},
	"feedback": {
		"en": []string{"<Manager→Report or Report→Manager: specific feedback>"},
		"ru": []string{"<Руководитель→Сотрудник или наоборот: обратная связь>"},
	},
	"blockers": {
		"en": []string{"<specific obstacle blocking progress>"},
		"ru": []string{"<конкретное препятствие для прогресса>"},
	},
	"goals": {
		"en": []string{"<specific goal or development target>"},
		"ru": []string{"<конкретная цель или задача развития>"},
	},
	"mood": {
		"en": "<observable signals: energy, stress, engagement. Not inferred emotions.>",
		"ru": "<наблюдаемые сигналы: энергия, стресс, вовлечённость. Не домыслы.>",
	},
	"done_yesterday": {
		"en": []string{"<completed task — verb + what — max 8 words>"},
		"ru": []string{"<завершённая задача — глагол + что — макс. 8 слов>"},
	},
	"doing_today": {
		"en": []string{"<planned task — verb + what — max 8 words>"},
		"ru": []string{"<запланированная задача — глагол + что — макс. 8 слов>"},
	},
	"strengths": {
		"en": []string{"<competency + evidence from the interview>"},
		"ru": []string{"<компетенция + пример из интервью>"},
	},
	"concerns": {
		"en": []string{"<gap + evidence — job-relevant only>"},
		"ru": []string{"<пробел + доказательство — только по работе>"},
	},
	"culture_fit": {
		"en": "<candidate's stated work preferences only. If not discussed: ''>",
		"ru": "<только высказанные кандидатом предпочтения. Если не обсуждалось: ''>",
	},
	"recommendation": {
		"en": "<interviewer's explicit assessment ONLY. If none: 'No recommendation stated.'>",
		"ru": "<ТОЛЬКО явная оценка интервьюера. Если нет: 'Рекомендации не прозвучало.'>",
	},
	"ideas": {
		"en": []string{"<Idea — one line description. Only ideas that got real attention.>"},
		"ru": []string{"<Идея — описание. Только идеи, получившие реальное внимание.>"},
	},
	"feasibility": {
		"en": []string{"<Idea: feasibility concern explicitly raised in discussion>"},
		"ru": []string{"<Идея: проблема реализуемости, явно озвученная>"},
	},
}

// buildSchema renders the schema JSON with fields in extraction order:
// participants first, content next, summary and title last, entities
// closing. The model extracts facts before it synthesizes.
func buildSchema(t Template, lang string) string {
	type entry struct {
		key   string
		value any
	}

	hint := func(key string) (any, bool) {
		if byLang, ok := fieldHints[key]; ok {
			if v, ok := byLang[lang]; ok {
				return v, true
			}
		}
		return nil, false
	}

	entries := []entry{}
	if v, ok := hint("participants"); ok {
		entries = append(entries, entry{"participants", v})
	} else {
		entries = append(entries, entry{"participants", []string{"<participant>"}})
	}

	for _, section := range t.Sections {
		if section.Key == "summary" || section.Key == "participants" {
			continue
		}
		if v, ok := hint(section.Key); ok {
			entries = append(entries, entry{section.Key, v})
		} else if section.Type == "text" {
			entries = append(entries, entry{section.Key, "<" + strings.ToLower(section.Label) + ">"})
		} else {
			entries = append(entries, entry{section.Key, []string{"<" + strings.ToLower(section.Label) + " item>"}})
		}
	}

	if v, ok := hint("summary"); ok {
		entries = append(entries, entry{"summary", v})
	}
	if v, ok := hint("title"); ok {
		entries = append(entries, entry{"title", v})
	}
	entries = append(entries, entry{"entities", []map[string]string{
		{"name": "<name>", "type": "<person|company|product|tool>"},
	}})

	// Hand-assembled so field order survives; encoding/json sorts map keys.
	var b strings.Builder
	b.WriteString("{\n")
	for i, e := range entries {
		valueJSON, err := marshalForPrompt(e.value, "  ", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "  %q: %s", e.key, valueJSON)
		if i < len(entries)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}
