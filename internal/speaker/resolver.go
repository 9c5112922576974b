package speaker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/llm"
)

const resolutionPrompt = `You are analyzing a meeting transcript to identify the real names of speakers.

SPEAKER_ME is already identified — it's the person who owns this app (confirmed via mic channel).
Your job: identify the real names of SPEAKER_OTHER_1, SPEAKER_OTHER_2, etc.

IDENTIFICATION PATTERNS (in order of reliability):
1. SELF-INTRODUCTION (confidence: 0.95)
   Examples: "This is Elena", "My name is Alexander", "Hi, I'm John"
   Russian: "Это Елена", "Меня зовут Александр", "Добрый день, я Иван"

2. DIRECT ADDRESS + RESPONSE (confidence: 0.85)
   If SPEAKER_A says "[Name], can you..." and SPEAKER_B responds immediately → SPEAKER_B = Name
   Russian: "Елена, ты смотрела?" → следующий спикер отвечает → этот спикер = Елена

3. DIRECT ADDRESS without response confirmation (confidence: 0.70)
   "Thanks, Michael" — we know a Michael is present, but which speaker?

4. THIRD-PERSON INTRODUCTION → takes floor (confidence: 0.65)
   "Let me pass the floor to Dmitry" → next speaker = Dmitry

5. CONTEXTUAL INFERENCE (confidence: 0.40)
   Name appears in conversation but linkage to speaker is indirect.

RULES:
- SPEAKER_ME is always confirmed=true, source="mic_channel", no name inference needed
- If a name cannot be determined — return name: null, confidence: 0.0
- If the same speaker is addressed by two different names — pick the one with higher confidence
- Do not infer names from email addresses, company names, or product names

OUTPUT — valid JSON only, start with {:

{
  "speaker_map": {
    "SPEAKER_ME": {"confirmed": true, "source": "mic_channel"},
    "SPEAKER_OTHER_1": {
      "name": "<first name or full name from transcript>",
      "confidence": 0.0-1.0,
      "source": "self_introduction" | "direct_address_confirmed" | "direct_address" | "third_person_intro" | "contextual" | null,
      "evidence": "<exact quote from transcript that identified this speaker>"
    }
  },
  "resolution_notes": "<any ambiguities or edge cases>"
}`

// Resolver infers speaker names from transcript context via an LLM.
type Resolver struct {
	provider llm.Provider
}

// NewResolver creates a resolver backed by the given provider.
func NewResolver(provider llm.Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve identifies speakers from diarized segments. Any failure — no
// segments, service down, unparseable output — degrades to the fallback
// map; resolution never blocks the pipeline.
func (r *Resolver) Resolve(ctx context.Context, segments []Segment) Map {
	if len(segments) == 0 {
		log.Info().Msg("no segments provided for speaker resolution")
		return Fallback()
	}

	transcript := FormatSegments(segments)
	if transcript == "" {
		log.Info().Msg("empty transcript text for speaker resolution")
		return Fallback()
	}

	prompt := resolutionPrompt + "\n\nTRANSCRIPT:\n" + transcript

	log.Info().Str("provider", r.provider.Name()).Msg("resolving speakers")
	resp, err := r.provider.Chat(ctx, &llm.ChatRequest{
		Prompt:        prompt,
		Temperature:   0.1,
		MaxTokens:     2048,
		ContextWindow: 32768,
	})
	if err != nil {
		log.Warn().Err(err).Msg("LLM unavailable for speaker resolution")
		return Fallback()
	}

	text := stripThinkBlock(strings.TrimSpace(resp.Content))
	if text == "" {
		log.Warn().Msg("empty response for speaker resolution")
		return Fallback()
	}

	m, ok := parseMap(text)
	if !ok {
		preview := text
		if len(preview) > 200 {
			preview = preview[:200]
		}
		log.Warn().Str("preview", preview).Msg("failed to parse speaker resolution JSON")
		return Fallback()
	}

	// The owner's channel is ground truth regardless of what the model says.
	if me, ok := m["SPEAKER_ME"]; ok {
		me["confirmed"] = true
		me["source"] = "mic_channel"
	} else {
		m["SPEAKER_ME"] = map[string]any{"confirmed": true, "source": "mic_channel"}
	}

	log.Info().Int("speakers", len(m)).Msg("speaker resolution complete")
	return m
}

func stripThinkBlock(text string) string {
	if idx := strings.Index(text, "<think>"); idx >= 0 {
		if end := strings.Index(text, "</think>"); end >= 0 {
			return strings.TrimSpace(text[end+len("</think>"):])
		}
	}
	return text
}

// parseMap extracts the speaker map from model output, unwrapping a
// speaker_map key when present.
func parseMap(text string) (Map, bool) {
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if !strings.HasPrefix(line, "```") {
				kept = append(kept, line)
			}
		}
		text = strings.TrimSpace(strings.Join(kept, "\n"))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false
	}

	source := parsed
	if wrapped, ok := parsed["speaker_map"].(map[string]any); ok {
		source = wrapped
	}

	m := make(Map, len(source))
	for label, v := range source {
		if info, ok := v.(map[string]any); ok {
			m[label] = info
		}
	}
	if len(m) == 0 {
		return nil, false
	}
	return m, true
}
