package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/chunk"
	"github.com/ppiankov/pacta/internal/llm"
	"github.com/ppiankov/pacta/internal/model"
	"github.com/ppiankov/pacta/internal/speaker"
)

const minTranscriptChars = 50

// Extractor runs commitment extraction against an LLM provider.
type Extractor struct {
	provider llm.Provider
	maxChars int
	overlap  int
}

// NewExtractor creates an extractor with default chunk sizes.
func NewExtractor(provider llm.Provider) *Extractor {
	return &Extractor{
		provider: provider,
		maxChars: chunk.DefaultMaxChars,
		overlap:  chunk.DefaultOverlap,
	}
}

// Extract finds commitments in a call transcript.
//
// Long transcripts are split into chunks, extracted independently, then
// merged and deduplicated. The result is always well-formed: extraction
// quality problems surface in Notes, never as errors.
func (e *Extractor) Extract(ctx context.Context, transcript string, speakers speaker.Map, callDate string) *model.Result {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return model.EmptyResult("transcript too short")
	}

	chunks, err := chunk.Split(transcript, e.maxChars, e.overlap)
	if err != nil {
		return model.EmptyResult(fmt.Sprintf("chunking failed: %v", err))
	}

	if len(chunks) == 1 {
		resp := e.extractSingle(ctx, transcript, speakers, callDate)
		return &model.Result{Commitments: resp.Commitments, Notes: resp.Notes}
	}

	log.Info().
		Int("chars", len(transcript)).
		Int("chunks", len(chunks)).
		Msg("long transcript, splitting for commitment extraction")

	var all []map[string]any
	var noteParts []string

	for i, c := range chunks {
		log.Info().Int("chunk", i+1).Int("total", len(chunks)).Msg("extracting commitments from chunk")
		resp := e.extractSingle(ctx, c, speakers, callDate)

		baseID := len(all)
		for j, cm := range resp.Commitments {
			cm["id"] = baseID + j + 1
		}
		all = append(all, resp.Commitments...)

		if resp.Notes != "" {
			noteParts = append(noteParts, fmt.Sprintf("chunk %d: %s", i+1, resp.Notes))
		}
	}

	unique := Dedupe(all)
	for i, c := range unique {
		c["id"] = i + 1
	}

	log.Info().
		Int("raw", len(all)).
		Int("unique", len(unique)).
		Int("chunks", len(chunks)).
		Msg("commitment extraction complete")

	result := &model.Result{Commitments: unique, Chunks: len(chunks)}
	if len(noteParts) > 0 {
		result.Notes = strings.Join(noteParts, "; ")
	}
	return result
}

// extractSingle runs the strategy ladder against one chunk. A transport
// failure short-circuits: there is no point retrying a dead endpoint with
// a different prompt.
func (e *Extractor) extractSingle(ctx context.Context, text string, speakers speaker.Map, callDate string) *Response {
	for _, strat := range strategies {
		prompt := buildPrompt(strat.Prompt, text, speakers, callDate)

		log.Info().
			Str("provider", e.provider.Name()).
			Str("strategy", strat.Name).
			Msg("extracting commitments")

		chatResp, err := e.provider.Chat(ctx, &llm.ChatRequest{
			Prompt:        prompt,
			Temperature:   0.1,
			MaxTokens:     16384,
			ContextWindow: 32768,
		})
		if err != nil {
			log.Warn().Err(err).Msg("LLM service unavailable")
			return &Response{Commitments: []map[string]any{}, Notes: "Ollama unavailable"}
		}

		resp, ok := ParseResponse(chatResp.Content)
		if ok {
			outgoing, incoming := countDirections(resp.Commitments)
			log.Info().
				Int("count", len(resp.Commitments)).
				Int("outgoing", outgoing).
				Int("incoming", incoming).
				Str("strategy", strat.Name).
				Msg("extracted commitments")
			return resp
		}

		preview := chatResp.Content
		if len(preview) > 200 {
			preview = preview[:200]
		}
		log.Warn().Str("strategy", strat.Name).Str("preview", preview).Msg("JSON parse failed")
	}

	log.Warn().Msg("commitment extraction failed after 2 attempts")
	return &Response{Commitments: []map[string]any{}, Notes: "extraction failed after 2 attempts"}
}

func buildPrompt(template, transcript string, speakers speaker.Map, callDate string) string {
	speakerJSON, err := json.MarshalIndent(speakers, "", "  ")
	if err != nil {
		speakerJSON = []byte("{}")
	}
	if callDate == "" {
		callDate = "unknown"
	}
	return fmt.Sprintf(
		"%s\n\nSPEAKER MAP (pre-resolved):\n%s\n\nCALL DATE: %s\n\nTRANSCRIPT:\n%s",
		template, speakerJSON, callDate, transcript,
	)
}

func countDirections(commitments []map[string]any) (outgoing, incoming int) {
	for _, c := range commitments {
		dir := firstString(c, "type", "direction")
		switch dir {
		case "outgoing":
			outgoing++
		case "incoming":
			incoming++
		}
	}
	return outgoing, incoming
}
