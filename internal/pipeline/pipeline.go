// Package pipeline runs the staged post-call flow: speaker resolution,
// summarization, commitment extraction, persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/cache"
	"github.com/ppiankov/pacta/internal/extract"
	"github.com/ppiankov/pacta/internal/llm"
	"github.com/ppiankov/pacta/internal/model"
	"github.com/ppiankov/pacta/internal/speaker"
	"github.com/ppiankov/pacta/internal/store"
	"github.com/ppiankov/pacta/internal/summary"
)

// Config controls pipeline behavior.
type Config struct {
	// DefaultTemplate is used when the call record carries no template.
	DefaultTemplate string

	// Model names the inference model, part of the extraction cache key.
	Model string

	// CacheTTL bounds cached extraction results.
	CacheTTL time.Duration
}

// Pipeline orchestrates the post-call processing stages.
type Pipeline struct {
	store      *store.Store
	cache      cache.Cache
	provider   llm.Provider
	resolver   *speaker.Resolver
	summarizer *summary.Summarizer
	extractor  *extract.Extractor
	cfg        Config
}

// New wires a pipeline around a store and an LLM provider. A nil provider
// disables all AI stages; a nil cache disables extraction caching.
func New(st *store.Store, c cache.Cache, provider llm.Provider, cfg Config) *Pipeline {
	if cfg.DefaultTemplate == "" {
		cfg.DefaultTemplate = "default"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	p := &Pipeline{
		store:    st,
		cache:    c,
		provider: provider,
		cfg:      cfg,
	}
	if provider != nil {
		p.resolver = speaker.NewResolver(provider)
		p.summarizer = summary.NewSummarizer(provider)
		p.extractor = extract.NewExtractor(provider)
	}
	return p
}

// Outcome reports what one Process run produced.
type Outcome struct {
	SessionID   string
	Speakers    speaker.Map
	Summary     map[string]any
	Commitments int
	AISkipped   bool
	Elapsed     time.Duration
}

// Process runs the staged flow over a stored call. Stage failures degrade:
// whatever was produced still gets saved, the error return is reserved for
// missing calls and storage failures.
func (p *Pipeline) Process(ctx context.Context, sessionID string) (*Outcome, error) {
	started := time.Now()

	call, err := p.store.GetCall(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if call.Transcript == "" {
		return nil, fmt.Errorf("pipeline: session %s has no transcript", sessionID)
	}

	outcome := &Outcome{SessionID: sessionID}

	available := p.provider != nil && p.provider.IsAvailable(ctx)
	if !available {
		outcome.AISkipped = true
		log.Warn().
			Str("session", sessionID).
			Msg("LLM provider unavailable, AI stages skipped")
	}

	// Stage 1: speaker resolution.
	outcome.Speakers = p.resolveSpeakers(ctx, call, available)

	// Stage 2: summarization.
	if available {
		outcome.Summary = p.summarize(ctx, call)
	}

	// Stage 3: commitment extraction.
	var extraction *model.Result
	if available {
		extraction = p.extractCommitments(ctx, call, outcome.Speakers)
	}

	// Stage 4: save everything the stages produced.
	if err := p.save(ctx, call, outcome, extraction); err != nil {
		return nil, err
	}
	if extraction != nil {
		outcome.Commitments = len(extraction.Commitments)
	}

	outcome.Elapsed = time.Since(started)
	log.Info().
		Str("session", sessionID).
		Int("commitments", outcome.Commitments).
		Bool("ai_skipped", outcome.AISkipped).
		Dur("duration", outcome.Elapsed).
		Msg("pipeline complete")
	return outcome, nil
}

func (p *Pipeline) resolveSpeakers(ctx context.Context, call *store.Call, available bool) speaker.Map {
	if !available || len(call.Segments) == 0 {
		return speaker.Fallback()
	}

	stageStart := time.Now()
	m := p.resolver.Resolve(ctx, call.Segments)
	log.Info().
		Str("stage", "speakers").
		Str("session", call.SessionID).
		Int("speakers", len(m)).
		Dur("duration", time.Since(stageStart)).
		Msg("speaker resolution complete")
	return m
}

func (p *Pipeline) summarize(ctx context.Context, call *store.Call) map[string]any {
	template := call.TemplateName
	if template == "" {
		template = p.cfg.DefaultTemplate
	}

	stageStart := time.Now()
	summ := p.summarizer.Summarize(ctx, call.Transcript, template, "", call.Segments)
	if summ == nil {
		log.Warn().
			Str("stage", "summary").
			Str("session", call.SessionID).
			Msg("summarization produced nothing")
		return nil
	}
	log.Info().
		Str("stage", "summary").
		Str("session", call.SessionID).
		Str("template", template).
		Dur("duration", time.Since(stageStart)).
		Msg("summarization complete")
	return summ
}

func (p *Pipeline) extractCommitments(ctx context.Context, call *store.Call, speakers speaker.Map) *model.Result {
	// Extraction reads the speaker-resolved transcript when segment timing
	// exists, raw text otherwise.
	input := call.Transcript
	if len(call.Segments) > 0 {
		input = speaker.FormatTranscript(call.Segments, speakers)
	}

	callDate := call.StartedAt
	if len(callDate) > 10 {
		callDate = callDate[:10]
	}

	key := cache.ExtractionKey(p.cfg.Model, input)
	if p.cache != nil {
		if data, found := p.cache.Get(key); found {
			var cached model.Result
			if json.Unmarshal(data, &cached) == nil {
				log.Info().
					Str("stage", "commitments").
					Str("session", call.SessionID).
					Msg("extraction cache hit")
				return &cached
			}
		}
	}

	stageStart := time.Now()
	result := p.extractor.Extract(ctx, input, speakers, callDate)
	log.Info().
		Str("stage", "commitments").
		Str("session", call.SessionID).
		Int("count", len(result.Commitments)).
		Dur("duration", time.Since(stageStart)).
		Msg("commitment extraction complete")

	if supported, total := extract.VerifyQuotes(normalizeResult(result), input); total > 0 {
		log.Debug().
			Str("session", call.SessionID).
			Int("supported", supported).
			Int("total", total).
			Msg("verbatim quote support")
	}

	if p.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := p.cache.Set(key, data, p.cfg.CacheTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache extraction result")
			}
		}
	}
	return result
}

func (p *Pipeline) save(ctx context.Context, call *store.Call, outcome *Outcome, extraction *model.Result) error {
	stageStart := time.Now()

	if outcome.Summary != nil {
		entities := store.EntitiesFromSummary(outcome.Summary)
		delete(outcome.Summary, "entities")

		call.Summary = outcome.Summary
		if call.TemplateName == "" {
			call.TemplateName = p.cfg.DefaultTemplate
		}
		if len(entities) > 0 {
			if err := p.store.InsertEntities(ctx, call.SessionID, entities); err != nil {
				return err
			}
		}
	}

	if err := p.store.InsertCall(ctx, call); err != nil {
		return err
	}

	if extraction != nil && len(extraction.Commitments) > 0 {
		if _, err := p.store.InsertCommitments(ctx, call.SessionID, extraction.Commitments); err != nil {
			return err
		}
	}

	log.Info().
		Str("stage", "save").
		Str("session", call.SessionID).
		Dur("duration", time.Since(stageStart)).
		Msg("saved to database")
	return nil
}

func normalizeResult(result *model.Result) []model.Commitment {
	out := make([]model.Commitment, 0, len(result.Commitments))
	for _, raw := range result.Commitments {
		if c, ok := model.FromRaw(raw); ok {
			out = append(out, *c)
		}
	}
	return out
}
