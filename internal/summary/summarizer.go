package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/chunk"
	"github.com/ppiankov/pacta/internal/extract"
	"github.com/ppiankov/pacta/internal/llm"
	"github.com/ppiankov/pacta/internal/speaker"
)

const minTranscriptChars = 50

const mergePromptRU = `Ты — движок объединения результатов. Ниже приведены %d промежуточных JSON-резюме, полученных из последовательных частей одного длинного звонка.

Твоя задача — объединить их в ОДИН итоговый JSON со следующими правилами:
1. summary — общее резюме всего звонка (2-4 предложения), а не перечисление резюме чанков.
2. title — один заголовок, отражающий ВЕСЬ звонок.
3. Все списочные поля (key_points, decisions, action_items, participants и др.) — объедини, убери полные дубликаты. Сохраняй порядок: от начала звонка к концу.
4. participants — объедини из всех чанков, убери дубликаты.
5. entities — объедини из всех чанков, убери дубликаты.
6. Используй ТОЛЬКО поля из входных данных. НЕ добавляй новые.
7. Выводи ТОЛЬКО JSON. Начни с {

ПРОМЕЖУТОЧНЫЕ РЕЗЮМЕ:
%s`

const mergePromptEN = `You are a result merging engine. Below are %d intermediate JSON summaries from consecutive parts of the same long call.

Your task: merge them into ONE final JSON following these rules:
1. summary — overall summary of the entire call (2-4 sentences), not a list of chunk summaries.
2. title — one title reflecting the WHOLE call.
3. All list fields (key_points, decisions, action_items, participants, etc.) — merge and deduplicate. Preserve chronological order: start to end.
4. participants — merge from all chunks, deduplicate.
5. entities — merge from all chunks, deduplicate.
6. Use ONLY fields present in the inputs. Do NOT add new fields.
7. Output ONLY JSON. Start with {

INTERMEDIATE SUMMARIES:
%s`

// Summarizer generates structured summaries via an LLM, chunking long
// transcripts into a map-reduce flow.
type Summarizer struct {
	provider llm.Provider
	maxChars int
	overlap  int
}

// NewSummarizer creates a summarizer with default chunk sizes. The
// provider should carry a generous timeout; summarizing a full call can
// take minutes on local models.
func NewSummarizer(provider llm.Provider) *Summarizer {
	return &Summarizer{
		provider: provider,
		maxChars: chunk.DefaultMaxChars,
		overlap:  chunk.DefaultOverlap,
	}
}

// Summarize generates a summary from a transcript using a template.
// Returns nil when the transcript is too short or every attempt failed.
func (s *Summarizer) Summarize(ctx context.Context, transcript, templateName, notes string, segments []speaker.Segment) map[string]any {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		log.Info().Msg("transcript too short for summarization")
		return nil
	}

	chunks, err := chunk.Split(transcript, s.maxChars, s.overlap)
	if err != nil {
		log.Warn().Err(err).Msg("chunking failed")
		return nil
	}

	if len(chunks) == 1 {
		summary := s.summarizeSingle(ctx, transcript, templateName, notes, segments)
		if summary != nil {
			log.Info().Msg("summary generated")
		}
		return summary
	}

	log.Info().
		Int("chars", len(transcript)).
		Int("chunks", len(chunks)).
		Msg("long transcript, splitting for summarization")

	lang := mergeLanguage(transcript)

	// Map step. Notes steer only the opening chunk; segment timestamps do
	// not line up with chunk offsets, so chunks never get segments.
	var chunkSummaries []map[string]any
	for i, c := range chunks {
		log.Info().Int("chunk", i+1).Int("total", len(chunks)).Msg("summarizing chunk")
		chunkNotes := ""
		if i == 0 {
			chunkNotes = notes
		}
		result := s.summarizeSingle(ctx, c, templateName, chunkNotes, nil)
		if result == nil {
			log.Warn().Int("chunk", i+1).Msg("chunk summarization failed")
			continue
		}
		chunkSummaries = append(chunkSummaries, result)
	}

	if len(chunkSummaries) == 0 {
		log.Warn().Msg("all chunk summarizations failed")
		return nil
	}
	if len(chunkSummaries) == 1 {
		log.Info().Msg("only one chunk succeeded, using it directly")
		return chunkSummaries[0]
	}

	// Reduce step.
	merged := s.mergeSummaries(ctx, chunkSummaries, lang)
	if merged != nil {
		merged["_chunks"] = len(chunks)
		log.Info().Int("chunks", len(chunks)).Msg("summary generated from merged chunks")
	}
	return merged
}

func (s *Summarizer) summarizeSingle(ctx context.Context, text, templateName, notes string, segments []speaker.Segment) map[string]any {
	prompt := BuildPrompt(templateName, text, notes, segments)
	log.Info().
		Str("provider", s.provider.Name()).
		Str("template", templateName).
		Int("chars", len(text)).
		Msg("summarizing")

	resp, err := s.provider.Chat(ctx, &llm.ChatRequest{
		Prompt:        prompt,
		Temperature:   0.1,
		MaxTokens:     16384,
		ContextWindow: 32768,
	})
	if err != nil {
		log.Warn().Err(err).Msg("LLM unavailable for summarization")
		return nil
	}

	result := parseSummary(resp.Content)
	if result == nil && strings.TrimSpace(resp.Content) != "" {
		preview := resp.Content
		if len(preview) > 200 {
			preview = preview[:200]
		}
		log.Warn().Str("preview", preview).Msg("failed to parse summary JSON, degrading to raw text")
		return map[string]any{
			"summary":      resp.Content,
			"key_points":   []any{},
			"decisions":    []any{},
			"action_items": []any{},
			"participants": []any{},
		}
	}
	return result
}

// parseSummary extracts a flat JSON object from model output, repairing
// truncated payloads when possible.
func parseSummary(raw string) map[string]any {
	text := extract.StripWrapping(raw)
	if text == "" {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed
	}

	repaired, ok := extract.RepairTruncated(text)
	if !ok {
		return nil
	}
	repaired["_repaired"] = true
	return repaired
}

func (s *Summarizer) mergeSummaries(ctx context.Context, chunkSummaries []map[string]any, lang string) map[string]any {
	var blocks []string
	for i, cs := range chunkSummaries {
		payload, err := json.MarshalIndent(cs, "", "  ")
		if err != nil {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- Chunk %d of %d ---\n%s", i+1, len(chunkSummaries), payload))
	}
	summariesText := strings.Join(blocks, "\n\n")

	promptTemplate := mergePromptEN
	if lang == "ru" {
		promptTemplate = mergePromptRU
	}
	prompt := fmt.Sprintf(promptTemplate, len(chunkSummaries), summariesText)

	log.Info().Int("count", len(chunkSummaries)).Msg("merging chunk summaries")
	resp, err := s.provider.Chat(ctx, &llm.ChatRequest{
		Prompt:        prompt,
		Temperature:   0.1,
		MaxTokens:     16384,
		ContextWindow: 32768,
	})
	if err == nil {
		if merged := parseSummary(resp.Content); merged != nil {
			return merged
		}
	}

	log.Warn().Msg("LLM merge failed, falling back to mechanical merge")
	return mechanicalMerge(chunkSummaries)
}

// mechanicalMerge combines chunk summaries without an LLM: first non-empty
// string wins except summary which concatenates, lists deduplicate by
// canonical JSON preserving order, internal keys are skipped.
func mechanicalMerge(chunkSummaries []map[string]any) map[string]any {
	merged := map[string]any{}
	seenLists := map[string]map[string]bool{}

	for _, cs := range chunkSummaries {
		keys := make([]string, 0, len(cs))
		for k := range cs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if strings.HasPrefix(key, "_") {
				continue
			}
			switch value := cs[key].(type) {
			case string:
				existing, _ := merged[key].(string)
				if existing == "" {
					merged[key] = value
				} else if key == "summary" {
					merged[key] = existing + " " + value
				}
			case []any:
				list, _ := merged[key].([]any)
				if seenLists[key] == nil {
					seenLists[key] = map[string]bool{}
				}
				for _, item := range value {
					itemKey := canonicalItemKey(item)
					if seenLists[key][itemKey] {
						continue
					}
					seenLists[key][itemKey] = true
					list = append(list, item)
				}
				merged[key] = list
			}
		}
	}

	return merged
}

func canonicalItemKey(item any) string {
	if m, ok := item.(map[string]any); ok {
		// encoding/json sorts map keys, giving a stable form.
		if b, err := json.Marshal(m); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", item)
}

// mergeLanguage picks the merge prompt language from a Cyrillic scan of
// the opening of the transcript.
func mergeLanguage(transcript string) string {
	runes := []rune(transcript)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	for _, r := range runes {
		if unicode.Is(unicode.Cyrillic, r) {
			return "ru"
		}
	}
	return "en"
}
