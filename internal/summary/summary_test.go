package summary

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/pacta/internal/llm"
	"github.com/ppiankov/pacta/internal/speaker"
)

type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	idx := p.calls
	p.calls++
	p.prompts = append(p.prompts, req.Prompt)
	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	if idx < len(p.responses) {
		return &llm.ChatResponse{Content: p.responses[idx]}, nil
	}
	return &llm.ChatResponse{Content: "{}"}, nil
}

func (p *scriptedProvider) Generate(_ context.Context, _ *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return true }

func repeatText(line string, chars int) string {
	var b strings.Builder
	for b.Len() < chars {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func TestGetTemplate(t *testing.T) {
	tpl, ok := GetTemplate("sales_call")
	if !ok {
		t.Fatal("Expected sales_call template to exist")
	}
	if tpl.DisplayName != "Sales Call" {
		t.Errorf("Expected display name Sales Call, got %s", tpl.DisplayName)
	}
	if _, ok := GetTemplate("nonexistent"); ok {
		t.Error("Expected lookup failure for unknown template")
	}
	if got := len(ListTemplates()); got != 6 {
		t.Errorf("Expected 6 templates, got %d", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	if lang := detectLanguage("Привет, это Елена. Обсудим бюджет."); lang != "ru" {
		t.Errorf("Expected ru, got %s", lang)
	}
	if lang := detectLanguage("Hi, this is Elena. Let's discuss the budget."); lang != "en" {
		t.Errorf("Expected en, got %s", lang)
	}
}

func TestBuildPrompt_Structure(t *testing.T) {
	prompt := BuildPrompt("default", "Hello, let's plan the launch together.", "", nil)

	if !strings.HasPrefix(prompt, "You are a JSON extraction engine.") {
		t.Error("Expected identity line first")
	}
	// Schema order: participants lead, summary and title trail, entities close.
	schemaStart := strings.Index(prompt, `"participants"`)
	summaryIdx := strings.Index(prompt, `"summary"`)
	titleIdx := strings.Index(prompt, `"title"`)
	entitiesIdx := strings.Index(prompt, `"entities"`)
	if !(schemaStart < summaryIdx && summaryIdx < titleIdx && titleIdx < entitiesIdx) {
		t.Errorf("Expected schema field order participants < summary < title < entities, got %d %d %d %d",
			schemaStart, summaryIdx, titleIdx, entitiesIdx)
	}
	if !strings.Contains(prompt, "EXAMPLE OF GOOD OUTPUT:") {
		t.Error("Expected one-shot example for default template")
	}
	if !strings.HasSuffix(prompt, "Start your response with {") {
		t.Error("Expected closing reminder")
	}
	if strings.Contains(prompt, "\\u003c") {
		t.Error("Expected schema placeholders unescaped")
	}
}

func TestBuildPrompt_TemplatePreamble(t *testing.T) {
	prompt := BuildPrompt("standup", "We shipped the login page yesterday and will do reviews today.", "", nil)
	if !strings.Contains(prompt, "This is a daily standup. Compress ruthlessly.") {
		t.Error("Expected standup preamble")
	}
	if strings.Contains(prompt, "EXAMPLE OF GOOD OUTPUT:") {
		t.Error("Expected no one-shot example outside the default template")
	}
}

func TestBuildPrompt_Russian(t *testing.T) {
	prompt := BuildPrompt("default", "Привет, это Елена. Давай обсудим бюджет на третий квартал.", "не забудь про найм", nil)
	if !strings.Contains(prompt, "Ты — движок извлечения данных в JSON.") {
		t.Error("Expected Russian identity")
	}
	if !strings.Contains(prompt, "ЗАМЕТКИ ПОЛЬЗОВАТЕЛЯ:\nне забудь про найм") {
		t.Error("Expected user notes block")
	}
	if !strings.Contains(prompt, "ТРАНСКРИПТ:") {
		t.Error("Expected Russian transcript label")
	}
}

func TestBuildPrompt_SegmentsTimestamped(t *testing.T) {
	segments := []speaker.Segment{
		{Start: 0, End: 4, Text: "Hello everyone, welcome to planning."},
		{Start: 65, End: 70, Text: "Deadline is May 15."},
	}
	prompt := BuildPrompt("default", "ignored when segments present", "", segments)
	if !strings.Contains(prompt, "[0:00-0:04] Hello everyone, welcome to planning.") {
		t.Error("Expected timestamped transcript lines")
	}
	if !strings.Contains(prompt, "[1:05-1:10] Deadline is May 15.") {
		t.Error("Expected M:SS formatting")
	}
	if !strings.Contains(prompt, "Transcript has [M:SS] timestamps.") {
		t.Error("Expected timestamp instruction")
	}
}

func TestBuildPrompt_UnknownTemplateFallsBack(t *testing.T) {
	prompt := BuildPrompt("made_up", "Hello, quick sync about the release.", "", nil)
	if !strings.Contains(prompt, "EXAMPLE OF GOOD OUTPUT:") {
		t.Error("Expected unknown template to fall back to default")
	}
}

func TestSummarize_TooShort(t *testing.T) {
	provider := &scriptedProvider{}
	s := NewSummarizer(provider)

	if got := s.Summarize(context.Background(), "hi", "default", "", nil); got != nil {
		t.Errorf("Expected nil for short transcript, got %v", got)
	}
	if provider.calls != 0 {
		t.Errorf("Expected no provider calls, got %d", provider.calls)
	}
}

func TestSummarize_SinglePass(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"summary": "Team froze hiring.", "title": "Hiring Freeze", "key_points": ["Budget overrun"]}`},
	}
	s := NewSummarizer(provider)

	got := s.Summarize(context.Background(), repeatText("Anna: we must freeze hiring now.", 100), "default", "", nil)
	if got == nil {
		t.Fatal("Expected summary, got nil")
	}
	if got["title"] != "Hiring Freeze" {
		t.Errorf("Expected title preserved, got %v", got["title"])
	}
}

func TestSummarize_DegradesToRawText(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"The call was mostly about the hiring freeze and budget cuts."},
	}
	s := NewSummarizer(provider)

	got := s.Summarize(context.Background(), repeatText("Anna: freeze hiring.", 100), "default", "", nil)
	if got == nil {
		t.Fatal("Expected degraded summary, got nil")
	}
	if got["summary"] != "The call was mostly about the hiring freeze and budget cuts." {
		t.Errorf("Expected raw text as summary, got %v", got["summary"])
	}
	if points, ok := got["key_points"].([]any); !ok || len(points) != 0 {
		t.Errorf("Expected empty key_points, got %v", got["key_points"])
	}
}

func TestSummarize_RepairedTruncation(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"summary": "ok", "entities": [{"name": "Anna", "type": "person"}, {"name": "Ma`},
	}
	s := NewSummarizer(provider)

	got := s.Summarize(context.Background(), repeatText("Anna: decisions were made.", 100), "default", "", nil)
	if got == nil {
		t.Fatal("Expected repaired summary, got nil")
	}
	if got["_repaired"] != true {
		t.Errorf("Expected _repaired flag, got %v", got["_repaired"])
	}
}

func TestSummarize_MapReduce(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{
			`{"summary": "First part.", "key_points": ["a"]}`,
			`{"summary": "Second part.", "key_points": ["b"]}`,
			`{"summary": "Whole call.", "key_points": ["a", "b"]}`,
		},
	}
	s := &Summarizer{provider: provider, maxChars: 400, overlap: 50}

	got := s.Summarize(context.Background(), repeatText("Anna: let us keep going with the plan.", 500), "default", "notes here", nil)
	if got == nil {
		t.Fatal("Expected merged summary, got nil")
	}
	if provider.calls != 3 {
		t.Fatalf("Expected 2 map calls + 1 merge call, got %d", provider.calls)
	}
	if got["summary"] != "Whole call." {
		t.Errorf("Expected merged summary, got %v", got["summary"])
	}
	if got["_chunks"] != 2 {
		t.Errorf("Expected _chunks=2, got %v", got["_chunks"])
	}
	if !strings.Contains(provider.prompts[0], "USER NOTES:\nnotes here") {
		t.Error("Expected notes passed to first chunk")
	}
	if strings.Contains(provider.prompts[1], "USER NOTES:") {
		t.Error("Expected notes withheld from later chunks")
	}
	if !strings.Contains(provider.prompts[2], "INTERMEDIATE SUMMARIES:") {
		t.Error("Expected merge prompt for final call")
	}
}

func TestSummarize_MergeFallsBackToMechanical(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{
			`{"summary": "First part.", "key_points": ["a", "b"], "title": "T1"}`,
			`{"summary": "Second part.", "key_points": ["b", "c"], "title": "T2"}`,
			"merge output that is not json",
		},
	}
	s := &Summarizer{provider: provider, maxChars: 400, overlap: 50}

	got := s.Summarize(context.Background(), repeatText("Anna: keep going with the plan today.", 500), "default", "", nil)
	if got == nil {
		t.Fatal("Expected mechanical merge result, got nil")
	}
	if got["summary"] != "First part. Second part." {
		t.Errorf("Expected concatenated summaries, got %v", got["summary"])
	}
	if got["title"] != "T1" {
		t.Errorf("Expected first non-empty title, got %v", got["title"])
	}
	points, _ := got["key_points"].([]any)
	if len(points) != 3 {
		t.Errorf("Expected deduplicated key_points [a b c], got %v", points)
	}
}

func TestMechanicalMerge_SkipsInternalKeys(t *testing.T) {
	merged := mechanicalMerge([]map[string]any{
		{"_repaired": true, "summary": "one"},
		{"_chunks": 3, "summary": "two"},
	})
	if _, ok := merged["_repaired"]; ok {
		t.Error("Expected internal keys skipped")
	}
	if merged["summary"] != "one two" {
		t.Errorf("Expected summary concatenation, got %v", merged["summary"])
	}
}
