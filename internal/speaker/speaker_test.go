package speaker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/pacta/internal/llm"
)

type stubProvider struct {
	content string
	err     error
	prompt  string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.prompt = req.Prompt
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.content}, nil
}

func (s *stubProvider) Generate(_ context.Context, _ *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubProvider) IsAvailable(_ context.Context) bool { return true }

var testSegments = []Segment{
	{Start: 5, End: 9, Text: "Привет, это Елена.", Speaker: "SPEAKER_OTHER_1"},
	{Start: 10, End: 14, Text: "Привет! Я пришлю предложение до пятницы.", Speaker: "SPEAKER_ME"},
	{Start: 15, End: 16, Text: "  ", Speaker: "SPEAKER_OTHER_1"},
}

func TestResolve_Success(t *testing.T) {
	provider := &stubProvider{
		content: `{"speaker_map": {"SPEAKER_ME": {"confirmed": false}, "SPEAKER_OTHER_1": {"name": "Елена", "confidence": 0.95, "source": "self_introduction"}}, "resolution_notes": ""}`,
	}
	r := NewResolver(provider)

	m := r.Resolve(context.Background(), testSegments)

	if name, _ := m["SPEAKER_OTHER_1"]["name"].(string); name != "Елена" {
		t.Errorf("Expected resolved name Елена, got %v", m["SPEAKER_OTHER_1"]["name"])
	}
	// The mic channel wins over whatever the model claimed.
	if confirmed, _ := m["SPEAKER_ME"]["confirmed"].(bool); !confirmed {
		t.Error("Expected SPEAKER_ME forced to confirmed=true")
	}
	if source, _ := m["SPEAKER_ME"]["source"].(string); source != "mic_channel" {
		t.Errorf("Expected SPEAKER_ME source mic_channel, got %v", source)
	}

	if !strings.Contains(provider.prompt, "TRANSCRIPT:\n[0:05] SPEAKER_OTHER_1: Привет, это Елена.") {
		t.Errorf("Expected formatted transcript in prompt, got:\n%s", provider.prompt)
	}
}

func TestResolve_UnwrappedMap(t *testing.T) {
	provider := &stubProvider{
		content: `{"SPEAKER_OTHER_1": {"name": "Ivan", "confidence": 0.85}}`,
	}
	r := NewResolver(provider)

	m := r.Resolve(context.Background(), testSegments)
	if name, _ := m["SPEAKER_OTHER_1"]["name"].(string); name != "Ivan" {
		t.Errorf("Expected whole object treated as map, got %v", m)
	}
	if _, ok := m["SPEAKER_ME"]; !ok {
		t.Error("Expected SPEAKER_ME added to the map")
	}
}

func TestResolve_FencedResponse(t *testing.T) {
	provider := &stubProvider{
		content: "```json\n{\"speaker_map\": {\"SPEAKER_OTHER_1\": {\"name\": \"Elena\", \"confidence\": 0.9}}}\n```",
	}
	r := NewResolver(provider)

	m := r.Resolve(context.Background(), testSegments)
	if name, _ := m["SPEAKER_OTHER_1"]["name"].(string); name != "Elena" {
		t.Errorf("Expected fenced JSON parsed, got %v", m)
	}
}

func TestResolve_FallsBack(t *testing.T) {
	cases := []struct {
		name     string
		provider *stubProvider
		segments []Segment
	}{
		{"no segments", &stubProvider{content: "{}"}, nil},
		{"empty text", &stubProvider{content: "{}"}, []Segment{{Start: 1, Text: "   ", Speaker: "SPEAKER_ME"}}},
		{"provider error", &stubProvider{err: fmt.Errorf("connection refused")}, testSegments},
		{"garbage response", &stubProvider{content: "I could not identify anyone."}, testSegments},
		{"empty response", &stubProvider{content: "  "}, testSegments},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(tc.provider)
			m := r.Resolve(context.Background(), tc.segments)
			if len(m) != 1 {
				t.Fatalf("Expected fallback map with 1 entry, got %d", len(m))
			}
			if confirmed, _ := m["SPEAKER_ME"]["confirmed"].(bool); !confirmed {
				t.Error("Expected fallback SPEAKER_ME confirmed")
			}
		})
	}
}

func TestFormatTranscript(t *testing.T) {
	m := Map{
		"SPEAKER_OTHER_1": {"name": "Елена", "confidence": 0.85},
	}
	segments := []Segment{
		{Start: 83, Text: "Хорошо, я пришлю тебе предложение до пятницы.", Speaker: "SPEAKER_ME"},
		{Start: 91, Text: "Отлично, буду ждать.", Speaker: "SPEAKER_OTHER_1"},
		{Start: 95, Text: "", Speaker: "SPEAKER_ME"},
	}

	got := FormatTranscript(segments, m)
	want := "[00:01:23] SPEAKER_ME: Хорошо, я пришлю тебе предложение до пятницы.\n" +
		"[00:01:31] SPEAKER_OTHER_1 (Елена, conf=0.85): Отлично, буду ждать."
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestFormatSegments_SkipsEmpty(t *testing.T) {
	got := FormatSegments(testSegments)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines (empty segment skipped), got %d", len(lines))
	}
	if lines[1] != "[0:10] SPEAKER_ME: Привет! Я пришлю предложение до пятницы." {
		t.Errorf("Unexpected line: %s", lines[1])
	}
}

func TestFallback_Copies(t *testing.T) {
	a := Fallback()
	a["SPEAKER_ME"]["source"] = "mutated"
	b := Fallback()
	if b["SPEAKER_ME"]["source"] != "mic_channel" {
		t.Error("Expected Fallback to return a fresh map each call")
	}
}
