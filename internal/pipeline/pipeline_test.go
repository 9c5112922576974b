package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/pacta/internal/cache"
	"github.com/ppiankov/pacta/internal/llm"
	"github.com/ppiankov/pacta/internal/speaker"
	"github.com/ppiankov/pacta/internal/store"
)

// scriptedProvider replays canned chat responses in order.
type scriptedProvider struct {
	responses []string
	calls     int
	available bool
	chatErr   error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.chatErr != nil {
		return nil, p.chatErr
	}
	if p.calls >= len(p.responses) {
		return nil, fmt.Errorf("unexpected chat call %d", p.calls)
	}
	resp := p.responses[p.calls]
	p.calls++
	return &llm.ChatResponse{Content: resp}, nil
}

func (p *scriptedProvider) Generate(_ context.Context, _ *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return nil, errors.New("not used")
}

func (p *scriptedProvider) IsAvailable(context.Context) bool { return p.available }

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pacta.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const testTranscript = "Anna: I will send over the quarterly report tomorrow morning. Boris: great, thanks."

func seedCall(t *testing.T, s *store.Store, sessionID string, segments []speaker.Segment) {
	t.Helper()
	err := s.InsertCall(context.Background(), &store.Call{
		SessionID:       sessionID,
		AppName:         "Zoom",
		StartedAt:       "2026-01-15T10:00:00",
		EndedAt:         "2026-01-15T10:30:00",
		DurationSeconds: 1800,
		Transcript:      testTranscript,
		Segments:        segments,
	})
	if err != nil {
		t.Fatalf("InsertCall failed: %v", err)
	}
}

const speakerMapResponse = `{"SPEAKER_00": {"name": "Anna", "confidence": 0.9, "confirmed": true}}`

const summaryResponse = `{
	"title": "Report handoff",
	"summary": "Anna will send the quarterly report.",
	"key_points": ["report due tomorrow"],
	"decisions": [],
	"action_items": ["Send quarterly report"],
	"participants": ["Anna", "Boris"],
	"entities": [{"name": "Acme", "type": "company"}]
}`

const extractionResponse = `{
	"commitments": [
		{"id": 1, "type": "outgoing", "who": "Anna", "what": "send the quarterly report",
		 "quote": "I will send over the quarterly report", "deadline": "tomorrow"}
	]
}`

func TestProcess_FullFlow(t *testing.T) {
	s := testStore(t)
	segments := []speaker.Segment{
		{Start: 0, End: 6, Text: "I will send over the quarterly report tomorrow morning.", Speaker: "SPEAKER_00"},
		{Start: 6, End: 8, Text: "great, thanks.", Speaker: "SPEAKER_ME"},
	}
	seedCall(t, s, "s1", segments)

	provider := &scriptedProvider{
		available: true,
		responses: []string{speakerMapResponse, summaryResponse, extractionResponse},
	}
	p := New(s, nil, provider, Config{Model: "qwen3:14b"})

	outcome, err := p.Process(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("Expected 3 chat calls (speakers, summary, extraction), got %d", provider.calls)
	}
	if outcome.AISkipped {
		t.Error("Expected AI stages to run")
	}

	info := outcome.Speakers["SPEAKER_00"]
	if info == nil || info["name"] != "Anna" {
		t.Errorf("Expected resolved speaker Anna, got %v", outcome.Speakers)
	}
	if outcome.Commitments != 1 {
		t.Errorf("Expected 1 commitment, got %d", outcome.Commitments)
	}

	call, err := s.GetCall(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetCall failed: %v", err)
	}
	if call.Summary["title"] != "Report handoff" {
		t.Errorf("Expected saved summary, got %v", call.Summary)
	}
	if _, present := call.Summary["entities"]; present {
		t.Error("Expected entities moved out of the summary blob")
	}
	if call.TemplateName != "default" {
		t.Errorf("Expected default template recorded, got %q", call.TemplateName)
	}

	entities, err := s.EntitiesBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("EntitiesBySession failed: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "Acme" {
		t.Errorf("Expected Acme entity stored, got %+v", entities)
	}

	commitments, err := s.CommitmentsBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CommitmentsBySession failed: %v", err)
	}
	if len(commitments) != 1 || commitments[0].Text != "send the quarterly report" {
		t.Errorf("Expected stored commitment, got %+v", commitments)
	}
}

func TestProcess_ProviderUnavailable(t *testing.T) {
	s := testStore(t)
	seedCall(t, s, "s1", nil)

	provider := &scriptedProvider{available: false}
	p := New(s, nil, provider, Config{})

	outcome, err := p.Process(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !outcome.AISkipped {
		t.Error("Expected AI stages skipped")
	}
	if provider.calls != 0 {
		t.Errorf("Expected no chat calls, got %d", provider.calls)
	}

	// Fallback map still names the recording owner.
	if _, ok := outcome.Speakers["SPEAKER_ME"]; !ok {
		t.Errorf("Expected fallback speaker map, got %v", outcome.Speakers)
	}
	if outcome.Summary != nil || outcome.Commitments != 0 {
		t.Errorf("Expected no AI output, got %+v", outcome)
	}

	// Transcript survives the degraded run.
	call, err := s.GetCall(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetCall failed: %v", err)
	}
	if call.Transcript != testTranscript {
		t.Errorf("Expected transcript kept, got %q", call.Transcript)
	}
}

func TestProcess_NilProvider(t *testing.T) {
	s := testStore(t)
	seedCall(t, s, "s1", nil)

	p := New(s, nil, nil, Config{})
	outcome, err := p.Process(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !outcome.AISkipped {
		t.Error("Expected AI stages skipped with nil provider")
	}
}

func TestProcess_ExtractionCache(t *testing.T) {
	s := testStore(t)
	seedCall(t, s, "s1", nil) // no segments: extraction input is the raw transcript

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	provider := &scriptedProvider{
		available: true,
		responses: []string{summaryResponse, extractionResponse},
	}
	p := New(s, c, provider, Config{Model: "qwen3:14b"})

	outcome, err := p.Process(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Commitments != 1 {
		t.Fatalf("Expected 1 commitment on first run, got %d", outcome.Commitments)
	}

	// Second run: the provider errors on every chat, so only the cached
	// extraction can produce commitments.
	broken := &scriptedProvider{available: true, chatErr: errors.New("connection refused")}
	p2 := New(s, c, broken, Config{Model: "qwen3:14b"})

	outcome2, err := p2.Process(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome2.Commitments != 1 {
		t.Errorf("Expected cached extraction result, got %d commitments", outcome2.Commitments)
	}
	if outcome2.Summary != nil {
		t.Errorf("Expected degraded summary with broken provider, got %v", outcome2.Summary)
	}
}

func TestProcess_UnknownSession(t *testing.T) {
	p := New(testStore(t), nil, nil, Config{})
	if _, err := p.Process(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProcess_NoTranscript(t *testing.T) {
	s := testStore(t)
	err := s.InsertCall(context.Background(), &store.Call{
		SessionID: "s1", AppName: "Zoom",
		StartedAt: "2026-01-15T10:00:00", EndedAt: "2026-01-15T10:30:00",
		DurationSeconds: 1800,
	})
	if err != nil {
		t.Fatalf("InsertCall failed: %v", err)
	}

	p := New(s, nil, nil, Config{})
	if _, err := p.Process(context.Background(), "s1"); err == nil {
		t.Error("Expected error for call without transcript, got nil")
	}
}
