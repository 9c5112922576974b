package recipe

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/pacta/internal/llm"
)

type generateStub struct {
	content string
	err     error
	req     *llm.GenerateRequest
}

func (g *generateStub) Name() string { return "stub" }

func (g *generateStub) Chat(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, fmt.Errorf("recipes use Generate")
}

func (g *generateStub) Generate(_ context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &llm.GenerateResponse{Content: g.content}, nil
}

func (g *generateStub) IsAvailable(_ context.Context) bool { return true }

var sampleTranscript = strings.Repeat("SPEAKER_ME: I'll send the report by Friday.\n", 5)

func TestList(t *testing.T) {
	all := List()
	if len(all) != 5 {
		t.Fatalf("Expected 5 recipes, got %d", len(all))
	}
	if all[0].Name != "action-items" || all[4].Name != "tldr" {
		t.Errorf("Expected registry order preserved, got %s .. %s", all[0].Name, all[4].Name)
	}
}

func TestRun_UnknownRecipe(t *testing.T) {
	_, err := Run(context.Background(), &generateStub{}, "nope", sampleTranscript, nil)
	if err == nil {
		t.Fatal("Expected error for unknown recipe")
	}
}

func TestRun_ShortTranscript(t *testing.T) {
	_, err := Run(context.Background(), &generateStub{}, "tldr", "short", nil)
	if err == nil {
		t.Fatal("Expected error for short transcript")
	}
}

func TestRun_Success(t *testing.T) {
	stub := &generateStub{content: "  1. @Me: send report by Friday  "}

	out, err := Run(context.Background(), stub, "action-items", sampleTranscript, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "1. @Me: send report by Friday" {
		t.Errorf("Expected trimmed output, got %q", out)
	}
	if stub.req.Temperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %f", stub.req.Temperature)
	}
	if stub.req.MaxTokens != 1024 {
		t.Errorf("Expected max tokens 1024, got %d", stub.req.MaxTokens)
	}
	if !strings.Contains(stub.req.Prompt, "TRANSCRIPT:\nSPEAKER_ME:") {
		t.Error("Expected transcript in prompt")
	}
}

func TestRun_SummaryContext(t *testing.T) {
	stub := &generateStub{content: "ok"}

	_, err := Run(context.Background(), stub, "tldr", sampleTranscript, map[string]any{"title": "Report Deadline Agreed"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(stub.req.Prompt, `EXISTING SUMMARY: {"title":"Report Deadline Agreed"}`) {
		t.Errorf("Expected summary context in prompt, got:\n%s", stub.req.Prompt)
	}
}

func TestRun_TruncatesLongTranscript(t *testing.T) {
	stub := &generateStub{content: "ok"}
	long := strings.Repeat("SPEAKER_ME: words words words.\n", 1000)

	_, err := Run(context.Background(), stub, "tldr", long, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(stub.req.Prompt) > 13000 {
		t.Errorf("Expected transcript truncated to 12000 chars, prompt is %d", len(stub.req.Prompt))
	}
}

func TestRun_ProviderError(t *testing.T) {
	stub := &generateStub{err: fmt.Errorf("connection refused")}
	_, err := Run(context.Background(), stub, "risks", sampleTranscript, nil)
	if err == nil {
		t.Fatal("Expected error when provider unavailable")
	}
}
