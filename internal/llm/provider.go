// Package llm abstracts the inference backends used for extraction,
// summarization, and recipes.
package llm

import (
	"context"
	"time"
)

// Provider defines the interface for LLM backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Chat sends a single-message chat completion request and returns the
	// assistant content. Used for extraction, speaker resolution, and
	// summarization.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Generate sends a plain completion request. Used by recipes.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// ChatRequest carries a fully assembled prompt for a chat completion.
type ChatRequest struct {
	Prompt        string
	Temperature   float64
	MaxTokens     int
	ContextWindow int
}

// ChatResponse holds the assistant output. Thinking is informational only and
// must never be parsed for data.
type ChatResponse struct {
	Content  string
	Thinking string
}

// GenerateRequest carries a prompt for a plain completion.
type GenerateRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// GenerateResponse holds the completion output.
type GenerateResponse struct {
	Content string
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "ollama", "openai", "anthropic", "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, OpenAI-compatible servers)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// Temperature is the default sampling temperature
	Temperature float64

	// MaxTokens bounds response generation
	MaxTokens int

	// ContextWindow bounds the prompt context (Ollama num_ctx)
	ContextWindow int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the defaults for a local Ollama backend.
func DefaultConfig() Config {
	return Config{
		Provider:      "ollama",
		Model:         "qwen3:14b",
		BaseURL:       "http://localhost:11434",
		Timeout:       120 * time.Second,
		Temperature:   0.1,
		MaxTokens:     16384,
		ContextWindow: 32768,
	}
}
