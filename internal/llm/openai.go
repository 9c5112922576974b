package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI and
// OpenAI-compatible endpoints
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Lightweight API call: list models
	_, err := p.client.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("openai availability check failed")
		return false
	}
	return true
}

// Chat sends a single-message chat completion
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	content, err := p.complete(ctx, req.Prompt, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Content: content}, nil
}

// Generate maps onto chat completions; OpenAI has no separate completion path
// for modern models
func (p *OpenAIProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	content, err := p.complete(ctx, req.Prompt, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{Content: content}, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	timeout := p.config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := p.config.BaseURL
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	if err := requestLimiter.Wait(ctxWithTimeout, endpoint); err != nil {
		return "", err
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
