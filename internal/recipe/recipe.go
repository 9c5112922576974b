// Package recipe runs one-shot insight prompts against a stored call.
package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/llm"
)

const (
	minTranscriptChars = 50
	maxTranscriptChars = 12000
	maxSummaryChars    = 2000
)

// Recipe is a named prompt producing free-form text output.
type Recipe struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

var recipes = []Recipe{
	{
		Name:        "action-items",
		DisplayName: "Action Items",
		Description: "Extract tasks with owners and deadlines",
		Prompt: "Extract all action items, tasks, and commitments from this call. " +
			"For each item, include: who is responsible (@name), what needs to be done, " +
			"and any mentioned deadline. Format as a numbered list.",
	},
	{
		Name:        "follow-up-email",
		DisplayName: "Follow-up Email",
		Description: "Generate a follow-up email draft",
		Prompt: "Write a professional follow-up email based on this call. " +
			"Include: greeting, summary of what was discussed, agreed next steps, " +
			"and a closing. Keep it concise and actionable.",
	},
	{
		Name:        "risks",
		DisplayName: "Risks & Blockers",
		Description: "Identify risks, blockers, and concerns",
		Prompt: "Identify all risks, blockers, concerns, and potential issues mentioned " +
			"or implied in this call. For each, note the severity (high/medium/low) " +
			"and any suggested mitigation.",
	},
	{
		Name:        "key-decisions",
		DisplayName: "Key Decisions",
		Description: "All decisions with context and rationale",
		Prompt: "List all decisions made during this call. For each decision, include: " +
			"what was decided, who made or approved it, the rationale or context, " +
			"and any alternatives that were considered.",
	},
	{
		Name:        "tldr",
		DisplayName: "TL;DR",
		Description: "One paragraph summary",
		Prompt: "Write a single concise paragraph (3-5 sentences) summarizing this call. " +
			"Focus on the most important outcome, key decision, and immediate next step.",
	},
}

// Get looks up a recipe by name.
func Get(name string) (Recipe, bool) {
	for _, r := range recipes {
		if r.Name == name {
			return r, true
		}
	}
	return Recipe{}, false
}

// List returns all recipes in registry order.
func List() []Recipe {
	out := make([]Recipe, len(recipes))
	copy(out, recipes)
	return out
}

// Run executes a recipe against a transcript via the Generate endpoint.
// An existing summary, when available, is passed as extra context.
func Run(ctx context.Context, provider llm.Provider, name, transcript string, summary map[string]any) (string, error) {
	r, ok := Get(name)
	if !ok {
		return "", fmt.Errorf("unknown recipe: %s", name)
	}

	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return "", fmt.Errorf("transcript too short for recipe")
	}

	text := transcript
	if len(text) > maxTranscriptChars {
		text = text[:maxTranscriptChars]
	}

	parts := []string{r.Prompt}
	if len(summary) > 0 {
		if payload, err := json.Marshal(summary); err == nil {
			s := string(payload)
			if len(s) > maxSummaryChars {
				s = s[:maxSummaryChars]
			}
			parts = append(parts, "\nEXISTING SUMMARY: "+s+"\n")
		}
	}
	parts = append(parts, "", "TRANSCRIPT:", text)

	log.Info().Str("recipe", name).Str("provider", provider.Name()).Msg("running recipe")
	resp, err := provider.Generate(ctx, &llm.GenerateRequest{
		Prompt:      strings.Join(parts, "\n"),
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("recipe %s: %w", name, err)
	}

	return strings.TrimSpace(resp.Content), nil
}
