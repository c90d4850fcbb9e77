// Package templategen proposes extraction patterns for unfamiliar invoice
// layouts using a language model. Suggestions are descriptors only; they
// are compiled and validated before anything trusts them.
package templategen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/extract"
)

// Suggester asks a chat model to describe the line-item layout of sample
// invoice lines as a pattern descriptor.
type Suggester struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewSuggester creates a new pattern suggester
func NewSuggester(apiKey, model string, logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Suggest proposes a pattern for the given sample lines. The model's answer
// is parsed as a descriptor and compiled; a suggestion that does not compile
// is an error, never a silently accepted pattern.
func (s *Suggester) Suggest(ctx context.Context, name string, samples []string) (*extract.Pattern, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("at least one sample line is required")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1024,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(samples),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		s.logger.Error("Pattern suggestion call failed", zap.Error(err))
		return nil, fmt.Errorf("pattern suggestion call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}
	content := resp.Choices[0].Message.Content

	pattern, err := ParseSuggestion(name, content)
	if err != nil {
		s.logger.Warn("Rejected model suggestion",
			zap.String("content", content),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Pattern suggested",
		zap.String("name", pattern.Name),
		zap.Int("fields", len(pattern.Fields)))
	return pattern, nil
}

// ParseSuggestion decodes a descriptor from model output and compiles it.
// The given name overrides whatever the model chose so callers control the
// pattern namespace.
func ParseSuggestion(name, content string) (*extract.Pattern, error) {
	var suggestion struct {
		Name   string          `json:"name"`
		Fields []extract.Field `json:"fields"`
	}
	if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion: %w", err)
	}

	pattern := &extract.Pattern{Name: name, Fields: suggestion.Fields}
	if pattern.Name == "" {
		pattern.Name = suggestion.Name
	}
	if err := pattern.Compile(); err != nil {
		return nil, fmt.Errorf("suggested pattern is invalid: %w", err)
	}
	return pattern, nil
}

const systemPrompt = `You describe invoice line-item layouts as JSON pattern descriptors.

A descriptor is {"name": string, "fields": [field...]} where each field is one of:
  {"kind": "literal", "literal": "<exact token>"}
  {"kind": "code", "capture": "code"}
  {"kind": "amount", "capture": "quantity" | "unit_price" | "total_price"}
  {"kind": "unit", "capture": "unit"}
  {"kind": "currency"}
Any field may carry "optional": true.

Rules:
- Fields appear in the exact left-to-right order of the sample lines.
- The descriptor must capture "code", "quantity", and "total_price".
- Currency markers like USD are "currency" fields, never amounts.
- Respond with the JSON descriptor only.`

func buildPrompt(samples []string) string {
	var b strings.Builder
	b.WriteString("Describe the layout of these invoice line items:\n\n")
	for _, line := range samples {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
