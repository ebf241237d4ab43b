package reply

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/pkg/session"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// DefaultAnthropicMaxTokens bounds reply length; the Anthropic API
// requires an explicit limit.
const DefaultAnthropicMaxTokens = 1024

// AnthropicGenerator implements Generator for Anthropic Claude.
type AnthropicGenerator struct {
	client       anthropic.Client
	model        string
	systemPrompt string
	maxTokens    int
	logger       zerolog.Logger
}

// NewAnthropic creates an Anthropic-backed generator.
func NewAnthropic(cfg Config, logger zerolog.Logger) *AnthropicGenerator {
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}

	return &AnthropicGenerator{
		client:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    maxTokens,
		logger:       logger.With().Str("component", "reply-anthropic").Logger(),
	}
}

// Provider returns the provider name
func (g *AnthropicGenerator) Provider() string {
	return "anthropic"
}

// Generate sends the prior history plus the new user text as chat context
// and returns the reply with the extended history.
func (g *AnthropicGenerator) Generate(ctx context.Context, userText string, history []session.Message) (*Reply, []session.Message, error) {
	messages := []anthropic.MessageParam{}

	for _, msg := range history {
		switch msg.Role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case "assistant":
			messages = append(messages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(msg.Content),
				},
			})
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(userText)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		Messages:  messages,
		MaxTokens: int64(g.maxTokens),
	}
	if g.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: g.systemPrompt},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("anthropic generation failed: %w", err)
	}

	text := ""
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	if text == "" {
		return nil, nil, fmt.Errorf("anthropic returned an empty reply")
	}

	updated := appendTurn(history, userText, text)

	g.logger.Debug().
		Int("history", len(updated)).
		Msg("Reply generated")

	return &Reply{Text: text}, updated, nil
}
