package reply

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/pkg/session"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIGenerator implements Generator for OpenAI chat completions.
type OpenAIGenerator struct {
	client       openai.Client
	model        string
	systemPrompt string
	maxTokens    int
	logger       zerolog.Logger
}

// NewOpenAI creates an OpenAI-backed generator.
func NewOpenAI(cfg Config, logger zerolog.Logger) *OpenAIGenerator {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIGenerator{
		client:       openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		logger:       logger.With().Str("component", "reply-openai").Logger(),
	}
}

// Provider returns the provider name
func (g *OpenAIGenerator) Provider() string {
	return "openai"
}

// Generate sends the prior history plus the new user text as chat context
// and returns the reply with the extended history.
func (g *OpenAIGenerator) Generate(ctx context.Context, userText string, history []session.Message) (*Reply, []session.Message, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}

	if g.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(g.systemPrompt))
	}

	for _, msg := range history {
		switch msg.Role {
		case "user":
			messages = append(messages, openai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userText))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("openai generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("openai returned no choices")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, nil, fmt.Errorf("openai returned an empty reply")
	}

	updated := appendTurn(history, userText, text)

	g.logger.Debug().
		Int("history", len(updated)).
		Msg("Reply generated")

	return &Reply{Text: text}, updated, nil
}

// appendTurn extends the history with the new user and assistant turns.
func appendTurn(history []session.Message, userText, replyText string) []session.Message {
	updated := make([]session.Message, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		session.Message{Role: "user", Content: userText},
		session.Message{Role: "assistant", Content: replyText},
	)
	return updated
}
