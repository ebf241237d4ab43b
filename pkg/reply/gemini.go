package reply

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/yilmaz/voxa/pkg/session"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator implements Generator for Google Gemini. History records
// carry Gemini's own roles ("user" / "model").
type GeminiGenerator struct {
	client       *genai.Client
	model        string
	systemPrompt string
	logger       zerolog.Logger
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(cfg Config, logger zerolog.Logger) (*GeminiGenerator, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiGenerator{
		client:       client,
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger.With().Str("component", "reply-gemini").Logger(),
	}, nil
}

// Provider returns the provider name
func (g *GeminiGenerator) Provider() string {
	return "gemini"
}

// Generate starts a chat session seeded with the prior history, sends the
// user text and returns the chat's full updated history.
func (g *GeminiGenerator) Generate(ctx context.Context, userText string, history []session.Message) (*Reply, []session.Message, error) {
	var config *genai.GenerateContentConfig
	if g.systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: g.systemPrompt}},
			},
		}
	}

	chat, err := g.client.Chats.Create(ctx, g.model, config, historyToContents(history))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gemini chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: userText})
	if err != nil {
		return nil, nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, nil, fmt.Errorf("gemini returned an empty reply")
	}

	updated := contentsToHistory(chat.History(false))

	g.logger.Debug().
		Int("history", len(updated)).
		Msg("Reply generated")

	return &Reply{Text: text}, updated, nil
}

func historyToContents(history []session.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		contents = append(contents, &genai.Content{
			Role:  msg.Role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return contents
}

func contentsToHistory(contents []*genai.Content) []session.Message {
	history := make([]session.Message, 0, len(contents))
	for _, content := range contents {
		text := ""
		for _, part := range content.Parts {
			text += part.Text
		}
		history = append(history, session.Message{
			Role:    content.Role,
			Content: text,
		})
	}
	return history
}
