package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"ankigen/internal/deck"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model       openai.ChatModel
	temperature float64
	maxTokens   int
	client      *openai.Client
}

const defaultChatTimeout = 60 * time.Second

// NewOpenAIClient builds a client with defaults against api.openai.com.
func NewOpenAIClient(apiKey string, model openai.ChatModel, temperature float64, maxTokens int) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      &cli,
	}, nil
}

// cardsSchema constrains the model output to a deck of question/answer/tags cards.
var cardsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"cards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string", "description": "The front side of the flashcard containing the question"},
					"answer":   map[string]any{"type": "string", "description": "The back side of the flashcard containing the answer"},
					"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Tags associated with the flashcard"},
				},
				"required":             []string{"question", "answer", "tags"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"cards"},
	"additionalProperties": false,
}

func (c *OpenAIClient) GenerateCards(ctx context.Context, req Request) ([]deck.Card, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	if req.NumCards < 1 {
		return nil, fmt.Errorf("number of cards must be at least 1")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	messages := buildMessages(systemPrompt(req), userPrompt(req.Text))
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "anki_deck",
					Strict: openai.Bool(true),
					Schema: cardsSchema,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai: no choices returned")
	}
	cards, err := ParseCards(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return cards, nil
}

// systemPrompt instructs the model on the flashcard task, card count,
// deck name, and the optional Bloom's taxonomy level.
func systemPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert at creating Anki flashcards. Your task is to:
1. Read the provided text
2. Create %d Anki flashcards that cover the main concepts
3. Add relevant tags to each flashcard
4. Structure the output as an Anki deck with the name %q.`, req.NumCards, req.DeckName)
	if req.Level != "" {
		fmt.Fprintf(&b, "\nWrite the questions at the %s level of Bloom's taxonomy.", req.Level)
	}
	return b.String()
}

func userPrompt(text string) string {
	return "Please create Anki flashcards for the following text: " + text
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}

// ParseCards decodes the model response. It expects the structured JSON
// payload but falls back to parsing plain "Question, Answer" lines when the
// model ignores the schema.
func ParseCards(content string) ([]deck.Card, error) {
	var payload struct {
		Cards []deck.Card `json:"cards"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err == nil && len(payload.Cards) > 0 {
		return payload.Cards, nil
	}
	if cards := deck.ParseLines(content); len(cards) > 0 {
		return cards, nil
	}
	return nil, fmt.Errorf("response contained no cards")
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
