package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog/log"
)

// OpenAIClient implements Client on top of the OpenAI chat completions API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewOpenAIClient creates a client bound to one model. Stages with different
// model identifiers share the underlying API client via WithModel.
func NewOpenAIClient(apiKey, model string, maxTokens int64, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// WithModel returns a copy of the client that uses a different model.
func (c *OpenAIClient) WithModel(model string) *OpenAIClient {
	if model == "" {
		return c
	}
	clone := *c
	clone.model = model
	return &clone
}

func (c *OpenAIClient) CompleteText(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Debug().Str("model", c.model).Int("chars", len(content)).Msg("text completion")
	return content, nil
}

func (c *OpenAIClient) CompleteJSON(ctx context.Context, system, user string, schema Schema) (json.RawMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schema.Name,
					Strict: openai.Bool(schema.Strict),
					Schema: schema.Definition,
				},
			},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := schema.Validate([]byte(content)); err != nil {
		return nil, err
	}

	log.Debug().Str("model", c.model).Str("schema", schema.Name).Msg("structured completion")
	return json.RawMessage(content), nil
}
