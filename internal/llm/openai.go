package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using OpenAI's Chat Completions API with a
// strict json_schema response format. It has no web search capability:
// augmented requests are rejected up front with a CapabilityError so the
// caller falls back to plain mode without a wasted network call.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed completion client.
func NewOpenAIClient(apiKey string, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string    { return o.model }

// schemaDocument adapts a schema map to the json.Marshaler the SDK expects.
type schemaDocument map[string]any

func (d schemaDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

func (o *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
	if req.WebSearch {
		return nil, &CapabilityError{
			Capability: "web_search",
			Err:        errors.New("openai chat completions does not support the web_search tool"),
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      schemaDocument(req.Schema.Document),
				Strict:      true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API call: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai returned no content")
	}

	return json.RawMessage(resp.Choices[0].Message.Content), nil
}
