package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient implements Client using Claude. Structured output is
// obtained through a custom "submit" tool built from the request schema;
// augmented mode adds Claude's native web_search tool so the model can look
// up typical repair prices before answering.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a Claude-backed completion client.
func NewAnthropicClient(apiKey string, model string) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{
		client: &client,
		model:  model,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string    { return a.model }

// Complete runs an agentic loop: Claude may search the web (augmented mode),
// then calls the submit tool with a document matching the request schema.
// The loop keeps feeding tool results back until Claude submits or gives up.
func (a *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
	submitName := "submit_" + req.Schema.Name

	submitTool := anthropic.ToolParam{
		Name:        submitName,
		Description: param.NewOpt(req.Schema.Description + " Call this tool exactly once with your final answer."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: req.Schema.Document["properties"],
		},
	}

	tools := []anthropic.ToolUnionParam{{OfTool: &submitTool}}
	if req.WebSearch {
		// Web search is a built-in tool with its own dedicated param struct.
		tools = append(tools, anthropic.ToolUnionParam{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{},
		})
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
	}

	for i := 0; i < 5; i++ { // bounded turns
		message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 2048,
			System:    []anthropic.TextBlockParam{{Text: req.System}},
			Messages:  messages,
			Tools:     tools,
		})
		if err != nil {
			return nil, a.classifyError(req, err)
		}

		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok || toolUse.Name != submitName {
				continue
			}
			doc, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("marshaling tool input: %w", err)
			}
			return doc, nil
		}

		// No submission yet, the model may still be searching.
		if message.StopReason == "end_turn" {
			return nil, fmt.Errorf("anthropic ended turn without calling %s", submitName)
		}

		messages = append(messages, message.ToParam())

		// Acknowledge any other custom tool calls so the loop can continue
		// (web_search results are injected by the API itself).
		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok || toolUse.Name == "web_search" || toolUse.Name == submitName {
				continue
			}
			toolResults = append(toolResults,
				anthropic.NewToolResultBlock(toolUse.ID, "Received, please submit your final answer.", false))
		}
		if len(toolResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResults...))
		}
	}

	return nil, fmt.Errorf("exceeded max turns without a %s submission", submitName)
}

// classifyError converts transport failures into typed errors. The API has no
// structured "unsupported tool" code, so this is the one place the error text
// is sniffed: a failure mentioning web_search or tools on an augmented
// request is treated as a capability rejection.
func (a *AnthropicClient) classifyError(req CompletionRequest, err error) error {
	if req.WebSearch {
		msg := err.Error()
		if strings.Contains(msg, "web_search") || strings.Contains(msg, "tools") {
			return &CapabilityError{Capability: "web_search", Err: err}
		}
	}
	return fmt.Errorf("anthropic API call: %w", err)
}
