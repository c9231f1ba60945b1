package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient implements Client using Claude with its built-in web search.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Claude-powered icon finder.
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

func (a *AnthropicClient) FindIconURL(ctx context.Context, companyName string, siteURL string) (*IconSearchResult, error) {
	prompt := buildPrompt(companyName, siteURL)

	// Claude calls this tool to hand back structured data instead of prose.
	submitTool := anthropic.ToolParam{
		Name:        submitToolName,
		Description: param.NewOpt("Submit the icon URL you found. Call this tool once you have found the best icon URL."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: iconToolProperties(),
		},
	}

	tools := []anthropic.ToolUnionParam{
		{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{}},
		{OfTool: &submitTool},
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	for i := 0; i < 5; i++ { // Max 5 turns to prevent runaway
		message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 1024,
			Messages:  messages,
			Tools:     tools,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic API call: %w", err)
		}

		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok || toolUse.Name != submitToolName {
				continue
			}

			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("marshaling tool input: %w", err)
			}

			var result submitIconResult
			if err := json.Unmarshal(inputBytes, &result); err != nil {
				return nil, fmt.Errorf("parsing tool input: %w", err)
			}

			if result.IconURL == "" {
				return nil, fmt.Errorf("Claude did not find an icon URL for %s", siteURL)
			}
			return result.toSearchResult(), nil
		}

		if message.StopReason == "end_turn" {
			return nil, fmt.Errorf("Claude ended without finding an icon for %s", siteURL)
		}

		// Web search results are handled server side; only custom tool calls
		// other than the submit tool need an answer from us.
		messages = append(messages, message.ToParam())

		toolResults := []anthropic.ContentBlockParamUnion{}
		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok || toolUse.Name == "web_search" || toolUse.Name == submitToolName {
				continue
			}
			toolResults = append(toolResults,
				anthropic.NewToolResultBlock(toolUse.ID, "Received, please continue searching.", false))
		}
		if len(toolResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResults...))
		}
	}

	return nil, fmt.Errorf("exceeded max turns without finding an icon for %s", siteURL)
}
