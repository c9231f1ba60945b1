package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using OpenAI function calling.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI-powered icon finder.
func NewOpenAIClient(apiKey string, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string    { return o.model }

func (o *OpenAIClient) FindIconURL(ctx context.Context, companyName string, siteURL string) (*IconSearchResult, error) {
	prompt := buildPrompt(companyName, siteURL)

	tools := []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        submitToolName,
				Description: "Submit the icon URL found for the company. Call this once you have found the best icon URL.",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": iconToolProperties(),
					"required":   []string{"icon_url", "company_name", "confidence"},
				},
			},
		},
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: `You are an icon finder assistant. Find official icons and logos for company websites.
Return the direct image URL via the submit_icon_url function. Prefer icons served from the company's own domain.`,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		},
	}

	for i := 0; i < 5; i++ {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    o.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return nil, fmt.Errorf("openai API call: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai returned no choices")
		}

		choice := resp.Choices[0]

		if len(choice.Message.ToolCalls) > 0 {
			messages = append(messages, choice.Message)

			for _, toolCall := range choice.Message.ToolCalls {
				if toolCall.Function.Name == submitToolName {
					var result submitIconResult
					if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &result); err != nil {
						return nil, fmt.Errorf("parsing tool arguments: %w", err)
					}

					if result.IconURL == "" {
						return nil, fmt.Errorf("OpenAI did not find an icon URL for %s", siteURL)
					}
					return result.toSearchResult(), nil
				}

				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    "Received. Please continue and call submit_icon_url with the icon URL.",
					ToolCallID: toolCall.ID,
				})
			}
			continue
		}

		if choice.FinishReason == openai.FinishReasonStop {
			return nil, fmt.Errorf("OpenAI ended without finding an icon for %s", siteURL)
		}
	}

	return nil, fmt.Errorf("exceeded max turns without finding an icon for %s", siteURL)
}
