// Package llm provides a provider-agnostic interface for using LLMs to find a
// company's icon or logo via web search. The LLM searches the web and returns
// a direct image URL.
package llm

import (
	"context"
	"fmt"
)

// IconSearchResult contains the result of an LLM-powered icon search.
type IconSearchResult struct {
	IconURL     string // Direct URL to the icon image
	CompanyName string // Confirmed company name
	Source      string // Where the icon was found (e.g., "wikipedia.org")
	Confidence  string // "high", "medium", "low"
}

// Client is the interface for LLM providers that can search for icons.
// Anthropic and OpenAI both implement it, so one can stand in for the other.
type Client interface {
	FindIconURL(ctx context.Context, companyName string, siteURL string) (*IconSearchResult, error)
	ProviderName() string
	ModelName() string
}

// submitIconResult is the schema of the submit_icon_url tool call.
type submitIconResult struct {
	IconURL     string `json:"icon_url"`
	CompanyName string `json:"company_name"`
	Source      string `json:"source"`
	Confidence  string `json:"confidence"`
}

const submitToolName = "submit_icon_url"

// iconToolProperties is the JSON schema shared by both providers' tool definitions.
func iconToolProperties() map[string]interface{} {
	return map[string]interface{}{
		"icon_url": map[string]interface{}{
			"type":        "string",
			"description": "Direct URL to the icon or logo image (ICO, PNG, SVG or JPG). Must be a direct image URL, not a webpage.",
		},
		"company_name": map[string]interface{}{
			"type":        "string",
			"description": "The official company name.",
		},
		"source": map[string]interface{}{
			"type":        "string",
			"description": "The website where the icon was found (e.g., 'wikipedia.org', 'company.com').",
		},
		"confidence": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"high", "medium", "low"},
			"description": "How confident you are this is the company's official icon.",
		},
	}
}

// buildPrompt creates the user prompt for the LLM.
func buildPrompt(companyName string, siteURL string) string {
	name := companyName
	if name == "" {
		name = siteURL
	}

	return fmt.Sprintf(`Find a representative icon for the company "%s" whose homepage is %s.

Search the web for the company's favicon, app/touch icon or official logo. Prefer:
1. Icons served from the company's own domain
2. Wikipedia commons logos (often high-quality SVG/PNG)
3. Well-known brand asset sites

Requirements for the icon URL:
- Must be a DIRECT link to an image file
- Must be publicly accessible (no authentication required)
- Must represent the company itself, not a product or a third party

Once you find the best icon, call the %s tool with the URL and details.
If you cannot find a suitable icon, explain why in your response.`, name, siteURL, submitToolName)
}

func (r submitIconResult) toSearchResult() *IconSearchResult {
	return &IconSearchResult{
		IconURL:     r.IconURL,
		CompanyName: r.CompanyName,
		Source:      r.Source,
		Confidence:  r.Confidence,
	}
}
