package model

import "time"

// LLMCall tracks each call to an LLM provider for cost monitoring.
// `db` tags map columns for sqlx, `json` tags the API representation.
type LLMCall struct {
	ID         int64     `db:"id" json:"id"`
	SiteURL    string    `db:"site_url" json:"site_url"`
	Provider   string    `db:"provider" json:"provider"`
	Model      string    `db:"model" json:"model"`
	ResultURL  *string   `db:"result_url" json:"result_url,omitempty"`
	Success    bool      `db:"success" json:"success"`
	DurationMs *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
