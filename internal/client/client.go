// Package client talks to a running company-icons server. Large lists are
// sent in fixed-size chunks so one request never carries the whole batch.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fleveque/company-icons/internal/model"
)

// DefaultChunkSize is how many companies go in one request.
const DefaultChunkSize = 10

const maxErrorBody = 4 * 1024

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL   string
	http      *http.Client
	chunkSize int
}

type Option func(*Client)

// WithChunkSize sets the number of companies per request. Values below 1 are ignored.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetIcons posts one request to /get_icons.
func (c *Client) GetIcons(ctx context.Context, companies []model.Company) ([]model.CompanyWithIcon, error) {
	payload, err := json.Marshal(model.NewCompanyList(companies))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get_icons", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting companies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var results []model.CompanyWithIcon
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(results) != len(companies) {
		return nil, fmt.Errorf("expected %d results, got %d", len(companies), len(results))
	}
	return results, nil
}

// ResolveAll sends companies chunk by chunk and returns one result per
// company in input order. A failed chunk does not stop the others: its
// companies come back with an empty icon URL and the chunk's error is
// included in the returned (joined) error.
func (c *Client) ResolveAll(ctx context.Context, companies []model.Company) ([]model.CompanyWithIcon, error) {
	results := make([]model.CompanyWithIcon, 0, len(companies))
	var errs []error

	for start := 0; start < len(companies); start += c.chunkSize {
		end := min(start+c.chunkSize, len(companies))
		chunk := companies[start:end]

		got, err := c.GetIcons(ctx, chunk)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			errs = append(errs, fmt.Errorf("chunk %d: %w", start/c.chunkSize+1, err))
			for _, company := range chunk {
				results = append(results, model.CompanyWithIcon{Name: company.Name, URL: company.URL})
			}
			continue
		}
		results = append(results, got...)
	}

	return results, errors.Join(errs...)
}
