package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultUserAgent = "company-icons/1.0"

// NewHTTPClient returns the client shared by all providers.
// http.Client follows up to 10 redirects by default, HEAD requests included.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// Checker performs existence checks: a HEAD request whose 2xx answer is taken
// as proof that the resource exists. The body is never downloaded and the
// content type is not inspected.
type Checker struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewChecker creates a Checker using client for its requests.
func NewChecker(client *http.Client, userAgent string, logger *zap.Logger) *Checker {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Checker{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Check returns nil when rawURL answers a HEAD request with a 2xx status.
// Network errors, timeouts and other statuses are returned as errors; callers
// treat them as "not found here".
func (c *Checker) Check(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("existence check failed", zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("checking %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("existence check miss", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}
	return nil
}

// Exists is Check as a boolean.
func (c *Checker) Exists(ctx context.Context, rawURL string) bool {
	return c.Check(ctx, rawURL) == nil
}
