package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultFallbackURL is Google's favicon lookup service.
const DefaultFallbackURL = "https://www.google.com/s2/favicons"

// FallbackProvider asks a third-party favicon service for the site's domain.
// The service is a black box: a 2xx answer means it has an icon.
type FallbackProvider struct {
	serviceURL string
	size       int
	checker    *Checker
}

// NewFallbackProvider creates a provider for the service at serviceURL,
// requesting icons of the given size in pixels.
func NewFallbackProvider(serviceURL string, size int, checker *Checker) *FallbackProvider {
	if serviceURL == "" {
		serviceURL = DefaultFallbackURL
	}
	return &FallbackProvider{serviceURL: serviceURL, size: size, checker: checker}
}

func (p *FallbackProvider) Name() string { return "fallback" }

// ServiceURL builds the lookup URL for a site, e.g.
// https://www.google.com/s2/favicons?domain=example.com&sz=512
func (p *FallbackProvider) ServiceURL(site Site) string {
	q := url.Values{}
	q.Set("domain", site.URL.Hostname())
	if p.size > 0 {
		q.Set("sz", strconv.Itoa(p.size))
	}
	return p.serviceURL + "?" + q.Encode()
}

func (p *FallbackProvider) FindIcon(ctx context.Context, site Site) (string, error) {
	candidate := p.ServiceURL(site)
	if err := p.checker.Check(ctx, candidate); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: fallback service: %v", ErrNotFound, err)
	}
	return candidate, nil
}
