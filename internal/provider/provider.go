// Package provider defines the sources an icon can be discovered from.
// Each provider (well-known paths, page HTML, favicon service, LLM search)
// implements IconProvider; the resolver tries them in order.
package provider

import (
	"context"
	"errors"
	"net/url"

	"github.com/fleveque/company-icons/internal/model"
)

// ErrNotFound is returned (wrapped) by a provider that has no icon for a site.
// Any other error is unexpected and stops resolution for that site.
var ErrNotFound = errors.New("icon not found")

// Site is the company whose icon is being looked up.
type Site struct {
	Name string
	URL  *url.URL // normalized, see model.ParseURL
}

// NewSite parses rawURL into a Site.
func NewSite(name, rawURL string) (Site, error) {
	u, err := model.ParseURL(rawURL)
	if err != nil {
		return Site{}, err
	}
	return Site{Name: name, URL: u}, nil
}

// String returns the normalized site URL.
func (s Site) String() string {
	return s.URL.String()
}

// IconProvider is the interface for icon discovery sources.
type IconProvider interface {
	// FindIcon returns an icon URL for the site, or an error wrapping
	// ErrNotFound when this source has none.
	FindIcon(ctx context.Context, site Site) (string, error)

	// Name returns a short identifier, reported as the resolution source.
	Name() string
}
