package provider

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultIconPaths are the conventional icon locations, most likely first.
var DefaultIconPaths = []string{
	"/favicon.ico",
	"/favicon.png",
	"/apple-touch-icon.png",
	"/apple-touch-icon-precomposed.png",
}

// PathProvider probes well-known icon paths at the root of the site.
type PathProvider struct {
	paths   []string
	checker *Checker
}

// NewPathProvider creates a provider probing paths in order.
// A nil paths slice means DefaultIconPaths.
func NewPathProvider(paths []string, checker *Checker) *PathProvider {
	if paths == nil {
		paths = DefaultIconPaths
	}
	return &PathProvider{paths: paths, checker: checker}
}

func (p *PathProvider) Name() string { return "path" }

// FindIcon returns the first candidate URL that passes the existence check.
// Candidates are checked one at a time, in order.
func (p *PathProvider) FindIcon(ctx context.Context, site Site) (string, error) {
	for _, path := range p.paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := CandidateURL(site.URL, path)
		if p.checker.Exists(ctx, candidate) {
			return candidate, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: no well-known path answered for %s", ErrNotFound, site)
}

// CandidateURL joins an absolute path onto the site's origin.
// "https://abc.xyz/investor/" + "/favicon.ico" → "https://abc.xyz/favicon.ico".
func CandidateURL(base *url.URL, path string) string {
	return base.ResolveReference(&url.URL{Path: path}).String()
}
