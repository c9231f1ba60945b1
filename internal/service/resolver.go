// Package service contains the icon discovery pipeline.
//
// Resolver tries providers in order until one finds an icon:
//
//	well-known paths → page HTML (optional) → favicon service → LLM search (optional)
//
// IconService puts the process-wide cache in front of the Resolver and
// resolves whole batches.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/metrics"
	"github.com/fleveque/company-icons/internal/provider"
)

// Resolution is the outcome of resolving one site. An empty IconURL means
// no provider found an icon.
type Resolution struct {
	IconURL string
	Source  string // provider name, or SourceCache
}

// Found reports whether an icon was found.
func (r Resolution) Found() bool { return r.IconURL != "" }

// Resolver runs the ordered provider chain for a single site.
type Resolver struct {
	providers []provider.IconProvider
	metrics   metrics.Recorder
	logger    *zap.Logger
}

// NewResolver creates a Resolver trying providers in the given order.
func NewResolver(providers []provider.IconProvider, recorder metrics.Recorder, logger *zap.Logger) *Resolver {
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}
	return &Resolver{
		providers: providers,
		metrics:   recorder,
		logger:    logger,
	}
}

// Providers returns the provider names in resolution order.
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve returns the first icon any provider finds for site.
// A miss from every provider is not an error: the returned Resolution is
// simply empty. Errors are reserved for the unexpected, including a
// cancelled ctx.
func (r *Resolver) Resolve(ctx context.Context, site provider.Site) (Resolution, error) {
	start := time.Now()

	for _, p := range r.providers {
		iconURL, err := p.FindIcon(ctx, site)
		if err == nil && iconURL != "" {
			r.logger.Debug("icon found",
				zap.String("url", site.String()),
				zap.String("provider", p.Name()),
				zap.String("icon_url", iconURL),
			)
			r.metrics.RecordResolution(p.Name(), true, time.Since(start))
			return Resolution{IconURL: iconURL, Source: p.Name()}, nil
		}

		if err != nil && !errors.Is(err, provider.ErrNotFound) {
			return Resolution{}, fmt.Errorf("%s provider: %w", p.Name(), err)
		}

		r.logger.Debug("provider miss",
			zap.String("url", site.String()),
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
	}

	r.metrics.RecordResolution("", false, time.Since(start))
	return Resolution{}, nil
}
