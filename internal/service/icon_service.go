package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fleveque/company-icons/internal/cache"
	"github.com/fleveque/company-icons/internal/metrics"
	"github.com/fleveque/company-icons/internal/model"
	"github.com/fleveque/company-icons/internal/provider"
)

// SourceCache is the Resolution source for cache hits.
const SourceCache = "cache"

// IconResolver resolves a single site. *Resolver implements it; tests swap in fakes.
type IconResolver interface {
	Resolve(ctx context.Context, site provider.Site) (Resolution, error)
}

// ItemResult is the typed outcome of one batch item.
// Err is set only for unexpected failures; a plain miss has an empty IconURL
// and a nil Err.
type ItemResult struct {
	Company model.Company
	URL     string // normalized company URL, also the cache key
	IconURL string
	Source  string
	Err     error
}

// Response converts the result to its API representation.
func (r ItemResult) Response() model.CompanyWithIcon {
	return model.CompanyWithIcon{
		Name:    r.Company.Name,
		URL:     r.URL,
		IconURL: r.IconURL,
	}
}

// IconService is the main entry point for icon lookups: cache first, then
// the resolver. Only non-empty results are cached, so misses are re-probed
// on every request.
type IconService struct {
	resolver    IconResolver
	cache       cache.Store
	concurrency int
	inflight    singleflight.Group
	metrics     metrics.Recorder
	logger      *zap.Logger
}

// NewIconService wires the service. concurrency bounds how many items of one
// batch resolve at once; 1 resolves them strictly one after another.
func NewIconService(resolver IconResolver, store cache.Store, concurrency int, recorder metrics.Recorder, logger *zap.Logger) *IconService {
	if concurrency < 1 {
		concurrency = 1
	}
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}
	return &IconService{
		resolver:    resolver,
		cache:       store,
		concurrency: concurrency,
		metrics:     recorder,
		logger:      logger,
	}
}

// CacheSize returns the number of cached icon URLs.
func (s *IconService) CacheSize() int {
	return s.cache.Len()
}

// ResolveBatch resolves every company and returns one result per input, in
// input order. A failing item never affects the others.
func (s *IconService) ResolveBatch(ctx context.Context, companies []model.Company) []ItemResult {
	s.metrics.RecordBatch(len(companies))
	results := make([]ItemResult, len(companies))

	// Plain Group, not WithContext: one item's failure must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			results[i] = s.Resolve(ctx, company)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Resolve looks up a single company. Panics are recovered and reported
// through ItemResult.Err like any other unexpected failure.
func (s *IconService) Resolve(ctx context.Context, company model.Company) (result ItemResult) {
	result = ItemResult{Company: company, URL: company.URL}

	defer func() {
		if rec := recover(); rec != nil {
			result.IconURL = ""
			result.Source = ""
			result.Err = fmt.Errorf("panic resolving %s: %v", company.URL, rec)
		}
		if result.Err != nil {
			s.metrics.RecordItemFailure()
			s.logger.Warn("unexpected error resolving icon",
				zap.String("name", company.Name),
				zap.String("url", result.URL),
				zap.Error(result.Err),
			)
		}
	}()

	site, err := provider.NewSite(company.Name, company.URL)
	if err != nil {
		result.Err = err
		return result
	}
	result.URL = site.String()

	if iconURL, ok := s.cache.Get(result.URL); ok {
		s.metrics.RecordCacheLookup(true)
		result.IconURL = iconURL
		result.Source = SourceCache
		return result
	}
	s.metrics.RecordCacheLookup(false)

	// Concurrent lookups of the same URL share one resolution. The shared
	// call is detached from any one caller's cancellation; each caller stops
	// waiting when its own ctx is done.
	ch := s.inflight.DoChan(result.URL, func() (interface{}, error) {
		return s.resolveShared(context.WithoutCancel(ctx), site)
	})

	var res Resolution
	select {
	case <-ctx.Done():
		result.Err = ctx.Err()
		return result
	case r := <-ch:
		if r.Err != nil {
			result.Err = r.Err
			return result
		}
		res = r.Val.(Resolution)
	}

	result.IconURL = res.IconURL
	result.Source = res.Source
	return result
}

// resolveShared runs the resolver for a singleflight call and caches a found
// icon, so the result is kept even if every waiting caller has gone. Panics
// become errors here: DoChan re-panics on its own goroutine, out of reach of
// the caller's recover.
func (s *IconService) resolveShared(ctx context.Context, site provider.Site) (res Resolution, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Resolution{}
			err = fmt.Errorf("panic resolving %s: %v", site.String(), rec)
		}
	}()

	res, err = s.resolver.Resolve(ctx, site)
	if err != nil {
		return Resolution{}, err
	}
	if res.Found() {
		s.cache.Set(site.String(), res.IconURL)
		s.metrics.SetCacheEntries(s.cache.Len())
	}
	return res, nil
}
