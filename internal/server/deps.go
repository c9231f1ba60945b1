package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/cache"
	"github.com/fleveque/company-icons/internal/config"
	"github.com/fleveque/company-icons/internal/finder"
	"github.com/fleveque/company-icons/internal/llm"
	"github.com/fleveque/company-icons/internal/metrics"
	"github.com/fleveque/company-icons/internal/provider"
	"github.com/fleveque/company-icons/internal/service"
	"github.com/fleveque/company-icons/internal/storage"
)

// Deps holds everything the routes need. Built once at startup by BuildDeps;
// tests may assemble it by hand.
type Deps struct {
	IconService *service.IconService
	LLMCallRepo storage.LLMCallRepository // nil when the call log is disabled
	Registry    *prometheus.Registry      // nil when metrics are disabled
}

// BuildDeps wires the resolution pipeline from configuration. The returned
// close function releases the database, if one was opened.
func BuildDeps(cfg *config.Config, logger *zap.Logger) (Deps, func() error, error) {
	closeFn := func() error { return nil }

	var (
		registry *prometheus.Registry
		recorder metrics.Recorder = metrics.NewNoopRecorder()
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	// The call log only has something to record when the LLM tier is on.
	var llmCallRepo storage.LLMCallRepository
	if cfg.LLM.Enabled() && cfg.Storage.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
			return Deps{}, closeFn, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
		if err != nil {
			return Deps{}, closeFn, err
		}
		closeFn = db.Close
		llmCallRepo = storage.NewLLMCallRepository(db)
	}

	providers, err := BuildProviders(cfg, llmCallRepo, logger)
	if err != nil {
		_ = closeFn()
		return Deps{}, func() error { return nil }, err
	}

	resolver := service.NewResolver(providers, recorder, logger)
	iconService := service.NewIconService(resolver, cache.NewMemoryStore(), cfg.Batch.Concurrency, recorder, logger)

	logger.Info("icon pipeline ready",
		zap.Strings("providers", resolver.Providers()),
		zap.Int("concurrency", cfg.Batch.Concurrency),
		zap.Bool("llm_call_log", llmCallRepo != nil),
		zap.Bool("metrics", registry != nil),
	)

	return Deps{
		IconService: iconService,
		LLMCallRepo: llmCallRepo,
		Registry:    registry,
	}, closeFn, nil
}

// BuildProviders returns the provider chain in resolution order:
// path probes, page HTML (when enabled), the favicon service and finally the
// LLM tier (when an API key is configured). llmCallRepo may be nil.
func BuildProviders(cfg *config.Config, llmCallRepo storage.LLMCallRepository, logger *zap.Logger) ([]provider.IconProvider, error) {
	client := provider.NewHTTPClient(cfg.Resolver.ProbeTimeout)
	checker := provider.NewChecker(client, cfg.Resolver.UserAgent, logger)

	providers := []provider.IconProvider{
		provider.NewPathProvider(cfg.Resolver.IconPaths, checker),
	}
	if cfg.Resolver.HTMLStrategies {
		providers = append(providers, provider.NewHTMLProvider(client, checker, finder.Default(), cfg.Resolver.UserAgent, logger))
	}
	providers = append(providers, provider.NewFallbackProvider(cfg.Resolver.FallbackURL, cfg.Resolver.FallbackSize, checker))

	if cfg.LLM.Enabled() {
		clients, err := buildLLMClients(cfg.LLM)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider.NewLLMProvider(clients, cfg.LLM.RatePerMinute, llmCallRepo, checker, logger))
	}

	return providers, nil
}

// buildLLMClients follows llm.provider_order, skipping providers without an API key.
func buildLLMClients(cfg config.LLMConfig) ([]llm.Client, error) {
	var clients []llm.Client
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "anthropic":
			if cfg.Anthropic.APIKey != "" {
				clients = append(clients, llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
			}
		case "openai":
			if cfg.OpenAI.APIKey != "" {
				clients = append(clients, llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
			}
		default:
			return nil, fmt.Errorf("unknown llm provider %q", name)
		}
	}
	return clients, nil
}
