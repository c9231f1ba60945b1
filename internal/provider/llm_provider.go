package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/company-icons/internal/llm"
	"github.com/fleveque/company-icons/internal/model"
	"github.com/fleveque/company-icons/internal/storage"
)

// LLMProvider asks an LLM (Claude or OpenAI) to search the web for a
// company's icon, then existence-checks the URL it returns.
//
// Calls are rate limited to keep API costs bounded. Clients are tried in
// configured order: first success wins, failures fall through.
type LLMProvider struct {
	clients     []llm.Client
	limiter     *rate.Limiter
	llmCallRepo storage.LLMCallRepository // nil disables call recording
	checker     *Checker
	logger      *zap.Logger
}

// NewLLMProvider creates a provider with an ordered list of LLM clients.
func NewLLMProvider(
	clients []llm.Client,
	ratePerMinute int,
	llmCallRepo storage.LLMCallRepository,
	checker *Checker,
	logger *zap.Logger,
) *LLMProvider {
	if ratePerMinute <= 0 {
		ratePerMinute = 1
	}
	// rate.Every turns the interval between events into a rate.Limit.
	rps := rate.Every(time.Minute / time.Duration(ratePerMinute))

	return &LLMProvider{
		clients:     clients,
		limiter:     rate.NewLimiter(rps, 1),
		llmCallRepo: llmCallRepo,
		checker:     checker,
		logger:      logger,
	}
}

func (p *LLMProvider) Name() string { return "llm" }

// FindIcon asks each LLM client in order and returns the first URL that
// passes the existence check. API failures count as misses.
func (p *LLMProvider) FindIcon(ctx context.Context, site Site) (string, error) {
	if len(p.clients) == 0 {
		return "", fmt.Errorf("%w: no LLM providers configured", ErrNotFound)
	}

	var lastErr error

	for i, client := range p.clients {
		// Blocks until a token is available or ctx is done.
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		iconURL, err := p.tryProvider(ctx, client, site)
		if err == nil {
			return iconURL, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		lastErr = err

		if i < len(p.clients)-1 {
			p.logger.Warn("LLM provider failed, trying next",
				zap.String("url", site.String()),
				zap.String("provider", client.ProviderName()),
				zap.Error(err),
			)
		}
	}

	return "", fmt.Errorf("%w: all LLM providers failed for %s: %v", ErrNotFound, site, lastErr)
}

func (p *LLMProvider) tryProvider(ctx context.Context, client llm.Client, site Site) (string, error) {
	if client == nil {
		return "", fmt.Errorf("LLM client not configured")
	}

	start := time.Now()
	result, err := client.FindIconURL(ctx, site.Name, site.String())
	duration := time.Since(start).Milliseconds()

	p.recordCall(ctx, client, site, result, err, duration)

	if err != nil {
		return "", err
	}

	u, err := url.Parse(result.IconURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s returned an unusable URL %q", client.ProviderName(), result.IconURL)
	}

	if err := p.checker.Check(ctx, result.IconURL); err != nil {
		return "", fmt.Errorf("verifying %s: %w", result.IconURL, err)
	}
	return result.IconURL, nil
}

func (p *LLMProvider) recordCall(ctx context.Context, client llm.Client, site Site, result *llm.IconSearchResult, callErr error, durationMs int64) {
	if p.llmCallRepo == nil {
		return
	}

	call := &model.LLMCall{
		SiteURL:  site.String(),
		Provider: client.ProviderName(),
		Model:    client.ModelName(),
		Success:  callErr == nil,
	}
	call.DurationMs = &durationMs
	if result != nil {
		call.ResultURL = &result.IconURL
	}

	if err := p.llmCallRepo.Create(ctx, call); err != nil {
		p.logger.Error("recording LLM call", zap.Error(err))
	}
}
