package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/finder"
)

// maxPageBytes caps how much of a homepage is parsed.
const maxPageBytes = 2 << 20

// HTMLProvider downloads the site's homepage and runs the HTML finders over
// it. URL references are resolved against the final page URL (after
// redirects) and must pass an existence check; inline SVG is returned as a
// data URI.
type HTMLProvider struct {
	client    *http.Client
	checker   *Checker
	finders   []finder.Finder
	userAgent string
	logger    *zap.Logger
}

// NewHTMLProvider creates a provider running finders in order.
// A nil finders slice means finder.Default().
func NewHTMLProvider(client *http.Client, checker *Checker, finders []finder.Finder, userAgent string, logger *zap.Logger) *HTMLProvider {
	if finders == nil {
		finders = finder.Default()
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTMLProvider{
		client:    client,
		checker:   checker,
		finders:   finders,
		userAgent: userAgent,
		logger:    logger,
	}
}

func (p *HTMLProvider) Name() string { return "html" }

func (p *HTMLProvider) FindIcon(ctx context.Context, site Site) (string, error) {
	doc, err := p.fetchPage(ctx, site.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	base := site.URL
	if doc.Url != nil {
		base = doc.Url
	}

	for _, ref := range finder.FindAll(doc, base, p.finders) {
		switch ref.Kind {
		case finder.KindMarkup:
			return svgDataURI(ref.Value), nil
		case finder.KindURL:
			if strings.HasPrefix(ref.Value, "data:") {
				return ref.Value, nil
			}

			u, err := base.Parse(ref.Value)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				p.logger.Debug("skipping unusable icon reference",
					zap.String("finder", ref.Finder),
					zap.String("value", ref.Value),
				)
				continue
			}

			candidate := u.String()
			if p.checker.Exists(ctx, candidate) {
				return candidate, nil
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: no usable icon in %s", ErrNotFound, site)
}

func (p *HTMLProvider) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

func svgDataURI(markup string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}
