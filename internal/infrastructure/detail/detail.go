// Package detail holds the extraction strategies that enrich a listing record
// from its detail page.
package detail

import (
	"context"
	"net/url"
	"strings"

	"AlertTrack/internal/infrastructure/firecrawl"
)

// Strategy names accepted by the resolver.
const (
	StrategyMarkdown = "markdown"
	StrategyDocument = "document"
	StrategyHTML     = "html"
)

// Scraper is the subset of the extraction service the strategies need.
type Scraper interface {
	ScrapeMarkdown(ctx context.Context, pageURL string) (firecrawl.ScrapeResult, error)
	ScrapeJSON(ctx context.Context, pageURL string, schema map[string]any, prompt string) (firecrawl.ScrapeResult, error)
}

var _ Scraper = (*firecrawl.Client)(nil)

// TitleFromMarkdown returns the first non-empty line with heading markers removed.
func TitleFromMarkdown(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line != "" {
			return line
		}
	}
	return ""
}

// resolveAgainst makes ref absolute against base; it reports false for
// anything that does not end up as an http(s) URL.
func resolveAgainst(base, ref string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	abs := b.ResolveReference(r)
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}
