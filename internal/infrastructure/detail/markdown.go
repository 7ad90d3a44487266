package detail

import (
	"context"
	"errors"
	"strings"

	"AlertTrack/internal/domain"
)

// MarkdownStrategy asks the extraction service for the page's main content as markdown.
type MarkdownStrategy struct {
	scraper Scraper
}

// NewMarkdownStrategy wires the injected extraction client.
func NewMarkdownStrategy(scraper Scraper) *MarkdownStrategy {
	return &MarkdownStrategy{scraper: scraper}
}

// Name identifies the strategy inside the registry.
func (s *MarkdownStrategy) Name() string {
	return StrategyMarkdown
}

// Extract fills DetailedTitle and DetailedContent from the page markdown.
func (s *MarkdownStrategy) Extract(ctx context.Context, detailURL string) (domain.AlertDetail, error) {
	res, err := s.scraper.ScrapeMarkdown(ctx, detailURL)
	if err != nil {
		return domain.AlertDetail{}, err
	}
	if strings.TrimSpace(res.Markdown) == "" {
		return domain.AlertDetail{}, errors.New("extraction service returned no markdown")
	}

	title := TitleFromMarkdown(res.Markdown)
	if title == "" {
		title = strings.TrimSpace(res.Metadata.Title)
	}
	return domain.AlertDetail{
		DetailedTitle:   title,
		DetailedContent: res.Markdown,
	}, nil
}
