package detail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"AlertTrack/internal/domain"
)

// DefaultDocumentPrompt guides the service towards the alert's PDF link.
const DefaultDocumentPrompt = "Find the link to the downloadable PDF document for this drug safety update. " +
	"Return its absolute URL in alert_pdf, or leave alert_pdf empty if the page links no PDF."

const documentField = "alert_pdf"

// documentSchema declares a single optional string field.
func documentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			documentField: map[string]any{
				"type":        "string",
				"description": "Absolute URL of the alert PDF document, if any.",
			},
		},
	}
}

// DocumentStrategy uses structured extraction to locate the alert's PDF.
type DocumentStrategy struct {
	scraper Scraper
	prompt  string
}

// NewDocumentStrategy wires the injected extraction client; an empty prompt
// falls back to DefaultDocumentPrompt.
func NewDocumentStrategy(scraper Scraper, prompt string) *DocumentStrategy {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultDocumentPrompt
	}
	return &DocumentStrategy{scraper: scraper, prompt: prompt}
}

// Name identifies the strategy inside the registry.
func (s *DocumentStrategy) Name() string {
	return StrategyDocument
}

// Extract sets DocumentURL from the alert_pdf field. A page without a PDF is
// a valid, empty result.
func (s *DocumentStrategy) Extract(ctx context.Context, detailURL string) (domain.AlertDetail, error) {
	res, err := s.scraper.ScrapeJSON(ctx, detailURL, documentSchema(), s.prompt)
	if err != nil {
		return domain.AlertDetail{}, err
	}

	var fields struct {
		AlertPDF *string `json:"alert_pdf"`
	}
	if len(res.JSON) > 0 && string(res.JSON) != "null" {
		if err := json.Unmarshal(res.JSON, &fields); err != nil {
			return domain.AlertDetail{}, &domain.FormatError{What: "structured extraction result", Err: err}
		}
	}

	out := domain.AlertDetail{DetailedTitle: strings.TrimSpace(res.Metadata.Title)}
	if fields.AlertPDF == nil || strings.TrimSpace(*fields.AlertPDF) == "" {
		return out, nil
	}

	docURL, ok := resolveAgainst(detailURL, *fields.AlertPDF)
	if !ok {
		return domain.AlertDetail{}, fmt.Errorf("unusable %s value %q", documentField, *fields.AlertPDF)
	}
	out.DocumentURL = docURL
	return out, nil
}
