package detail

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"AlertTrack/internal/domain"
)

const (
	mainContentSelectors = "main, article, div[role='main'], #content, .govuk-main-wrapper"
	noiseSelectors       = "header, footer, nav, aside, script, style, form, .gem-c-print-link, .gem-c-related-navigation"
	blockSelectors       = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre"
)

// PageFetcher downloads and parses a page; *httpfetch.Client satisfies it.
type PageFetcher interface {
	Document(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// HTMLStrategy reads the detail page directly, without the extraction
// service. It needs no API key.
type HTMLStrategy struct {
	fetcher PageFetcher
}

// NewHTMLStrategy wires a page fetcher.
func NewHTMLStrategy(fetcher PageFetcher) *HTMLStrategy {
	return &HTMLStrategy{fetcher: fetcher}
}

// Name identifies the strategy inside the registry.
func (s *HTMLStrategy) Name() string {
	return StrategyHTML
}

// Extract renders the main content as markdown-ish text and picks the first PDF link.
func (s *HTMLStrategy) Extract(ctx context.Context, detailURL string) (domain.AlertDetail, error) {
	doc, err := s.fetcher.Document(ctx, detailURL)
	if err != nil {
		return domain.AlertDetail{}, err
	}

	main := findMainContent(doc)
	content := mainText(main)
	if content == "" {
		return domain.AlertDetail{}, errors.New("page has no readable content")
	}

	title := strings.Join(strings.Fields(main.Find("h1").First().Text()), " ")
	if title == "" {
		title = strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	}

	return domain.AlertDetail{
		DetailedTitle:   title,
		DetailedContent: content,
		DocumentURL:     firstPDFLink(doc, detailURL),
	}, nil
}

func findMainContent(doc *goquery.Document) *goquery.Selection {
	main := doc.Find(mainContentSelectors).First()
	if main.Length() == 0 {
		main = doc.Find("body")
	}
	main = main.Clone()
	main.Find(noiseSelectors).Remove()
	return main
}

func mainText(main *goquery.Selection) string {
	var parts []string
	main.Find(blockSelectors).Each(func(_ int, sel *goquery.Selection) {
		// nested blocks are rendered by their innermost block element
		if sel.Find(blockSelectors).Length() > 0 && !sel.Is("pre") {
			return
		}
		if sel.ParentsFiltered("pre").Length() > 0 {
			return
		}

		var text string
		if sel.Is("pre") {
			text = strings.TrimSpace(sel.Text())
			if text != "" {
				parts = append(parts, "```\n"+text+"\n```")
			}
			return
		}

		text = strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" {
			return
		}
		switch {
		case sel.Is("h1"):
			parts = append(parts, "# "+text)
		case sel.Is("h2, h3, h4, h5, h6"):
			parts = append(parts, "## "+text)
		case sel.Is("li"):
			parts = append(parts, "- "+text)
		default:
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func firstPDFLink(doc *goquery.Document, detailURL string) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		abs, ok := resolveAgainst(detailURL, href)
		if !ok {
			return true
		}
		u, err := url.Parse(abs)
		if err != nil || !strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
			return true
		}
		found = abs
		return false
	})
	return found
}
