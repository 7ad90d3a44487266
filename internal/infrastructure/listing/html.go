package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
)

// DefaultItemSelector matches entries of the GOV.UK document list component.
const DefaultItemSelector = "ul.gem-c-document-list li"

// Downloader fetches a URL body; *httpfetch.Client satisfies it.
type Downloader interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTMLListing reads the alert index page and extracts one record per list item.
type HTMLListing struct {
	downloader Downloader
	selector   string
	logger     *slog.Logger
}

var _ ports.ListingSource = (*HTMLListing)(nil)

// NewHTMLListing wires a downloader; an empty selector falls back to DefaultItemSelector.
func NewHTMLListing(downloader Downloader, selector string, logger *slog.Logger) *HTMLListing {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultItemSelector
	}
	return &HTMLListing{downloader: downloader, selector: selector, logger: logger}
}

// FetchListing performs one GET of baseURL and parses every matching item.
func (l *HTMLListing) FetchListing(ctx context.Context, baseURL string) ([]domain.AlertListingRecord, error) {
	body, err := l.downloader.Get(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	records, err := ParseHTML(bytes.NewReader(body), baseURL, l.selector)
	if err != nil {
		return nil, err
	}

	l.debug("listing parsed", "url", baseURL, "records", len(records))
	return records, nil
}

// ParseHTML extracts records from a listing document. Items without an
// anchor, a non-empty title or a resolvable href are skipped; the publish
// date is best effort.
func ParseHTML(r io.Reader, baseURL, selector string) ([]domain.AlertListingRecord, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &domain.FormatError{What: "listing url " + baseURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &domain.FormatError{What: "listing page", Err: err}
	}

	records := make([]domain.AlertListingRecord, 0)
	doc.Find(selector).Each(func(_ int, item *goquery.Selection) {
		record, ok := parseItem(item, base)
		if ok {
			records = append(records, record)
		}
	})
	return records, nil
}

func parseItem(item *goquery.Selection, base *url.URL) (domain.AlertListingRecord, bool) {
	link := item.Find("a").First()
	if link.Length() == 0 {
		return domain.AlertListingRecord{}, false
	}

	title := strings.Join(strings.Fields(link.Text()), " ")
	if title == "" {
		return domain.AlertListingRecord{}, false
	}

	href, ok := link.Attr("href")
	if !ok {
		return domain.AlertListingRecord{}, false
	}
	detailURL, ok := resolveURL(base, href)
	if !ok {
		return domain.AlertListingRecord{}, false
	}

	return domain.AlertListingRecord{
		Title:       title,
		DetailURL:   detailURL,
		PublishDate: itemDate(item),
	}, true
}

func itemDate(item *goquery.Selection) time.Time {
	timeTag := item.Find("time").First()
	if attr, ok := timeTag.Attr("datetime"); ok {
		if parsed, ok := parseDatetimeAttr(attr); ok {
			return parsed
		}
	}
	if parsed, ok := parseVisibleDate(timeTag.Text()); ok {
		return parsed
	}
	// the title may mention dates of its own
	rest := item.Clone()
	rest.Find("a").First().Remove()
	if parsed, ok := parseVisibleDate(rest.Text()); ok {
		return parsed
	}
	return time.Time{}
}

// resolveURL makes href absolute against base; only http(s) results count.
func resolveURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}

func (l *HTMLListing) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
