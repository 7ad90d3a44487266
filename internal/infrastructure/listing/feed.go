package listing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
)

// FeedListing reads the Atom/RSS variant of the index page.
type FeedListing struct {
	downloader Downloader
	parser     *gofeed.Parser
	feedURL    func(baseURL string) string
	logger     *slog.Logger
}

var _ ports.ListingSource = (*FeedListing)(nil)

// NewFeedListing wires a downloader. feedURL maps the listing URL to its feed;
// nil appends ".atom", which is how GOV.UK publishes finder feeds.
func NewFeedListing(downloader Downloader, feedURL func(string) string, logger *slog.Logger) *FeedListing {
	if feedURL == nil {
		feedURL = func(base string) string { return strings.TrimSuffix(base, "/") + ".atom" }
	}
	return &FeedListing{
		downloader: downloader,
		parser:     gofeed.NewParser(),
		feedURL:    feedURL,
		logger:     logger,
	}
}

// FetchListing downloads and parses the feed, applying the same URL policy as
// the HTML listing.
func (f *FeedListing) FetchListing(ctx context.Context, baseURL string) ([]domain.AlertListingRecord, error) {
	target := f.feedURL(baseURL)
	body, err := f.downloader.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch listing feed: %w", err)
	}

	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FormatError{What: "listing feed " + target, Err: err}
	}

	base, err := url.Parse(target)
	if err != nil {
		return nil, &domain.FormatError{What: "listing feed url " + target, Err: err}
	}

	records := make([]domain.AlertListingRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if record, ok := feedRecord(item, base); ok {
			records = append(records, record)
		}
	}

	if f.logger != nil {
		f.logger.Debug("listing feed parsed", "url", target, "items", len(feed.Items), "records", len(records))
	}
	return records, nil
}

func feedRecord(item *gofeed.Item, base *url.URL) (domain.AlertListingRecord, bool) {
	if item == nil {
		return domain.AlertListingRecord{}, false
	}
	title := strings.Join(strings.Fields(item.Title), " ")
	if title == "" {
		return domain.AlertListingRecord{}, false
	}
	detailURL, ok := resolveURL(base, item.Link)
	if !ok {
		return domain.AlertListingRecord{}, false
	}

	var date time.Time
	switch {
	case item.PublishedParsed != nil:
		date = calendarDate(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		date = calendarDate(*item.UpdatedParsed)
	}

	return domain.AlertListingRecord{Title: title, DetailURL: detailURL, PublishDate: date}, true
}
