package ports

import (
	"context"
	"time"

	"AlertTrack/internal/domain"
)

// ListingSource reads the alert index page into minimal records.
type ListingSource interface {
	FetchListing(ctx context.Context, baseURL string) ([]domain.AlertListingRecord, error)
}

// DetailResolver enriches one record; it never fails the caller.
type DetailResolver interface {
	Resolve(ctx context.Context, record domain.AlertListingRecord, strategy string) domain.AlertDetail
}

// DocumentExtractor downloads a document and returns its plain text.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, documentURL string) (string, error)
}

// Throttle paces calls to rate-limited upstream services. Done reports that
// the paced call has finished.
type Throttle interface {
	Wait(ctx context.Context) error
	Done()
}

// DatasetWriter persists a dataset with a fixed column order.
type DatasetWriter interface {
	Write(dataset domain.EnrichedDataset, path string) error
}

// SnapshotRepository keeps an append-only history of runs.
type SnapshotRepository interface {
	SaveRun(ctx context.Context, run domain.RunInfo, dataset domain.EnrichedDataset) error
	LoadLatest(ctx context.Context) (domain.RunInfo, domain.EnrichedDataset, error)
}

// Summarizer turns alert text into a short summary via an LLM API.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Notifier pushes a run digest to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
