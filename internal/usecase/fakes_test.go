package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/progress"
)

type fakeListing struct {
	records []domain.AlertListingRecord
	err     error
}

func (f *fakeListing) FetchListing(context.Context, string) ([]domain.AlertListingRecord, error) {
	return f.records, f.err
}

type fakeResolver struct {
	mu    sync.Mutex
	calls []string
	// fail marks detail URLs whose extraction fails
	fail map[string]bool
	pdf  map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, record domain.AlertListingRecord, strategy string) domain.AlertDetail {
	f.mu.Lock()
	f.calls = append(f.calls, record.DetailURL)
	f.mu.Unlock()
	if f.fail[record.DetailURL] {
		return domain.FailedDetail(&domain.ExtractionError{Strategy: strategy, URL: record.DetailURL, Err: errors.New("boom")})
	}
	return domain.AlertDetail{
		DetailedTitle:   record.Title,
		DetailedContent: "content of " + record.Title,
		DocumentURL:     f.pdf[record.DetailURL],
	}
}

type fakeDocuments struct {
	calls int
	err   error
}

func (f *fakeDocuments) ExtractText(_ context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "text of " + url, nil
}

type recordingEmitter struct {
	events []progress.Event
}

func (r *recordingEmitter) Emit(_ context.Context, evt progress.Event) {
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) stages() []progress.Stage {
	out := make([]progress.Stage, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Stage)
	}
	return out
}

type fakeWriter struct {
	err     error
	written domain.EnrichedDataset
	path    string
}

func (f *fakeWriter) Write(dataset domain.EnrichedDataset, path string) error {
	if f.err != nil {
		return f.err
	}
	f.written, f.path = dataset, path
	return nil
}

type fakeSnapshots struct {
	err  error
	runs []domain.RunInfo
}

func (f *fakeSnapshots) SaveRun(_ context.Context, run domain.RunInfo, _ domain.EnrichedDataset) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeSnapshots) LoadLatest(context.Context) (domain.RunInfo, domain.EnrichedDataset, error) {
	return domain.RunInfo{}, nil, errors.New("not implemented")
}

type fakeNotifier struct {
	digests []string
	err     error
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.digests = append(f.digests, digest)
	return f.err
}

type fakeSummarizer struct {
	err error
}

func (f fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary(%d chars)", len(text)), nil
}

func records(n int) []domain.AlertListingRecord {
	out := make([]domain.AlertListingRecord, n)
	for i := range out {
		out[i] = domain.AlertListingRecord{
			Title:     fmt.Sprintf("Alert %d", i+1),
			DetailURL: fmt.Sprintf("https://www.gov.uk/drug-safety-update/alert-%d", i+1),
		}
	}
	return out
}
