package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlertTrack/internal/domain"
)

func newScan(listing *fakeListing, deps ScanDeps) *ScanService {
	deps.Pipeline = NewPipeline(PipelineDeps{Listing: listing, Resolver: &fakeResolver{}})
	if deps.OutputPath == "" {
		deps.OutputPath = "data.csv"
	}
	return NewScanService(deps)
}

func TestScanWritesSnapshotsAndNotifies(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	snaps := &fakeSnapshots{}
	notifier := &fakeNotifier{}
	svc := newScan(&fakeListing{records: records(3)}, ScanDeps{
		Writer:      writer,
		Snapshots:   snaps,
		Notifier:    notifier,
		Summarizer:  fakeSummarizer{},
		OutputPath:  "out/data.csv",
		DigestItems: 2,
	})

	result, err := svc.Scan(context.Background(), "https://x", "markdown")
	require.NoError(t, err)

	assert.Equal(t, "out/data.csv", writer.path)
	assert.Len(t, writer.written, 3)
	require.Len(t, snaps.runs, 1)
	assert.Equal(t, result.Run.ID, snaps.runs[0].ID)

	require.Len(t, notifier.digests, 1)
	digest := notifier.digests[0]
	assert.Contains(t, digest, "Drug safety alerts: 3 found")
	assert.Contains(t, digest, "undated Alert 1")
	assert.Contains(t, digest, "summary(")
	assert.Contains(t, digest, "and 1 more")
	assert.NotContains(t, digest, "Alert 3")
}

func TestScanWriteFailureKeepsDataset(t *testing.T) {
	t.Parallel()

	snaps := &fakeSnapshots{}
	svc := newScan(&fakeListing{records: records(2)}, ScanDeps{
		Writer:    &fakeWriter{err: &domain.IOError{Path: "data.csv", Err: errors.New("disk full")}},
		Snapshots: snaps,
	})

	result, err := svc.Scan(context.Background(), "https://x", "markdown")
	require.Error(t, err)
	stage, ok := domain.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, domain.StageWrite, stage)
	assert.Len(t, result.Dataset, 2)
	assert.Empty(t, snaps.runs)
}

func TestScanListingFailure(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	svc := newScan(&fakeListing{err: errors.New("dns")}, ScanDeps{Writer: writer})

	_, err := svc.Scan(context.Background(), "https://x", "markdown")
	stage, ok := domain.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, domain.StageListing, stage)
	assert.Nil(t, writer.written)
}

func TestScanSnapshotAndNotifyFailuresNameTheirStage(t *testing.T) {
	t.Parallel()

	svc := newScan(&fakeListing{records: records(1)}, ScanDeps{
		Writer:    &fakeWriter{},
		Snapshots: &fakeSnapshots{err: errors.New("locked")},
	})
	_, err := svc.Scan(context.Background(), "https://x", "markdown")
	stage, _ := domain.FailedStage(err)
	assert.Equal(t, domain.StageSnapshot, stage)

	svc = newScan(&fakeListing{records: records(1)}, ScanDeps{
		Writer:   &fakeWriter{},
		Notifier: &fakeNotifier{err: errors.New("chat not found")},
	})
	result, err := svc.Scan(context.Background(), "https://x", "markdown")
	stage, _ = domain.FailedStage(err)
	assert.Equal(t, domain.StageNotify, stage)
	assert.Len(t, result.Dataset, 1)
}

func TestSummarizeNeverFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	withText := domain.EnrichedAlert{AlertDetail: domain.AlertDetail{DetailedContent: "advice"}}

	assert.Equal(t, "summary(6 chars)", Summarize(ctx, fakeSummarizer{}, withText))
	assert.True(t, strings.HasPrefix(Summarize(ctx, fakeSummarizer{err: errors.New("quota")}, withText), "summary unavailable: quota"))
	assert.Contains(t, Summarize(ctx, nil, withText), "not configured")
	assert.Contains(t, Summarize(ctx, fakeSummarizer{}, domain.EnrichedAlert{}), "no detail or document text")

	withPDF := withText
	withPDF.DocumentText = "longer document text"
	assert.Equal(t, "summary(20 chars)", Summarize(ctx, fakeSummarizer{}, withPDF))
}
