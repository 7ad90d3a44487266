package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/logging"
	"AlertTrack/internal/strategy"
)

type funcStrategy struct {
	name string
	fn   func(ctx context.Context, url string) (domain.AlertDetail, error)
}

func (f funcStrategy) Name() string { return f.name }

func (f funcStrategy) Extract(ctx context.Context, url string) (domain.AlertDetail, error) {
	return f.fn(ctx, url)
}

var record = domain.AlertListingRecord{Title: "Alert", DetailURL: "https://www.gov.uk/drug-safety-update/a"}

func TestResolveSuccess(t *testing.T) {
	t.Parallel()

	reg := strategy.NewRegistry(funcStrategy{name: "markdown", fn: func(_ context.Context, url string) (domain.AlertDetail, error) {
		return domain.AlertDetail{DetailedTitle: "T", DetailedContent: "body of " + url}, nil
	}})

	got := New(reg, logging.Discard()).Resolve(context.Background(), record, "markdown")
	assert.Equal(t, "T", got.DetailedTitle)
	assert.Equal(t, "body of "+record.DetailURL, got.DetailedContent)
	assert.False(t, got.Failed())
}

func TestResolveAlwaysFailingStrategyDoesNotPropagate(t *testing.T) {
	t.Parallel()

	reg := strategy.NewRegistry(funcStrategy{name: "markdown", fn: func(context.Context, string) (domain.AlertDetail, error) {
		return domain.AlertDetail{DetailedTitle: "partial"}, errors.New("service unavailable")
	}})

	got := New(reg, logging.Discard()).Resolve(context.Background(), record, "markdown")
	assert.True(t, got.Empty())
	assert.True(t, got.Failed())
	assert.Contains(t, got.ExtractionError, "service unavailable")
	assert.Contains(t, got.ExtractionError, "markdown")
}

func TestResolvePanickingStrategyIsRecovered(t *testing.T) {
	t.Parallel()

	reg := strategy.NewRegistry(funcStrategy{name: "document", fn: func(context.Context, string) (domain.AlertDetail, error) {
		panic("nil map write")
	}})

	var got domain.AlertDetail
	assert.NotPanics(t, func() {
		got = New(reg, nil).Resolve(context.Background(), record, "document")
	})
	assert.True(t, got.Empty())
	assert.Contains(t, got.ExtractionError, "panic: nil map write")
}

func TestResolveUnknownStrategy(t *testing.T) {
	t.Parallel()

	got := New(strategy.NewRegistry(), nil).Resolve(context.Background(), record, "ocr")
	assert.True(t, got.Empty())
	assert.Contains(t, got.ExtractionError, `"ocr" is not registered`)

	got = New(nil, nil).Resolve(context.Background(), record, "ocr")
	assert.True(t, got.Failed())
}
