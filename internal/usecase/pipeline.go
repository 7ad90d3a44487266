package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
	"AlertTrack/internal/progress"
)

// State is the orchestrator's position in a run.
type State string

// Run states. FAILED is reached from a listing failure or cancellation.
const (
	StateInit           State = "INIT"
	StateListingFetched State = "LISTING_FETCHED"
	StateEnriching      State = "ENRICHING"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// PipelineDeps wires all driven adapters into the enrichment pipeline.
type PipelineDeps struct {
	Listing   ports.ListingSource
	Resolver  ports.DetailResolver
	Documents ports.DocumentExtractor
	Throttle  ports.Throttle
	Progress  progress.Emitter
	Logger    *slog.Logger

	// ExtractDocuments downloads linked PDFs and stores their text.
	ExtractDocuments bool

	Now      func() time.Time
	NewRunID func() uuid.UUID
}

// Result is the outcome of one run.
type Result struct {
	Run     domain.RunInfo
	Dataset domain.EnrichedDataset
}

// Pipeline implements the listing → per-record enrichment workflow. It is
// sequential and must not be shared between concurrent runs.
type Pipeline struct {
	listing          ports.ListingSource
	resolver         ports.DetailResolver
	documents        ports.DocumentExtractor
	throttle         ports.Throttle
	progress         progress.Emitter
	logger           *slog.Logger
	extractDocuments bool
	now              func() time.Time
	newRunID         func() uuid.UUID

	state State
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		listing:          deps.Listing,
		resolver:         deps.Resolver,
		documents:        deps.Documents,
		throttle:         deps.Throttle,
		progress:         deps.Progress,
		logger:           deps.Logger,
		extractDocuments: deps.ExtractDocuments,
		now:              deps.Now,
		newRunID:         deps.NewRunID,
		state:            StateInit,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = uuid.New
	}
	return p
}

// State reports where the last (or current) run is.
func (p *Pipeline) State() State {
	return p.state
}

// Run fetches the listing at baseURL and enriches every record with the named
// strategy. Each listing record yields exactly one row; per-record failures are
// annotated on the row. Only a listing failure or cancellation fails the run.
func (p *Pipeline) Run(ctx context.Context, baseURL, strategyName string) (Result, error) {
	p.state = StateInit
	runUUID := p.newRunID()
	run := domain.RunInfo{ID: runUUID.String(), StartedAt: p.now()}

	if p.listing == nil || p.resolver == nil {
		return p.fail(ctx, runUUID, run, domain.StageListing, fmt.Errorf("pipeline is not fully configured"))
	}

	records, err := p.listing.FetchListing(ctx, baseURL)
	if err != nil {
		return p.fail(ctx, runUUID, run, domain.StageListing, err)
	}
	p.state = StateListingFetched
	p.emit(ctx, progress.Event{RunID: runUUID, TS: p.now(), Stage: progress.StageRunStart, Total: len(records), URL: baseURL})
	p.debug("listing fetched", "run_id", run.ID, "records", len(records))

	p.state = StateEnriching
	dataset := make(domain.EnrichedDataset, 0, len(records))
	for i, record := range records {
		started := p.now()

		if p.throttle != nil {
			if err := p.throttle.Wait(ctx); err != nil {
				return p.fail(ctx, runUUID, run, domain.StageEnrich, err)
			}
		}

		alert := p.enrich(ctx, record, strategyName)
		dataset = append(dataset, alert)

		p.emit(ctx, progress.Event{
			RunID:  runUUID,
			TS:     p.now(),
			Stage:  progress.StageRecordDone,
			Index:  i,
			Total:  len(records),
			URL:    record.DetailURL,
			Failed: alert.Errors() != "",
			Dur:    p.now().Sub(started),
			Note:   alert.Errors(),
		})
	}

	run.FinishedAt = p.now()
	run.Records = len(dataset)
	run.Failures = dataset.Failures()
	p.state = StateDone
	p.emit(ctx, progress.Event{
		RunID: runUUID,
		TS:    run.FinishedAt,
		Stage: progress.StageRunDone,
		Total: run.Records,
		Dur:   run.FinishedAt.Sub(run.StartedAt),
		Note:  fmt.Sprintf("%d of %d records carry errors", run.Failures, run.Records),
	})

	return Result{Run: run, Dataset: dataset}, nil
}

func (p *Pipeline) enrich(ctx context.Context, record domain.AlertListingRecord, strategyName string) domain.EnrichedAlert {
	alert := domain.EnrichedAlert{
		AlertListingRecord: record,
		AlertDetail:        p.resolver.Resolve(ctx, record, strategyName),
	}
	if p.throttle != nil {
		p.throttle.Done()
	}

	if !p.extractDocuments || p.documents == nil || alert.DocumentURL == "" {
		return alert
	}

	text, err := p.documents.ExtractText(ctx, alert.DocumentURL)
	if err != nil {
		p.warn("document text extraction failed", "url", alert.DocumentURL, "error", err)
		alert.DocumentError = err.Error()
		return alert
	}
	alert.DocumentText = text
	return alert
}

func (p *Pipeline) fail(ctx context.Context, runUUID uuid.UUID, run domain.RunInfo, stage domain.Stage, err error) (Result, error) {
	p.state = StateFailed
	now := p.now()
	p.emit(ctx, progress.Event{
		RunID: runUUID,
		TS:    now,
		Stage: progress.StageRunError,
		Dur:   now.Sub(run.StartedAt),
		Note:  err.Error(),
	})
	return Result{}, &domain.StageError{Stage: stage, Err: err}
}

func (p *Pipeline) emit(ctx context.Context, evt progress.Event) {
	if p.progress != nil {
		p.progress.Emit(ctx, evt)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
