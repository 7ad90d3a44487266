package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
)

const summaryUnavailable = "summary unavailable"

// ScanDeps wires the pipeline with the stages that follow enrichment.
type ScanDeps struct {
	Pipeline   *Pipeline
	Writer     ports.DatasetWriter
	Snapshots  ports.SnapshotRepository
	Notifier   ports.Notifier
	Summarizer ports.Summarizer
	Logger     *slog.Logger

	OutputPath  string
	DigestItems int
}

// ScanService runs the pipeline and persists, snapshots and announces the result.
type ScanService struct {
	pipeline    *Pipeline
	writer      ports.DatasetWriter
	snapshots   ports.SnapshotRepository
	notifier    ports.Notifier
	summarizer  ports.Summarizer
	logger      *slog.Logger
	outputPath  string
	digestItems int
}

// NewScanService constructs the scan use case.
func NewScanService(deps ScanDeps) *ScanService {
	items := deps.DigestItems
	if items <= 0 {
		items = 10
	}
	return &ScanService{
		pipeline:    deps.Pipeline,
		writer:      deps.Writer,
		snapshots:   deps.Snapshots,
		notifier:    deps.Notifier,
		summarizer:  deps.Summarizer,
		logger:      deps.Logger,
		outputPath:  deps.OutputPath,
		digestItems: items,
	}
}

// Scan runs one full pass. After a successful enrichment the result is always
// returned, even when a later stage fails, so the caller can retry the write.
func (s *ScanService) Scan(ctx context.Context, baseURL, strategyName string) (Result, error) {
	if s.pipeline == nil {
		return Result{}, fmt.Errorf("scan service: pipeline is not configured")
	}

	result, err := s.pipeline.Run(ctx, baseURL, strategyName)
	if err != nil {
		return result, err
	}

	if s.writer != nil {
		if err := s.writer.Write(result.Dataset, s.outputPath); err != nil {
			return result, &domain.StageError{Stage: domain.StageWrite, Err: err}
		}
		s.info("dataset written", "path", s.outputPath, "records", len(result.Dataset), "failures", result.Run.Failures)
	}

	if s.snapshots != nil {
		if err := s.snapshots.SaveRun(ctx, result.Run, result.Dataset); err != nil {
			return result, &domain.StageError{Stage: domain.StageSnapshot, Err: err}
		}
		s.info("snapshot saved", "run_id", result.Run.ID)
	}

	if s.notifier != nil && len(result.Dataset) > 0 {
		digest := BuildDigest(ctx, s.summarizer, result, s.digestItems)
		if err := s.notifier.PublishDigest(ctx, digest); err != nil {
			return result, &domain.StageError{Stage: domain.StageNotify, Err: err}
		}
		s.info("digest published", "items", min(len(result.Dataset), s.digestItems))
	}

	return result, nil
}

// Summarize never fails: a missing summarizer, missing text or an API error
// comes back as readable text.
func Summarize(ctx context.Context, summarizer ports.Summarizer, alert domain.EnrichedAlert) string {
	text := strings.TrimSpace(alert.SummaryText())
	if text == "" {
		return summaryUnavailable + ": no detail or document text"
	}
	if summarizer == nil {
		return summaryUnavailable + ": summarizer is not configured"
	}
	summary, err := summarizer.Summarize(ctx, text)
	if err != nil {
		return fmt.Sprintf("%s: %v", summaryUnavailable, err)
	}
	return strings.TrimSpace(summary)
}

// BuildDigest renders the first maxItems alerts of a run as a chat message.
// Summaries are only requested when a summarizer is configured.
func BuildDigest(ctx context.Context, summarizer ports.Summarizer, result Result, maxItems int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Drug safety alerts: %d found", len(result.Dataset))
	if result.Run.Failures > 0 {
		fmt.Fprintf(&b, ", %d with errors", result.Run.Failures)
	}
	b.WriteString("\n\n")

	for i, alert := range result.Dataset {
		if i >= maxItems {
			fmt.Fprintf(&b, "…and %d more\n", len(result.Dataset)-maxItems)
			break
		}
		date := alert.FormattedDate()
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(&b, "- %s %s\n", date, alert.Title)
		if summarizer != nil {
			fmt.Fprintf(&b, "%s\n", Summarize(ctx, summarizer, alert))
		}
		if alert.DocumentURL != "" {
			fmt.Fprintf(&b, "%s\n", alert.DocumentURL)
		} else {
			fmt.Fprintf(&b, "%s\n", alert.DetailURL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *ScanService) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
