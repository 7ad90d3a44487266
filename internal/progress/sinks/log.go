// Package sinks holds progress.Sink implementations.
package sinks

import (
	"context"
	"log/slog"

	"AlertTrack/internal/progress"
)

// LogSink writes each progress event as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink wires a slog logger to the sink interface.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch.
func (s *LogSink) Consume(ctx context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.logger.InfoContext(ctx, "run started", "run_id", evt.RunID, "records", evt.Total)
		case progress.StageRecordDone:
			level := slog.LevelInfo
			if evt.Failed {
				level = slog.LevelWarn
			}
			s.logger.Log(ctx, level, "record enriched",
				"run_id", evt.RunID,
				"position", evt.Index+1,
				"total", evt.Total,
				"url", evt.URL,
				"failed", evt.Failed,
				"dur", evt.Dur,
				"note", evt.Note,
			)
		case progress.StageRunDone:
			s.logger.InfoContext(ctx, "run finished", "run_id", evt.RunID, "records", evt.Total, "dur", evt.Dur, "note", evt.Note)
		case progress.StageRunError:
			s.logger.ErrorContext(ctx, "run failed", "run_id", evt.RunID, "dur", evt.Dur, "error", evt.Note)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
