package progress

import (
	"context"
	"errors"
	"log/slog"
)

// Sink consumes batches of progress events.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events.
type Emitter interface {
	Emit(ctx context.Context, evt Event)
}

// Fanout delivers each event synchronously to every sink. Runs are sequential,
// so there is no buffering goroutine; a failing sink is logged and skipped.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

var _ Emitter = (*Fanout)(nil)

// NewFanout wires sinks; nil sinks are ignored.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Fanout{sinks: kept, logger: logger}
}

// Emit validates evt and hands it to every sink.
func (f *Fanout) Emit(ctx context.Context, evt Event) {
	if f == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		f.warn("discarding invalid progress event", "error", err)
		return
	}
	batch := []Event{evt}
	for _, sink := range f.sinks {
		if err := sink.Consume(ctx, batch); err != nil {
			f.warn("progress sink consume failed", "error", err)
		}
	}
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close(ctx context.Context) error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
