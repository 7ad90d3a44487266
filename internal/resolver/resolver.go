// Package resolver enriches one listing record through a named strategy and
// turns every failure into an annotated, empty AlertDetail.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
	"AlertTrack/internal/strategy"
)

// Resolver looks strategies up in a registry and runs them fail-soft.
type Resolver struct {
	registry *strategy.Registry
	logger   *slog.Logger
}

var _ ports.DetailResolver = (*Resolver)(nil)

// New wires the registry.
func New(reg *strategy.Registry, logger *slog.Logger) *Resolver {
	return &Resolver{registry: reg, logger: logger}
}

// Resolve never returns an error and never panics: a missing strategy, a
// strategy error or a strategy panic yields empty content fields with
// ExtractionError set.
func (r *Resolver) Resolve(ctx context.Context, record domain.AlertListingRecord, strategyName string) (detail domain.AlertDetail) {
	defer func() {
		if rec := recover(); rec != nil {
			r.warn("strategy panicked", "strategy", strategyName, "url", record.DetailURL, "panic", rec, "stack", string(debug.Stack()))
			detail = domain.FailedDetail(&domain.ExtractionError{
				Strategy: strategyName,
				URL:      record.DetailURL,
				Err:      fmt.Errorf("panic: %v", rec),
			})
		}
	}()

	if r.registry == nil {
		return r.fail(record, strategyName, fmt.Errorf("strategy registry is not configured"))
	}

	s, err := r.registry.Resolve(strategyName)
	if err != nil {
		return r.fail(record, strategyName, err)
	}

	out, err := s.Extract(ctx, record.DetailURL)
	if err != nil {
		return r.fail(record, strategyName, err)
	}
	out.ExtractionError = ""
	return out
}

func (r *Resolver) fail(record domain.AlertListingRecord, strategyName string, err error) domain.AlertDetail {
	r.warn("detail extraction failed", "strategy", strategyName, "url", record.DetailURL, "error", err)
	return domain.FailedDetail(&domain.ExtractionError{
		Strategy: strategyName,
		URL:      record.DetailURL,
		Err:      err,
	})
}

func (r *Resolver) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
