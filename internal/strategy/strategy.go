package strategy

import (
	"context"
	"fmt"
	"sort"

	"AlertTrack/internal/domain"
)

// Strategy captures one way of turning a detail page into an AlertDetail
// (service markdown, service document lookup, direct HTML, etc.).
type Strategy interface {
	Name() string
	Extract(ctx context.Context, detailURL string) (domain.AlertDetail, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a registry holding the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: map[string]Strategy{}}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(s Strategy) {
	if s == nil {
		return
	}
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[s.Name()] = s
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if s, ok := r.strategies[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("strategy %q is not registered", name)
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
