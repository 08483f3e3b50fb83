// Package resolver turns a (slug, locale) pair into a calculator
// definition. Resolution is total by construction: an ordered chain of
// strategies is consulted, first success wins, and the final stub strategy
// synthesizes a definition from the slug text alone, so the UI is never
// asked to render "no calculator".
//
// The resolved definition is cached per (locale, slug) for the process
// lifetime. Factories are pure, so the cache uses plain insert-if-absent
// semantics: a racing first population may construct the same definition
// twice, wastefully but harmlessly, and every caller still observes a
// single canonical instance afterwards.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/registry"
)

// Strategy is one resolution tier. Returning (nil, nil) declines the slug;
// an error declines it loudly. Strategies must not assume they run before
// or after any other tier.
type Strategy interface {
	Name() string
	Try(ctx context.Context, slug, locale string) (*definition.Definition, error)
}

// Service owns the registry, the strategy chain and the resolution cache
// for one application instance. Construct it once at startup and inject it
// wherever resolution is needed; tests get a fresh, isolated instance.
type Service struct {
	registry   *registry.Registry
	strategies []Strategy
	stub       Strategy

	// cache maps "locale|slug" to *definition.Definition. sync.Map fits
	// the workload: keys stabilize quickly and reads dominate.
	cache sync.Map
}

// Option configures a Service.
type Option func(*Service)

// WithStrategies replaces the default tier chain (the guaranteed stub tier
// stays in place). Used by tests to observe and count tier invocations.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Service) {
		s.strategies = strategies
	}
}

// WithStub replaces the last-resort strategy.
func WithStub(stub Strategy) Option {
	return func(s *Service) {
		s.stub = stub
	}
}

// NewService builds a Service over the given registry with the default
// tier order: registry, legacy table, generic template, auto-generator,
// and the stub of last resort.
func NewService(reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		strategies: []Strategy{
			&registryStrategy{registry: reg},
			newLegacyStrategy(),
			&genericStrategy{},
			&autogenStrategy{},
		},
		stub: &stubStrategy{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the catalog backing this service.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Resolve returns the definition for a slug and locale. It never returns
// nil and never panics; unexpected faults inside a tier merely advance the
// chain.
func (s *Service) Resolve(ctx context.Context, slug, locale string) *definition.Definition {
	key := locale + "|" + slug
	if cached, ok := s.cache.Load(key); ok {
		return cached.(*definition.Definition)
	}

	def := s.resolveTiers(ctx, slug, locale)
	actual, _ := s.cache.LoadOrStore(key, def)
	return actual.(*definition.Definition)
}

// ResolveAll resolves every registered calculator for one locale, in
// sorted id order. Sitemap-style enumeration; cache-backed like Resolve.
func (s *Service) ResolveAll(ctx context.Context, locale string) []*definition.Definition {
	ids := s.registry.List()
	defs := make([]*definition.Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, s.Resolve(ctx, id, locale))
	}
	return defs
}

// InvalidateAll empties the resolution cache. Test helper; production
// paths never invalidate.
func (s *Service) InvalidateAll() {
	s.cache.Range(func(key, _ any) bool {
		s.cache.Delete(key)
		return true
	})
}

func (s *Service) resolveTiers(ctx context.Context, slug, locale string) *definition.Definition {
	logger := ctxlog.FromContext(ctx)

	for _, strategy := range s.strategies {
		def, err := tryStrategy(ctx, strategy, slug, locale)
		if err != nil {
			logger.Warn("Resolution tier failed; advancing to next tier.",
				"tier", strategy.Name(), "slug", slug, "locale", locale, "error", err)
			continue
		}
		if def != nil {
			logger.Debug("Resolution tier produced a definition.",
				"tier", strategy.Name(), "slug", slug, "locale", locale)
			return def
		}
	}

	// Reaching the stub means no catalog entry exists for this slug. Not
	// an error by contract, but worth surfacing so the gap gets filled.
	logger.Info("Resolution miss: synthesizing stub definition.", "slug", slug, "locale", locale)

	def, err := tryStrategy(ctx, s.stub, slug, locale)
	if err == nil && def != nil {
		return def
	}
	logger.Error("Stub strategy failed; synthesizing minimal definition inline.",
		"slug", slug, "locale", locale, "error", err)
	return minimalDefinition(slug, locale)
}

// tryStrategy invokes one tier with a panic guard: a tier blowing up is a
// decline, never a failure of Resolve itself.
func tryStrategy(ctx context.Context, strategy Strategy, slug, locale string) (def *definition.Definition, err error) {
	defer func() {
		if r := recover(); r != nil {
			def = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	return strategy.Try(ctx, slug, locale)
}
