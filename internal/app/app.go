// Package app wires the calculator platform together: registry, resolver
// and evaluator behind one constructor, with an isolated logger per
// instance.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/registry"
	"github.com/vk/calcgrid/internal/resolver"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. It is safe for concurrent use once constructed.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	resolver  *resolver.Service
	evaluator *eval.Evaluator
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Content factories panic on broken formulas, so a bad module stops the
// process here rather than on the first request.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All content modules registered.", "count", len(modules), "calculators", reg.Len())

	var evalOpts []eval.Option
	if cfg.MaxIterations > 0 {
		evalOpts = append(evalOpts, eval.WithMaxIterations(cfg.MaxIterations))
	}

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		registry:  reg,
		resolver:  resolver.NewService(reg),
		evaluator: eval.New(evalOpts...),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Resolve returns the definition for a slug, applying the configured
// default locale when the caller passes none.
func (a *App) Resolve(ctx context.Context, slug, locale string) *definition.Definition {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if locale == "" {
		locale = a.config.DefaultLocale
	}
	return a.resolver.Resolve(ctx, slug, locale)
}

// ResolveAll resolves every registered calculator for one locale.
func (a *App) ResolveAll(ctx context.Context, locale string) []*definition.Definition {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if locale == "" {
		locale = a.config.DefaultLocale
	}
	return a.resolver.ResolveAll(ctx, locale)
}

// Evaluate resolves a slug and runs its primary formula over raw inputs.
func (a *App) Evaluate(ctx context.Context, slug, locale string, raw map[string]any) *eval.Result {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if locale == "" {
		locale = a.config.DefaultLocale
	}
	def := a.resolver.Resolve(ctx, slug, locale)
	return a.evaluator.Evaluate(ctx, def, definition.PrimaryFormula, raw)
}
