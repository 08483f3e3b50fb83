// Package registry is the static catalog mapping a calculator id to the
// factory that produces its definition for a given locale.
//
// Registration happens once at startup, driven by content modules.
// Re-registering an id is a programming error and panics immediately, so a
// duplicate is caught when the process boots rather than when a request
// lands. Category is recorded as registry-time metadata, which lets the
// enumeration helpers answer catalog questions without invoking a single
// factory.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/calcgrid/internal/definition"
)

// Factory produces a compiled definition for one locale. Factories must be
// pure: the same (id, locale) pair always yields a structurally identical
// definition.
type Factory func(locale string) *definition.Definition

// Module is the interface content packages implement to contribute their
// calculators to a registry instance.
type Module interface {
	Register(r *Registry)
}

type entry struct {
	category definition.Category
	factory  Factory
}

// Registry holds the calculator catalog for a single application instance.
// It is populated single-threaded at startup and read-only afterwards.
type Registry struct {
	entries map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register inserts a factory under the given id.
func (r *Registry) Register(id string, category definition.Category, factory Factory) {
	if _, exists := r.entries[id]; exists {
		panic(fmt.Sprintf("calculator '%s' already registered", id))
	}
	if factory == nil {
		panic(fmt.Sprintf("calculator '%s' registered with nil factory", id))
	}
	slog.Debug("Registering calculator factory.", "id", id, "category", category)
	r.entries[id] = entry{category: category, factory: factory}
}

// Lookup returns the factory for an id. Total: never panics, the boolean
// reports presence.
func (r *Registry) Lookup(id string) (Factory, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

// Category returns the registered category for an id.
func (r *Registry) Category(id string) (definition.Category, bool) {
	e, ok := r.entries[id]
	if !ok {
		return "", false
	}
	return e.category, true
}

// List returns every registered id in sorted order.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CountByCategory tallies registered calculators per category from static
// registry metadata. No factory is invoked.
func (r *Registry) CountByCategory() map[definition.Category]int {
	counts := make(map[definition.Category]int)
	for _, e := range r.entries {
		counts[e.category]++
	}
	return counts
}

// IDsByCategory returns the sorted ids registered under one category.
func (r *Registry) IDsByCategory(category definition.Category) []string {
	var ids []string
	for id, e := range r.entries {
		if e.category == category {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered calculators.
func (r *Registry) Len() int {
	return len(r.entries)
}
