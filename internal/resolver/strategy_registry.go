package resolver

import (
	"context"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/registry"
)

// registryStrategy is tier two: the static catalog of first-party
// calculator factories.
type registryStrategy struct {
	registry *registry.Registry
}

func (s *registryStrategy) Name() string { return "registry" }

func (s *registryStrategy) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	factory, ok := s.registry.Lookup(slug)
	if !ok {
		return nil, nil
	}
	return factory(locale), nil
}
