package app

import (
	"github.com/vk/calcgrid/internal/registry"
	"github.com/vk/calcgrid/modules/converter"
	"github.com/vk/calcgrid/modules/finance"
	"github.com/vk/calcgrid/modules/health"
)

// coreModules is the definitive list of content modules compiled into the
// calcgrid binary.
var coreModules = []registry.Module{
	&finance.Module{},
	&health.Module{},
	&converter.Module{},
}
