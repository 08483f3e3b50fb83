package resolver

import (
	"context"
	"fmt"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/locale"
)

// legacyStrategy is tier three: a fixed table of hand-written definitions
// that pre-date the registry. New calculators go through content modules;
// this table only shrinks.
type legacyStrategy struct {
	table map[string]func(ctx context.Context, locale string) *definition.Definition
}

func newLegacyStrategy() *legacyStrategy {
	return &legacyStrategy{
		table: map[string]func(ctx context.Context, locale string) *definition.Definition{
			"simple-interest": legacySimpleInterest,
			"fuel-cost":       legacyFuelCost,
		},
	}
}

func (s *legacyStrategy) Name() string { return "legacy" }

func (s *legacyStrategy) Try(ctx context.Context, slug, loc string) (*definition.Definition, error) {
	build, ok := s.table[slug]
	if !ok {
		return nil, nil
	}
	return build(ctx, loc), nil
}

func legacySimpleInterest(ctx context.Context, loc string) *definition.Definition {
	cfg := locale.ConfigFor(ctx, loc)
	return eval.MustCompile(&definition.Definition{
		ID:       "simple-interest",
		Category: definition.CategoryFinance,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "principal", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
			{Key: "rate", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(100)},
			{Key: "years", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(60)},
		},
		Outputs: []definition.OutputSpec{
			{Key: "interest", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "total", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					interest = principal * rate / 100 * clamp(years, 0, 60)
					total    = principal + principal * rate / 100 * clamp(years, 0, 60)
				}`,
				DeclaredVariables: []string{"principal", "rate", "years"},
				Description:       "Simple (non-compounding) interest over a fixed term.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       "Simple Interest Calculator",
				Description: fmt.Sprintf("Interest and total repayment in %s without compounding.", cfg.Currency),
				Keywords:    []string{"simple interest", "interest calculator"},
			},
		},
	})
}

func legacyFuelCost(ctx context.Context, loc string) *definition.Definition {
	cfg := locale.ConfigFor(ctx, loc)
	return eval.MustCompile(&definition.Definition{
		ID:       "fuel-cost",
		Category: definition.CategoryFinance,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "distance", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
			{Key: "consumption", Type: definition.TypeNumber, Required: true, Min: floatPtr(0.1)},
			{Key: "price_per_unit", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
		},
		Outputs: []definition.OutputSpec{
			{Key: "fuel_needed", Format: definition.FormatNumber, Precision: 1},
			{Key: "trip_cost", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					fuel_needed = distance / 100 * consumption
					trip_cost   = distance / 100 * consumption * price_per_unit
				}`,
				DeclaredVariables: []string{"distance", "consumption", "price_per_unit"},
				Description:       "Trip fuel volume and cost from per-100 consumption.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       "Fuel Cost Calculator",
				Description: fmt.Sprintf("Estimate trip fuel cost in %s.", cfg.Currency),
				Keywords:    []string{"fuel", "trip cost"},
			},
		},
	})
}

func floatPtr(v float64) *float64 { return &v }
