package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
)

// unit describes a linear conversion to its dimension's base unit:
// base = value*factor + offset.
type unit struct {
	dimension string
	factor    float64
	offset    float64
}

var knownUnits = map[string]unit{
	"meters":      {"length", 1, 0},
	"centimeters": {"length", 0.01, 0},
	"kilometers":  {"length", 1000, 0},
	"inches":      {"length", 0.0254, 0},
	"feet":        {"length", 0.3048, 0},
	"yards":       {"length", 0.9144, 0},
	"miles":       {"length", 1609.344, 0},

	"kilograms": {"mass", 1, 0},
	"grams":     {"mass", 0.001, 0},
	"pounds":    {"mass", 0.45359237, 0},
	"ounces":    {"mass", 0.028349523125, 0},

	"celsius":    {"temperature", 1, 0},
	"fahrenheit": {"temperature", 5.0 / 9.0, -160.0 / 9.0},
	"kelvin":     {"temperature", 1, -273.15},

	"liters":  {"volume", 1, 0},
	"gallons": {"volume", 3.785411784, 0},
}

// autogenStrategy is tier five: it auto-generates unit converters from
// "x-to-y" slugs using the unit table above. It carries fewer guarantees
// than the generic templates: a slug naming unknown or dimensionally
// mismatched units is declined.
type autogenStrategy struct{}

func (s *autogenStrategy) Name() string { return "autogen" }

func (s *autogenStrategy) Try(ctx context.Context, slug, loc string) (*definition.Definition, error) {
	fromName, toName, ok := strings.Cut(strings.ToLower(slug), "-to-")
	if !ok {
		return nil, nil
	}
	from, okFrom := knownUnits[fromName]
	to, okTo := knownUnits[toName]
	if !okFrom || !okTo || from.dimension != to.dimension {
		return nil, nil
	}

	// base = value*f1 + o1, result = (base - o2)/f2; constants are baked
	// into the generated expression so the formula stays a pure function
	// of its single input.
	expression := fmt.Sprintf(
		`{ result = (value * %.12g + %.12g - %.12g) / %.12g }`,
		from.factor, from.offset, to.offset, to.factor,
	)

	return eval.MustCompile(&definition.Definition{
		ID:       slug,
		Category: definition.CategoryConversion,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "value", Type: definition.TypeNumber, Required: true},
		},
		Outputs: []definition.OutputSpec{
			{Key: "result", Format: definition.FormatNumber, Precision: 4, Unit: toName},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression:        expression,
				DeclaredVariables: []string{"value"},
				Description:       fmt.Sprintf("Convert %s to %s.", fromName, toName),
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       slugTitle(slug),
				Description: fmt.Sprintf("Convert %s to %s.", fromName, toName),
				Keywords:    []string{fromName, toName, "converter"},
			},
		},
	}), nil
}
