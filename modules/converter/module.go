// Package converter contributes first-party unit converters with richer
// content than the autogenerated single-pair converters.
package converter

import (
	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/registry"
)

type Module struct{}

func (m *Module) Register(r *registry.Registry) {
	r.Register("length-converter", definition.CategoryConversion, lengthConverter)
	r.Register("temperature-converter", definition.CategoryConversion, temperatureConverter)
}

// lengthConverter converts between the common length units through meters.
func lengthConverter(loc string) *definition.Definition {
	return eval.MustCompile(&definition.Definition{
		ID:       "length-converter",
		Category: definition.CategoryConversion,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "value", Type: definition.TypeNumber, Required: true},
			{
				Key: "from", Type: definition.TypeSelect, Required: true,
				Options: []string{"meters", "kilometers", "feet", "miles", "inches", "centimeters"},
			},
			{
				Key: "to", Type: definition.TypeSelect, Required: true,
				Options: []string{"meters", "kilometers", "feet", "miles", "inches", "centimeters"},
			},
		},
		Outputs: []definition.OutputSpec{
			{Key: "result", Format: definition.FormatNumber, Precision: 6},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					result = (
						value * (
							from == "kilometers"  ? 1000 :
							from == "feet"        ? 0.3048 :
							from == "miles"       ? 1609.344 :
							from == "inches"      ? 0.0254 :
							from == "centimeters" ? 0.01 : 1
						)
					) / (
						to == "kilometers"  ? 1000 :
						to == "feet"        ? 0.3048 :
						to == "miles"       ? 1609.344 :
						to == "inches"      ? 0.0254 :
						to == "centimeters" ? 0.01 : 1
					)
				}`,
				DeclaredVariables: []string{"value", "from", "to"},
				Description:       "Length conversion normalized through meters.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       "Length Converter",
				Description: "Convert between metric and imperial length units.",
				Keywords:    []string{"length", "meters", "feet", "miles", "convert"},
			},
		},
	})
}

// temperatureConverter handles the affine celsius, fahrenheit and kelvin
// scales, normalizing through celsius.
func temperatureConverter(loc string) *definition.Definition {
	return eval.MustCompile(&definition.Definition{
		ID:       "temperature-converter",
		Category: definition.CategoryConversion,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "value", Type: definition.TypeNumber, Required: true},
			{
				Key: "from", Type: definition.TypeSelect, Required: true,
				Options: []string{"celsius", "fahrenheit", "kelvin"},
			},
			{
				Key: "to", Type: definition.TypeSelect, Required: true,
				Options: []string{"celsius", "fahrenheit", "kelvin"},
			},
		},
		Outputs: []definition.OutputSpec{
			{Key: "result", Format: definition.FormatNumber, Precision: 2},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					result = (
						(
							from == "fahrenheit" ? (value - 32) * 5 / 9 :
							from == "kelvin"     ? value - 273.15 : value
						) * (to == "fahrenheit" ? 9 : 5) / 5
					) + (
						to == "fahrenheit" ? 32 :
						to == "kelvin"     ? 273.15 : 0
					)
				}`,
				DeclaredVariables: []string{"value", "from", "to"},
				Description:       "Temperature conversion normalized through celsius.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       "Temperature Converter",
				Description: "Convert between celsius, fahrenheit and kelvin.",
				Keywords:    []string{"temperature", "celsius", "fahrenheit", "kelvin"},
			},
		},
	})
}
