// Package health contributes the first-party health calculators.
package health

import (
	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/registry"
)

type Module struct{}

func (m *Module) Register(r *registry.Registry) {
	r.Register("bmi-calculator", definition.CategoryHealth, bmiCalculator)
}

var bmiTitles = map[string]string{
	"en": "BMI Calculator",
	"de": "BMI-Rechner",
	"th": "โปรแกรมคำนวณค่าดัชนีมวลกาย",
}

// bmiCalculator reads the classification thresholds from the locale
// constant table at evaluation time, via cfg.* inside the formula.
func bmiCalculator(loc string) *definition.Definition {
	title := bmiTitles[loc]
	if title == "" {
		title = bmiTitles["en"]
	}
	return eval.MustCompile(&definition.Definition{
		ID:       "bmi-calculator",
		Category: definition.CategoryHealth,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "weight_kg", Type: definition.TypeNumber, Required: true, Min: floatPtr(1), Max: floatPtr(700), Step: 0.1},
			{Key: "height_cm", Type: definition.TypeNumber, Required: true, Min: floatPtr(30), Max: floatPtr(300), Step: 0.5},
		},
		Outputs: []definition.OutputSpec{
			{Key: "bmi", Format: definition.FormatNumber, Precision: 1},
			{Key: "classification", Format: definition.FormatText},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					bmi = weight_kg / pow(height_cm / 100, 2)
					classification = (
						weight_kg / pow(height_cm / 100, 2) < cfg.bmi_underweight ? "underweight" :
						weight_kg / pow(height_cm / 100, 2) < cfg.bmi_normal ? "normal" :
						weight_kg / pow(height_cm / 100, 2) < cfg.bmi_overweight ? "overweight" : "obese"
					)
				}`,
				DeclaredVariables: []string{"weight_kg", "height_cm"},
				Description:       "Body mass index with the locale's classification thresholds.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       title,
				Description: "Body mass index from weight and height, classified by regional thresholds.",
				Keywords:    []string{"bmi", "body mass index", "weight"},
				FAQ: []definition.FAQEntry{
					{
						Question: "Why do classifications differ by region?",
						Answer:   "Some regions use lower thresholds because health risk rises at lower BMI values in those populations.",
					},
				},
			},
		},
	})
}

func floatPtr(v float64) *float64 { return &v }
