package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/locale"
)

// genericStrategy is tier four: category-aware template instantiation.
// DetectCategory picks the template, the per-locale constant table fills in
// currency and regional defaults. Miscellaneous slugs are declined so the
// later tiers get their chance.
type genericStrategy struct{}

func (s *genericStrategy) Name() string { return "generic" }

func (s *genericStrategy) Try(ctx context.Context, slug, loc string) (*definition.Definition, error) {
	cfg := locale.ConfigFor(ctx, loc)
	switch DetectCategory(slug) {
	case definition.CategoryFinance:
		return financeTemplate(slug, loc, cfg), nil
	case definition.CategoryHealth:
		return healthTemplate(slug, loc, cfg), nil
	case definition.CategoryConversion:
		// "x-to-y" slugs belong to the autogen tier, which knows actual
		// unit factors; the generic factor template would shadow it.
		if strings.Contains(slug, "-to-") {
			return nil, nil
		}
		return conversionTemplate(slug, loc, cfg), nil
	case definition.CategoryEducation:
		return educationTemplate(slug, loc, cfg), nil
	default:
		return nil, nil
	}
}

// financeTemplate renders any finance-flavored slug as an amortized loan
// with regional default rate and term.
func financeTemplate(slug, loc string, cfg locale.Config) *definition.Definition {
	defaultRate := cty.NumberFloatVal(cfg.Defaults["interest_rate"])
	defaultYears := cty.NumberFloatVal(cfg.Defaults["loan_years"])
	return eval.MustCompile(&definition.Definition{
		ID:       slug,
		Category: definition.CategoryFinance,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "principal", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
			{Key: "rate", Type: definition.TypeNumber, Default: &defaultRate, Min: floatPtr(0), Max: floatPtr(100)},
			{Key: "years", Type: definition.TypeNumber, Default: &defaultYears, Min: floatPtr(0), Max: floatPtr(60)},
		},
		Outputs: []definition.OutputSpec{
			{Key: "monthly", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "total", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "interest", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					monthly  = pmt(principal, rate, years)
					total    = amorttotal(principal, rate, years)
					interest = amortinterest(principal, rate, years)
				}`,
				DeclaredVariables: []string{"principal", "rate", "years"},
				Description:       "Amortized repayment with monthly compounding.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       slugTitle(slug),
				Description: fmt.Sprintf("Monthly payment, total repayment and interest in %s.", cfg.Currency),
				Keywords:    []string{slugTitle(slug), "payment calculator"},
			},
		},
	})
}

// healthTemplate renders health-flavored slugs as a BMI calculation with
// locale-specific classification thresholds.
func healthTemplate(slug, loc string, cfg locale.Config) *definition.Definition {
	return eval.MustCompile(&definition.Definition{
		ID:       slug,
		Category: definition.CategoryHealth,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "weight", Type: definition.TypeNumber, Required: true, Min: floatPtr(1), Max: floatPtr(700)},
			{Key: "height", Type: definition.TypeNumber, Required: true, Min: floatPtr(30), Max: floatPtr(300)},
		},
		Outputs: []definition.OutputSpec{
			{Key: "bmi", Format: definition.FormatNumber, Precision: 1},
			{Key: "classification", Format: definition.FormatText},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					bmi            = weight / pow(height / 100, 2)
					classification = (weight / pow(height / 100, 2)) < cfg.bmi_underweight ? "Underweight" : (weight / pow(height / 100, 2)) < cfg.bmi_normal ? "Normal" : (weight / pow(height / 100, 2)) < cfg.bmi_overweight ? "Overweight" : "Obese"
				}`,
				DeclaredVariables: []string{"weight", "height"},
				Description:       "Body mass index from metric weight and height.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       slugTitle(slug),
				Description: "Body mass index and classification band.",
				Keywords:    []string{slugTitle(slug), "bmi"},
			},
		},
	})
}

// conversionTemplate is the free-form converter: value times a caller
// supplied factor. Slug pairs the autogen tier recognizes never reach
// here in the default chain order; this covers the rest.
func conversionTemplate(slug, loc string, cfg locale.Config) *definition.Definition {
	one := cty.NumberIntVal(1)
	return eval.MustCompile(&definition.Definition{
		ID:       slug,
		Category: definition.CategoryConversion,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "value", Type: definition.TypeNumber, Required: true},
			{Key: "factor", Type: definition.TypeNumber, Default: &one},
		},
		Outputs: []definition.OutputSpec{
			{Key: "result", Format: definition.FormatNumber, Precision: 4},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression:        `{ result = value * factor }`,
				DeclaredVariables: []string{"value", "factor"},
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       slugTitle(slug),
				Description: "Multiply a value by a conversion factor.",
			},
		},
	})
}

// educationTemplate renders grade-flavored slugs as a percentage score
// with a guard against an empty test.
func educationTemplate(slug, loc string, cfg locale.Config) *definition.Definition {
	return eval.MustCompile(&definition.Definition{
		ID:       slug,
		Category: definition.CategoryEducation,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "points_earned", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
			{Key: "points_possible", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
		},
		Outputs: []definition.OutputSpec{
			{Key: "percentage", Format: definition.FormatPercentage, Precision: 1},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression:        `{ percentage = points_possible > 0 ? points_earned / points_possible * 100 : 0 }`,
				DeclaredVariables: []string{"points_earned", "points_possible"},
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       slugTitle(slug),
				Description: "Score as a percentage of available points.",
			},
		},
	})
}
