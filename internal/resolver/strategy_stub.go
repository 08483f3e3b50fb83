package resolver

import (
	"context"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
)

// stubStrategy is the last resort: it synthesizes a minimal two-input
// definition from the slug text alone and never declines. Its existence is
// what makes Resolve total: a failure of every earlier tier is not
// observable as an error.
type stubStrategy struct{}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	return eval.MustCompile(stubDefinition(slug, locale)), nil
}

func stubDefinition(slug, locale string) *definition.Definition {
	return &definition.Definition{
		ID:       slug,
		Category: DetectCategory(slug),
		Locale:   locale,
		Inputs: []definition.InputSpec{
			{Key: "value1", Type: definition.TypeNumber, Required: true},
			{Key: "value2", Type: definition.TypeNumber, Required: true},
		},
		Outputs: []definition.OutputSpec{
			{Key: "result", Format: definition.FormatNumber, Precision: 2},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression:        `{ result = value1 + value2 }`,
				DeclaredVariables: []string{"value1", "value2"},
			},
		},
		LocalizedContent: map[string]definition.Content{
			locale: {Title: slugTitle(slug)},
		},
	}
}

// minimalDefinition is the inline belt-and-braces fallback used only if
// the stub strategy itself faults. Uncompiled: evaluation would degrade,
// but resolution stays total.
func minimalDefinition(slug, locale string) *definition.Definition {
	def := stubDefinition(slug, locale)
	_ = def.Compile(eval.FunctionNames())
	return def
}
