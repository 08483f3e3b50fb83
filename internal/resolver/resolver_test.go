package resolver_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/registry"
	"github.com/vk/calcgrid/internal/resolver"
)

func newRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register("loan-calculator", definition.CategoryFinance, func(locale string) *definition.Definition {
		return eval.MustCompile(&definition.Definition{
			ID:       "loan-calculator",
			Category: definition.CategoryFinance,
			Locale:   locale,
			Inputs: []definition.InputSpec{
				{Key: "principal", Type: definition.TypeNumber, Required: true},
				{Key: "rate", Type: definition.TypeNumber, Required: true},
				{Key: "years", Type: definition.TypeNumber, Required: true},
			},
			Outputs: []definition.OutputSpec{
				{Key: "monthly", Format: definition.FormatCurrency, Precision: 2},
			},
			Formulas: map[string]*definition.FormulaSpec{
				definition.PrimaryFormula: {
					Expression:        `{ monthly = pmt(principal, rate, years) }`,
					DeclaredVariables: []string{"principal", "rate", "years"},
				},
			},
			LocalizedContent: map[string]definition.Content{
				locale: {Title: "Loan Calculator (registry)"},
			},
		})
	})
	return reg
}

func evaluateOutput(t *testing.T, def *definition.Definition, raw map[string]any, key string) eval.OutputValue {
	t.Helper()
	result := eval.New().Evaluate(context.Background(), def, definition.PrimaryFormula, raw)
	require.Empty(t, result.Errors)
	for _, out := range result.Outputs {
		if out.Key == key {
			return out
		}
	}
	t.Fatalf("no output %q", key)
	return eval.OutputValue{}
}

func TestResolve_Totality(t *testing.T) {
	service := resolver.NewService(newRegistry())
	slugs := []string{
		"loan-calculator", "simple-interest", "car-loan-calculator",
		"meters-to-feet", "complete-nonsense-xyz", "", "----", "日本-calculator",
	}
	locales := []string{"en", "en-GB", "th", "zz", "", "not a locale"}
	for _, slug := range slugs {
		for _, locale := range locales {
			def := service.Resolve(context.Background(), slug, locale)
			require.NotNil(t, def, "slug=%q locale=%q", slug, locale)
			assert.Equal(t, locale, def.Locale, "slug=%q locale=%q", slug, locale)
		}
	}
}

// countingStrategy wraps a strategy and counts invocations.
type countingStrategy struct {
	inner resolver.Strategy
	calls int
}

func (s *countingStrategy) Name() string { return s.inner.Name() }

func (s *countingStrategy) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	s.calls++
	return s.inner.Try(ctx, slug, locale)
}

type declineStrategy struct{ calls int }

func (s *declineStrategy) Name() string { return "decline" }
func (s *declineStrategy) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	s.calls++
	return nil, nil
}

type panicStrategy struct{}

func (s *panicStrategy) Name() string { return "panic" }
func (s *panicStrategy) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	panic("tier exploded")
}

type errorStrategy struct{}

func (s *errorStrategy) Name() string { return "error" }
func (s *errorStrategy) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	return nil, fmt.Errorf("backing store unavailable")
}

func TestResolve_CacheSkipsTiersOnSecondCall(t *testing.T) {
	counted := &countingStrategy{inner: &registryTier{registry: newRegistry()}}
	service := resolver.NewService(newRegistry(), resolver.WithStrategies(counted))

	first := service.Resolve(context.Background(), "loan-calculator", "en")
	second := service.Resolve(context.Background(), "loan-calculator", "en")

	assert.Equal(t, 1, counted.calls)
	assert.Same(t, first, second)
}

// registryTier re-implements the registry tier over the public API so the
// counting wrapper has something concrete to wrap.
type registryTier struct {
	registry *registry.Registry
}

func (s *registryTier) Name() string { return "registry" }
func (s *registryTier) Try(ctx context.Context, slug, locale string) (*definition.Definition, error) {
	factory, ok := s.registry.Lookup(slug)
	if !ok {
		return nil, nil
	}
	return factory(locale), nil
}

func TestResolve_CacheIsPerLocale(t *testing.T) {
	service := resolver.NewService(newRegistry())
	en := service.Resolve(context.Background(), "loan-calculator", "en")
	de := service.Resolve(context.Background(), "loan-calculator", "de")
	assert.NotSame(t, en, de)
	assert.Equal(t, "en", en.Locale)
	assert.Equal(t, "de", de.Locale)
}

func TestResolve_RegistryTierWinsOverLegacy(t *testing.T) {
	reg := registry.New()
	reg.Register("simple-interest", definition.CategoryFinance, func(locale string) *definition.Definition {
		return eval.MustCompile(&definition.Definition{
			ID:     "simple-interest",
			Locale: locale,
			LocalizedContent: map[string]definition.Content{
				locale: {Title: "Registry Wins"},
			},
			Formulas: map[string]*definition.FormulaSpec{
				definition.PrimaryFormula: {Expression: `{ result = 1 }`},
			},
		})
	})

	def := resolver.NewService(reg).Resolve(context.Background(), "simple-interest", "en")
	assert.Equal(t, "Registry Wins", def.ContentFor("en").Title)
}

func TestResolve_LegacyTier(t *testing.T) {
	def := resolver.NewService(registry.New()).Resolve(context.Background(), "simple-interest", "en")
	assert.Equal(t, "Simple Interest Calculator", def.ContentFor("en").Title)
	assert.Equal(t, definition.CategoryFinance, def.Category)

	out := evaluateOutput(t, def, map[string]any{"principal": 1000, "rate": 5, "years": 3}, "interest")
	assert.InDelta(t, 150, out.Number, 0.001)
}

func TestResolve_GenericFinanceTemplate(t *testing.T) {
	def := resolver.NewService(registry.New()).Resolve(context.Background(), "car-loan-calculator", "en")
	assert.Equal(t, definition.CategoryFinance, def.Category)
	assert.Equal(t, "Car Loan Calculator", def.ContentFor("en").Title)

	out := evaluateOutput(t, def, map[string]any{"principal": 20000, "rate": 7.5, "years": 5}, "monthly")
	assert.InDelta(t, 400.76, out.Number, 0.001)
}

func TestResolve_GenericEducationTemplate(t *testing.T) {
	def := resolver.NewService(registry.New()).Resolve(context.Background(), "grade-calculator", "en")
	assert.Equal(t, definition.CategoryEducation, def.Category)

	out := evaluateOutput(t, def, map[string]any{"points_earned": 42, "points_possible": 50}, "percentage")
	assert.InDelta(t, 84, out.Number, 0.001)
}

func TestResolve_AutogenUnitConverter(t *testing.T) {
	service := resolver.NewService(registry.New())

	def := service.Resolve(context.Background(), "meters-to-feet", "en")
	assert.Equal(t, definition.CategoryConversion, def.Category)
	out := evaluateOutput(t, def, map[string]any{"value": 100}, "result")
	assert.InDelta(t, 328.084, out.Number, 0.001)

	temp := service.Resolve(context.Background(), "fahrenheit-to-celsius", "en")
	out = evaluateOutput(t, temp, map[string]any{"value": 212}, "result")
	assert.InDelta(t, 100, out.Number, 0.001)
}

func TestResolve_AutogenDeclinesMismatchedDimensions(t *testing.T) {
	// miles-to-kilograms is nonsense; the autogen tier declines and the
	// stub still guarantees a result.
	def := resolver.NewService(registry.New()).Resolve(context.Background(), "miles-to-kilograms", "en")
	require.NotNil(t, def)
	assert.Equal(t, "Miles To Kilograms", def.ContentFor("en").Title)

	out := evaluateOutput(t, def, map[string]any{"value1": 2, "value2": 3}, "result")
	assert.InDelta(t, 5, out.Number, 0.001)
}

func TestResolve_StubTier(t *testing.T) {
	def := resolver.NewService(registry.New()).Resolve(context.Background(), "frobnicator-widget", "en")
	assert.Equal(t, definition.CategoryMiscellaneous, def.Category)
	assert.Equal(t, "Frobnicator Widget", def.ContentFor("en").Title)

	out := evaluateOutput(t, def, map[string]any{"value1": 2, "value2": 40}, "result")
	assert.InDelta(t, 42, out.Number, 0.001)
}

func TestResolve_PanickingTierAdvancesChain(t *testing.T) {
	decline := &declineStrategy{}
	service := resolver.NewService(registry.New(),
		resolver.WithStrategies(&panicStrategy{}, &errorStrategy{}, decline))

	def := service.Resolve(context.Background(), "anything", "en")
	require.NotNil(t, def)
	assert.Equal(t, 1, decline.calls)
	assert.Equal(t, "Anything", def.ContentFor("en").Title)
}

func TestResolveAll_CoversTheCatalog(t *testing.T) {
	service := resolver.NewService(newRegistry())
	defs := service.ResolveAll(context.Background(), "en")
	require.Len(t, defs, 1)
	assert.Equal(t, "loan-calculator", defs[0].ID)
}

func TestResolve_ConcurrentFirstPopulation(t *testing.T) {
	service := resolver.NewService(newRegistry())
	const goroutines = 100

	var wg sync.WaitGroup
	results := make([]*definition.Definition, goroutines)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = service.Resolve(context.Background(), "loan-calculator", "en")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestInvalidateAll_ForcesReconstruction(t *testing.T) {
	service := resolver.NewService(newRegistry())
	first := service.Resolve(context.Background(), "loan-calculator", "en")
	service.InvalidateAll()
	second := service.Resolve(context.Background(), "loan-calculator", "en")
	assert.NotSame(t, first, second)
	assert.Equal(t, first.ID, second.ID)
}

func TestDetectCategory(t *testing.T) {
	cases := map[string]definition.Category{
		"loan-calculator":       definition.CategoryFinance,
		"income-tax-calculator": definition.CategoryFinance,
		"bmi-calculator":        definition.CategoryHealth,
		"meters-to-feet":        definition.CategoryConversion,
		"celsius-converter":     definition.CategoryConversion,
		"gpa-calculator":        definition.CategoryEducation,
		"mystery-box":           definition.CategoryMiscellaneous,
		"":                      definition.CategoryMiscellaneous,
	}
	for slug, want := range cases {
		assert.Equal(t, want, resolver.DetectCategory(slug), "slug=%q", slug)
	}
}
