package converter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/registry"
	"github.com/vk/calcgrid/modules/converter"
)

func buildConverter(t *testing.T, id string) *definition.Definition {
	t.Helper()
	reg := registry.New()
	(&converter.Module{}).Register(reg)
	factory, ok := reg.Lookup(id)
	require.True(t, ok)
	return factory("en")
}

func convert(t *testing.T, def *definition.Definition, value float64, from, to string) float64 {
	t.Helper()
	result := eval.New().Evaluate(context.Background(), def, definition.PrimaryFormula, map[string]any{
		"value": value,
		"from":  from,
		"to":    to,
	})
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 1)
	require.False(t, result.Outputs[0].Unavailable)
	return result.Outputs[0].Number
}

func TestLengthConverter(t *testing.T) {
	def := buildConverter(t, "length-converter")

	assert.InDelta(t, 328.084, convert(t, def, 100, "meters", "feet"), 0.001)
	assert.InDelta(t, 1.609344, convert(t, def, 1, "miles", "kilometers"), 1e-6)
	assert.InDelta(t, 2.54, convert(t, def, 1, "inches", "centimeters"), 1e-9)
	assert.Equal(t, 42.0, convert(t, def, 42, "meters", "meters"))
}

func TestTemperatureConverter(t *testing.T) {
	def := buildConverter(t, "temperature-converter")

	assert.InDelta(t, 100.0, convert(t, def, 212, "fahrenheit", "celsius"), 1e-9)
	assert.InDelta(t, 32.0, convert(t, def, 0, "celsius", "fahrenheit"), 1e-9)
	assert.InDelta(t, 273.15, convert(t, def, 0, "celsius", "kelvin"), 1e-9)
	assert.InDelta(t, -40.0, convert(t, def, -40, "celsius", "fahrenheit"), 1e-9)
}

func TestConverter_RejectsUnknownUnit(t *testing.T) {
	def := buildConverter(t, "length-converter")

	result := eval.New().Evaluate(context.Background(), def, definition.PrimaryFormula, map[string]any{
		"value": 1.0,
		"from":  "furlongs",
		"to":    "meters",
	})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "from", result.Errors[0].Field)
}
