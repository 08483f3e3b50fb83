package health_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/registry"
	"github.com/vk/calcgrid/modules/health"
)

func buildBMI(t *testing.T, locale string) *definition.Definition {
	t.Helper()
	reg := registry.New()
	(&health.Module{}).Register(reg)
	factory, ok := reg.Lookup("bmi-calculator")
	require.True(t, ok)
	return factory(locale)
}

func outputByKey(t *testing.T, result *eval.Result, key string) eval.OutputValue {
	t.Helper()
	require.Empty(t, result.Errors)
	for _, out := range result.Outputs {
		if out.Key == key {
			return out
		}
	}
	t.Fatalf("no output %q", key)
	return eval.OutputValue{}
}

func TestBMICalculator_Index(t *testing.T) {
	def := buildBMI(t, "en")

	result := eval.New().Evaluate(context.Background(), def, definition.PrimaryFormula, map[string]any{
		"weight_kg": 70.0,
		"height_cm": 175.0,
	})

	assert.InDelta(t, 22.9, outputByKey(t, result, "bmi").Number, 0.05)
	assert.Equal(t, "normal", outputByKey(t, result, "classification").Text)
}

func TestBMICalculator_ThresholdsDifferPerLocale(t *testing.T) {
	// BMI 23.5 is normal under the standard 25 threshold but overweight
	// under the Thai table's 23 threshold.
	inputs := map[string]any{"weight_kg": 72.0, "height_cm": 175.0}

	en := eval.New().Evaluate(context.Background(), buildBMI(t, "en"), definition.PrimaryFormula, inputs)
	th := eval.New().Evaluate(context.Background(), buildBMI(t, "th"), definition.PrimaryFormula, inputs)

	assert.Equal(t, "normal", outputByKey(t, en, "classification").Text)
	assert.Equal(t, "overweight", outputByKey(t, th, "classification").Text)
	assert.Equal(t, outputByKey(t, en, "bmi").Number, outputByKey(t, th, "bmi").Number)
}

func TestBMICalculator_RangeValidation(t *testing.T) {
	def := buildBMI(t, "en")

	result := eval.New().Evaluate(context.Background(), def, definition.PrimaryFormula, map[string]any{
		"weight_kg": 70.0,
		"height_cm": 0.0,
	})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "height_cm", result.Errors[0].Field)
	assert.Nil(t, result.Outputs)
}
