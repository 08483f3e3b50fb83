package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/definition"
)

func stubFactory(id string) Factory {
	return func(locale string) *definition.Definition {
		return &definition.Definition{ID: id, Locale: locale}
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register("loan-calculator", definition.CategoryFinance, stubFactory("loan-calculator"))

	factory, ok := r.Lookup("loan-calculator")
	require.True(t, ok)
	def := factory("en")
	assert.Equal(t, "loan-calculator", def.ID)
	assert.Equal(t, "en", def.Locale)
}

func TestLookup_MissingIdIsTotal(t *testing.T) {
	r := New()
	factory, ok := r.Lookup("never-registered")
	assert.False(t, ok)
	assert.Nil(t, factory)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New()
	r.Register("bmi-calculator", definition.CategoryHealth, stubFactory("bmi-calculator"))
	assert.Panics(t, func() {
		r.Register("bmi-calculator", definition.CategoryHealth, stubFactory("bmi-calculator"))
	})
}

func TestRegister_NilFactoryPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() {
		r.Register("broken", definition.CategoryFinance, nil)
	})
}

func TestCountByCategory_NeverInvokesFactories(t *testing.T) {
	r := New()
	invocations := 0
	counting := func(id string) Factory {
		return func(locale string) *definition.Definition {
			invocations++
			return &definition.Definition{ID: id, Locale: locale}
		}
	}
	r.Register("loan-calculator", definition.CategoryFinance, counting("loan-calculator"))
	r.Register("mortgage-calculator", definition.CategoryFinance, counting("mortgage-calculator"))
	r.Register("bmi-calculator", definition.CategoryHealth, counting("bmi-calculator"))

	counts := r.CountByCategory()
	assert.Equal(t, 2, counts[definition.CategoryFinance])
	assert.Equal(t, 1, counts[definition.CategoryHealth])
	assert.Equal(t, []string{"bmi-calculator", "loan-calculator", "mortgage-calculator"}, r.List())
	assert.Equal(t, []string{"loan-calculator", "mortgage-calculator"}, r.IDsByCategory(definition.CategoryFinance))
	assert.Equal(t, 3, r.Len())

	// Enumeration reads static annotations only.
	assert.Zero(t, invocations)
}
