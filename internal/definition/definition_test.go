package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFunctions = []string{"pmt", "round", "min", "max"}

func loanDefinition() *Definition {
	return &Definition{
		ID:       "loan-calculator",
		Category: CategoryFinance,
		Locale:   "en",
		Inputs: []InputSpec{
			{Key: "principal", Type: TypeNumber, Required: true},
			{Key: "rate", Type: TypeNumber, Required: true},
			{Key: "years", Type: TypeNumber, Required: true},
		},
		Outputs: []OutputSpec{
			{Key: "monthly", Format: FormatCurrency, Precision: 2},
		},
		Formulas: map[string]*FormulaSpec{
			PrimaryFormula: {
				Expression:        `{ monthly = pmt(principal, rate, years) }`,
				DeclaredVariables: []string{"principal", "rate", "years"},
			},
		},
	}
}

func TestCompile_ValidDefinition(t *testing.T) {
	def := loanDefinition()
	require.NoError(t, def.Compile(testFunctions))
	assert.True(t, def.Compiled())
	require.NotNil(t, def.Formulas[PrimaryFormula].Expr())
}

func TestCompile_RejectsUndeclaredVariable(t *testing.T) {
	def := loanDefinition()
	def.Formulas[PrimaryFormula].DeclaredVariables = []string{"principal", "rate"}

	err := def.Compile(testFunctions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared variable 'years'")
	assert.False(t, def.Compiled())
}

func TestCompile_ConstantTableNeedsNoDeclaration(t *testing.T) {
	def := loanDefinition()
	def.Formulas[PrimaryFormula].Expression = `{ monthly = pmt(principal, rate, years) * (cfg.defaults.interest_rate > 0 ? 1 : 1) }`
	require.NoError(t, def.Compile(testFunctions))
}

func TestCompile_RejectsUnknownFunction(t *testing.T) {
	def := loanDefinition()
	def.Formulas[PrimaryFormula].Expression = `{ monthly = launch_missiles(principal) }`

	err := def.Compile(testFunctions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function 'launch_missiles'")
}

func TestCompile_RejectsMalformedExpression(t *testing.T) {
	def := loanDefinition()
	def.Formulas[PrimaryFormula].Expression = `{ monthly = pmt(principal,`

	err := def.Compile(testFunctions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
}

func TestCompile_VisibilityMayOnlyReferenceEarlierInputs(t *testing.T) {
	def := loanDefinition()
	def.Inputs[0].Visibility = `rate > 0` // rate is declared after principal

	err := def.Compile(testFunctions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an earlier-declared input")
}

func TestCompile_VisibilityOverEarlierInputCompiles(t *testing.T) {
	def := loanDefinition()
	def.Inputs[2].Visibility = `principal > 0`
	require.NoError(t, def.Compile(testFunctions))
	require.NotNil(t, def.Inputs[2].VisibilityExpr())
	assert.Nil(t, def.Inputs[0].VisibilityExpr())
}

func TestCompile_VisibilityMayNotCallFunctions(t *testing.T) {
	def := loanDefinition()
	def.Inputs[1].Visibility = `round(principal) > 0`

	err := def.Compile(testFunctions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "may not call functions")
}

func TestCompile_CollectsEveryError(t *testing.T) {
	def := loanDefinition()
	def.Inputs[1].Visibility = `years > 0`
	def.Formulas[PrimaryFormula].Expression = `{ monthly = wat(bogus) }`

	err := def.Compile(testFunctions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an earlier-declared input")
	assert.Contains(t, err.Error(), "unknown function 'wat'")
	assert.Contains(t, err.Error(), "undeclared variable 'bogus'")
}

func TestContentFor_FallsBackToEnglish(t *testing.T) {
	def := loanDefinition()
	def.LocalizedContent = map[string]Content{
		"en": {Title: "Loan Calculator"},
		"de": {Title: "Kreditrechner"},
	}
	assert.Equal(t, "Kreditrechner", def.ContentFor("de").Title)
	assert.Equal(t, "Loan Calculator", def.ContentFor("fr").Title)
}

func TestContentFor_EmptyContentIsTotal(t *testing.T) {
	def := loanDefinition()
	assert.Equal(t, Content{}, def.ContentFor("en"))
}

func TestInputAndOutputLookup(t *testing.T) {
	def := loanDefinition()
	spec, ok := def.Input("rate")
	require.True(t, ok)
	assert.Equal(t, TypeNumber, spec.Type)

	_, ok = def.Input("nope")
	assert.False(t, ok)

	out, ok := def.Output("monthly")
	require.True(t, ok)
	assert.Equal(t, FormatCurrency, out.Format)
}
