// Package definition holds the declarative model shared by every
// calculator: typed input specs with constraints and visibility predicates,
// named output specs with display formats, and formulas expressed in a
// restricted expression grammar.
//
// Formulas and visibility predicates are plain HCL expressions. They are
// parsed and checked once, when a definition is compiled, and never via a
// generic "run this code string" primitive: the grammar admits arithmetic,
// comparisons, conditionals and calls into a closed function whitelist, and
// nothing else. A definition that fails to compile is a content-authoring
// error surfaced at registration time, not at request time.
package definition

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Category tags a calculator for catalog grouping. Informational only; no
// evaluation behavior depends on it.
type Category string

const (
	CategoryFinance       Category = "finance"
	CategoryHealth        Category = "health"
	CategoryConversion    Category = "conversion"
	CategoryEducation     Category = "education"
	CategoryMiscellaneous Category = "miscellaneous"
)

// InputType is the declared value type of an input field.
type InputType string

const (
	TypeNumber  InputType = "number"
	TypeText    InputType = "text"
	TypeBoolean InputType = "boolean"
	TypeDate    InputType = "date"
	TypeSelect  InputType = "select"
)

// OutputFormat tells the presentation layer how to render an output value.
// The evaluator itself returns numbers and text, never formatted strings.
type OutputFormat string

const (
	FormatNumber     OutputFormat = "number"
	FormatCurrency   OutputFormat = "currency"
	FormatPercentage OutputFormat = "percentage"
	FormatText       OutputFormat = "text"
)

// InputSpec declares one input field: its type, constraints, optional
// default, and an optional visibility predicate over earlier-declared
// inputs.
type InputSpec struct {
	Key      string
	Type     InputType
	Required bool

	// Min and Max bound numeric inputs when non-nil.
	Min *float64
	Max *float64

	// Step is a UI hint for numeric inputs; unused by evaluation.
	Step float64

	// Options enumerates the allowed values of a select input.
	Options []string

	// Default is applied when an optional or invisible input is omitted.
	Default *cty.Value

	// Visibility is an expression over earlier-declared inputs. When it
	// evaluates to false the field is excluded from required-ness checks
	// and from the variable environment. Empty means always visible.
	Visibility string

	visibilityExpr hcl.Expression
}

// VisibilityExpr returns the compiled visibility predicate, or nil when the
// input is unconditionally visible. Valid only after Compile.
func (s *InputSpec) VisibilityExpr() hcl.Expression {
	return s.visibilityExpr
}

// OutputSpec declares one named output field.
type OutputSpec struct {
	Key       string
	Format    OutputFormat
	Precision int
	Unit      string
}

// FormulaSpec is one named computation. Expression is an HCL object
// expression whose attributes become output values, e.g.
//
//	{ monthly = pmt(principal, rate, years), total = amorttotal(...) }
//
// DeclaredVariables lists every input the formula reads. References outside
// this set (other than the cfg constant table) are rejected at compile time,
// and a declared variable missing from the environment at evaluation time
// fails closed rather than evaluating against an undefined value.
type FormulaSpec struct {
	Expression        string
	DeclaredVariables []string
	Description       string

	expr hcl.Expression
}

// Expr returns the compiled formula expression. Valid only after Compile.
func (f *FormulaSpec) Expr() hcl.Expression {
	return f.expr
}

// Content is the localized presentation copy for one locale. Consumed by
// page rendering and SEO only; evaluation never reads it.
type Content struct {
	Title       string
	Description string
	Keywords    []string
	FAQ         []FAQEntry
	Article     string
}

// FAQEntry is a question/answer pair rendered as structured data.
type FAQEntry struct {
	Question string
	Answer   string
}

// Definition is the full declarative description of one calculator as
// produced by a factory for one locale. A definition is immutable once
// compiled: the same (id, locale) pair always yields a structurally
// identical definition.
type Definition struct {
	ID       string
	Category Category
	Locale   string

	Inputs   []InputSpec
	Outputs  []OutputSpec
	Formulas map[string]*FormulaSpec

	// LocalizedContent maps locale to presentation copy. Factories
	// typically populate the requested locale plus the default.
	LocalizedContent map[string]Content

	compiled bool
}

// PrimaryFormula is the conventional key of a definition's main computation.
const PrimaryFormula = "primary"

// Compiled reports whether Compile has run successfully.
func (d *Definition) Compiled() bool {
	return d.compiled
}

// Input returns the spec for the given key, if declared.
func (d *Definition) Input(key string) (*InputSpec, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].Key == key {
			return &d.Inputs[i], true
		}
	}
	return nil, false
}

// Output returns the spec for the given key, if declared.
func (d *Definition) Output(key string) (*OutputSpec, bool) {
	for i := range d.Outputs {
		if d.Outputs[i].Key == key {
			return &d.Outputs[i], true
		}
	}
	return nil, false
}

// ContentFor returns the localized content for the requested locale,
// falling back to the first populated entry when absent. Total: a zero
// Content is returned for a definition with no content at all.
func (d *Definition) ContentFor(locale string) Content {
	if c, ok := d.LocalizedContent[locale]; ok {
		return c
	}
	if c, ok := d.LocalizedContent["en"]; ok {
		return c
	}
	for _, c := range d.LocalizedContent {
		return c
	}
	return Content{}
}
