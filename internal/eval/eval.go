// Package eval executes a definition's formulas against a validated
// variable environment and shapes the results into typed output values.
//
// The contract is availability over crashing: an arithmetic fault in one
// calculator must not take down the hosting page. Evaluation failures are
// therefore converted to degraded results whose outputs are flagged
// unavailable, and logged loudly, because a silently wrong number is worse
// than a visibly missing one. Within that envelope evaluation is
// deterministic and pure: the formula sees exactly its declared variables
// plus the cfg constant table, runs no unbounded loops, and touches no
// process state.
package eval

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/finance"
	"github.com/vk/calcgrid/internal/locale"
	"github.com/vk/calcgrid/internal/validate"
)

// Error describes one formula evaluation failure. It never escapes
// Evaluate; it exists for logging and for the low-level Run API.
type Error struct {
	FormulaKey string
	Reason     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("formula '%s': %s", e.FormulaKey, e.Reason)
}

// OutputValue is one shaped output. Numeric formats carry Number rounded to
// the spec's precision; text outputs carry Text. Unavailable marks a value
// the formula did not (or could not) produce; the UI must render these
// distinctly, not silently as zero.
type OutputValue struct {
	Key         string
	Format      definition.OutputFormat
	Number      float64
	Text        string
	Unit        string
	Unavailable bool
}

// Result is the outcome of one Evaluate call. Exactly one of two shapes
// occurs: validation failures populate Errors and leave Outputs nil, or
// Outputs holds one entry per declared output spec, in declaration order.
type Result struct {
	Outputs []OutputValue
	Errors  []validate.FieldError

	// Inputs echoes the validated environment so forms can re-render
	// canonical values.
	Inputs map[string]cty.Value

	// Degraded is set when any output was flagged unavailable because of
	// an evaluation fault, as opposed to being merely undeclared.
	Degraded bool
}

// Evaluator executes formulas. It is immutable and safe for concurrent use.
type Evaluator struct {
	maxIterations int
	funcs         map[string]function.Function
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxIterations overrides the iteration clamp applied to bounded
// accumulation constructs. Values below 1 keep the default.
func WithMaxIterations(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// New creates an Evaluator with the default function whitelist.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{maxIterations: finance.MaxPeriods}
	for _, opt := range opts {
		opt(e)
	}
	e.funcs = newFunctions(e.maxIterations)
	return e
}

// MustCompile compiles a definition against the evaluator's function
// whitelist, panicking on failure. Content factories call this at
// registration time so a broken formula stops the process at startup.
func MustCompile(def *definition.Definition) *definition.Definition {
	if err := def.Compile(FunctionNames()); err != nil {
		panic(err)
	}
	return def
}

// Evaluate validates raw inputs against the definition and runs the named
// formula. It never returns nil and never panics: validation failures come
// back as structured field errors, evaluation failures as a degraded
// result.
func (e *Evaluator) Evaluate(ctx context.Context, def *definition.Definition, formulaKey string, raw map[string]any) *Result {
	logger := ctxlog.FromContext(ctx)

	env, fieldErrs := validate.Inputs(ctx, def, raw)
	if len(fieldErrs) > 0 {
		return &Result{Errors: fieldErrs, Inputs: env}
	}

	cfg := locale.ConfigFor(ctx, def.Locale)
	outputs, err := e.Run(ctx, def, formulaKey, env, cfg)
	if err != nil {
		logger.Error("Formula evaluation failed; returning degraded result.",
			"calculator", def.ID, "formula", formulaKey, "error", err)
		return &Result{Outputs: unavailableOutputs(def), Inputs: env, Degraded: true}
	}

	result := &Result{Inputs: env}
	for _, spec := range def.Outputs {
		val, ok := outputs[spec.Key]
		if !ok {
			// Declared but not produced: unavailable, not an error.
			result.Outputs = append(result.Outputs, OutputValue{
				Key: spec.Key, Format: spec.Format, Unit: spec.Unit, Unavailable: true,
			})
			continue
		}
		shaped, degraded := shapeOutput(spec, val)
		if degraded {
			logger.Error("Formula produced a non-finite output; coercing to unavailable.",
				"calculator", def.ID, "formula", formulaKey, "output", spec.Key)
			result.Degraded = true
		}
		result.Outputs = append(result.Outputs, shaped)
	}
	return result
}

// Run executes the named formula against an already-validated environment
// and returns the raw output values keyed by name. The variable scope is
// exactly the formula's declared variables plus the cfg constant table;
// a declared variable missing from the environment fails the evaluation
// rather than substituting an undefined value.
func (e *Evaluator) Run(ctx context.Context, def *definition.Definition, formulaKey string, env map[string]cty.Value, cfg locale.Config) (map[string]cty.Value, error) {
	formula, ok := def.Formulas[formulaKey]
	if !ok {
		return nil, &Error{FormulaKey: formulaKey, Reason: "no such formula"}
	}
	if !def.Compiled() || formula.Expr() == nil {
		return nil, &Error{FormulaKey: formulaKey, Reason: "definition was never compiled"}
	}

	vars := make(map[string]cty.Value, len(formula.DeclaredVariables)+1)
	for _, name := range formula.DeclaredVariables {
		if val, ok := env[name]; ok {
			vars[name] = val
		}
		// Missing declared variables are deliberately left out: the
		// expression then fails with an unknown-variable diagnostic
		// instead of computing against a stand-in.
	}
	vars[definition.ConstantsVariable] = constantsValue(cfg)

	val, diags := formula.Expr().Value(&hcl.EvalContext{
		Variables: vars,
		Functions: e.funcs,
	})
	if diags.HasErrors() {
		return nil, &Error{FormulaKey: formulaKey, Reason: diags.Error()}
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, &Error{FormulaKey: formulaKey, Reason: "formula must produce an object of named outputs"}
	}
	return val.AsValueMap(), nil
}

// unavailableOutputs returns one unavailable entry per declared output.
func unavailableOutputs(def *definition.Definition) []OutputValue {
	outputs := make([]OutputValue, 0, len(def.Outputs))
	for _, spec := range def.Outputs {
		outputs = append(outputs, OutputValue{
			Key: spec.Key, Format: spec.Format, Unit: spec.Unit, Unavailable: true,
		})
	}
	return outputs
}

// shapeOutput converts one raw formula value per its output spec. The
// second return reports that a non-finite number was coerced away.
func shapeOutput(spec definition.OutputSpec, val cty.Value) (OutputValue, bool) {
	out := OutputValue{Key: spec.Key, Format: spec.Format, Unit: spec.Unit}

	if spec.Format == definition.FormatText {
		str, err := convert.Convert(val, cty.String)
		if err != nil || str.IsNull() {
			out.Unavailable = true
			return out, false
		}
		out.Text = str.AsString()
		return out, false
	}

	num, err := convert.Convert(val, cty.Number)
	if err != nil || num.IsNull() {
		out.Unavailable = true
		return out, false
	}
	f, _ := num.AsBigFloat().Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		out.Number = 0
		out.Unavailable = true
		return out, true
	}
	out.Number = roundTo(f, precisionFor(spec))
	return out, false
}

// precisionFor applies the format defaults when the spec leaves precision
// unset. Currency and percentages round to cents-style two places.
func precisionFor(spec definition.OutputSpec) int {
	if spec.Precision > 0 {
		return spec.Precision
	}
	switch spec.Format {
	case definition.FormatCurrency, definition.FormatPercentage:
		return 2
	default:
		return 2
	}
}

func roundTo(f float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(f*scale) / scale
}

// constantsValue lifts a locale config into the cty object exposed to
// formulas as cfg.
func constantsValue(cfg locale.Config) cty.Value {
	brackets := make([]cty.Value, 0, len(cfg.TaxBrackets))
	for _, b := range cfg.TaxBrackets {
		brackets = append(brackets, cty.ObjectVal(map[string]cty.Value{
			"up_to": cty.NumberFloatVal(b.UpTo),
			"rate":  cty.NumberFloatVal(b.Rate),
		}))
	}
	bracketsVal := cty.ListValEmpty(bracketType)
	if len(brackets) > 0 {
		bracketsVal = cty.ListVal(brackets)
	}

	defaults := make(map[string]cty.Value, len(cfg.Defaults))
	for key, value := range cfg.Defaults {
		defaults[key] = cty.NumberFloatVal(value)
	}
	defaultsVal := cty.EmptyObjectVal
	if len(defaults) > 0 {
		defaultsVal = cty.ObjectVal(defaults)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"locale":          cty.StringVal(cfg.Locale),
		"currency":        cty.StringVal(cfg.Currency),
		"tax_brackets":    bracketsVal,
		"bmi_underweight": cty.NumberFloatVal(cfg.BMIUnderweight),
		"bmi_normal":      cty.NumberFloatVal(cfg.BMINormal),
		"bmi_overweight":  cty.NumberFloatVal(cfg.BMIOverweight),
		"imperial":        cty.BoolVal(cfg.Imperial),
		"defaults":        defaultsVal,
	})
}
