package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/calcgrid/internal/finance"
)

// bracketType is the wire shape of one progressive tax bracket as exposed
// to formulas under cfg.tax_brackets.
var bracketType = cty.Object(map[string]cty.Type{
	"up_to": cty.Number,
	"rate":  cty.Number,
})

// newFunctions builds the closed function whitelist formulas may call.
// Nothing here reads the clock, the environment, or anything outside its
// arguments; every iteration bound is enforced inside the Go
// implementation, which is what makes the bounded-execution contract hold
// by construction.
func newFunctions(maxIterations int) map[string]function.Function {
	return map[string]function.Function{
		"abs":   stdlib.AbsoluteFunc,
		"ceil":  stdlib.CeilFunc,
		"floor": stdlib.FloorFunc,
		"int":   stdlib.IntFunc,
		"log":   stdlib.LogFunc,
		"max":   stdlib.MaxFunc,
		"min":   stdlib.MinFunc,
		"pow":   stdlib.PowFunc,

		"round":         roundFunc,
		"sqrt":          sqrtFunc,
		"exp":           expFunc,
		"clamp":         clampFunc,
		"range":         rangeFunc(maxIterations),
		"pmt":           pmtFunc,
		"amorttotal":    amortTotalFunc,
		"amortinterest": amortInterestFunc,
		"brackettax":    bracketTaxFunc,
		"compound":      compoundFunc,
	}
}

// FunctionNames returns the sorted names of the whitelist. Definitions are
// compiled against this list, so an unknown call is a registration-time
// error, never a request-time one.
func FunctionNames() []string {
	funcs := newFunctions(finance.MaxPeriods)
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func arg(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

func numberResult(f float64) (cty.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// Fail closed: non-finite intermediates must not reach formatting.
		return cty.NumberFloatVal(0), fmt.Errorf("non-finite result")
	}
	return cty.NumberFloatVal(f), nil
}

var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
		{Name: "places", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		places := math.Max(0, math.Min(12, arg(args[1])))
		scale := math.Pow(10, math.Trunc(places))
		return numberResult(math.Round(arg(args[0])*scale) / scale)
	},
})

var sqrtFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "num", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return numberResult(math.Sqrt(arg(args[0])))
	},
})

var expFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "num", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return numberResult(math.Exp(arg(args[0])))
	},
})

var clampFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
		{Name: "lo", Type: cty.Number},
		{Name: "hi", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return numberResult(math.Min(math.Max(arg(args[0]), arg(args[1])), arg(args[2])))
	},
})

// rangeFunc returns [0, n) as a list for bounded for-expressions. The
// length is clamped to maxIterations no matter what the formula asks for.
func rangeFunc(maxIterations int) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "count", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.List(cty.Number)),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			n := arg(args[0])
			if math.IsNaN(n) || n <= 0 {
				return cty.ListValEmpty(cty.Number), nil
			}
			count := int(n)
			if n >= float64(maxIterations) {
				count = maxIterations
			}
			// A fractional count below one truncates to zero elements.
			if count == 0 {
				return cty.ListValEmpty(cty.Number), nil
			}
			values := make([]cty.Value, count)
			for i := 0; i < count; i++ {
				values[i] = cty.NumberIntVal(int64(i))
			}
			return cty.ListVal(values), nil
		},
	})
}

var pmtFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "principal", Type: cty.Number},
		{Name: "annual_rate_pct", Type: cty.Number},
		{Name: "years", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return numberResult(finance.MonthlyPayment(arg(args[0]), arg(args[1]), arg(args[2])))
	},
})

var amortTotalFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "principal", Type: cty.Number},
		{Name: "annual_rate_pct", Type: cty.Number},
		{Name: "years", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		_, total, _ := finance.AmortizationTotals(arg(args[0]), arg(args[1]), arg(args[2]))
		return numberResult(total)
	},
})

var amortInterestFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "principal", Type: cty.Number},
		{Name: "annual_rate_pct", Type: cty.Number},
		{Name: "years", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		_, total, _ := finance.AmortizationTotals(arg(args[0]), arg(args[1]), arg(args[2]))
		principal := arg(args[0])
		if total == 0 {
			return cty.NumberFloatVal(0), nil
		}
		return numberResult(total - principal)
	},
})

var bracketTaxFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "income", Type: cty.Number},
		{Name: "brackets", Type: cty.List(bracketType)},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		var brackets []finance.Bracket
		for it := args[1].ElementIterator(); it.Next(); {
			_, v := it.Element()
			brackets = append(brackets, finance.Bracket{
				UpTo: arg(v.GetAttr("up_to")),
				Rate: arg(v.GetAttr("rate")),
			})
		}
		return numberResult(finance.ProgressiveTax(arg(args[0]), brackets))
	},
})

var compoundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "principal", Type: cty.Number},
		{Name: "annual_rate_pct", Type: cty.Number},
		{Name: "years", Type: cty.Number},
		{Name: "periods_per_year", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return numberResult(finance.Compound(arg(args[0]), arg(args[1]), arg(args[2]), arg(args[3])))
	},
})
