package definition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// ConstantsVariable is the reserved environment name under which the
// per-locale constant table is exposed to formulas (cfg.currency,
// cfg.tax_brackets, ...). It may be referenced without being declared.
const ConstantsVariable = "cfg"

// Compile parses every formula expression and visibility predicate exactly
// once and performs the static checks that make evaluation safe:
//
//   - formula expressions may call only whitelisted functions;
//   - formula expressions may reference only declared variables and cfg;
//   - visibility predicates may reference only earlier-declared inputs and
//     may not call functions at all.
//
// Compile accumulates everything wrong with the definition into a single
// error so content authors fix one round of feedback, not one error per
// round.
func (d *Definition) Compile(functions []string) error {
	if d.compiled {
		return nil
	}

	allowedFns := make(map[string]struct{}, len(functions))
	for _, name := range functions {
		allowedFns[name] = struct{}{}
	}

	var errs []string

	earlier := make(map[string]struct{}, len(d.Inputs))
	for i := range d.Inputs {
		spec := &d.Inputs[i]
		if spec.Visibility != "" {
			expr, diags := hclsyntax.ParseExpression([]byte(spec.Visibility), d.ID+":"+spec.Key, hcl.InitialPos)
			if diags.HasErrors() {
				errs = append(errs, fmt.Sprintf("input '%s': invalid visibility expression: %s", spec.Key, diags.Error()))
			} else {
				for root := range expressionRoots(expr) {
					if _, ok := earlier[root]; !ok {
						errs = append(errs, fmt.Sprintf("input '%s': visibility references '%s', which is not an earlier-declared input", spec.Key, root))
					}
				}
				if calls := expressionCalls(expr); len(calls) > 0 {
					errs = append(errs, fmt.Sprintf("input '%s': visibility predicates may not call functions (found %s)", spec.Key, strings.Join(calls, ", ")))
				}
				spec.visibilityExpr = expr
			}
		}
		earlier[spec.Key] = struct{}{}
	}

	for key, formula := range d.Formulas {
		expr, diags := hclsyntax.ParseExpression([]byte(formula.Expression), d.ID+":"+key, hcl.InitialPos)
		if diags.HasErrors() {
			errs = append(errs, fmt.Sprintf("formula '%s': parse error: %s", key, diags.Error()))
			continue
		}

		declared := make(map[string]struct{}, len(formula.DeclaredVariables))
		for _, name := range formula.DeclaredVariables {
			declared[name] = struct{}{}
		}
		for root := range expressionRoots(expr) {
			if root == ConstantsVariable {
				continue
			}
			if _, ok := declared[root]; !ok {
				errs = append(errs, fmt.Sprintf("formula '%s': references undeclared variable '%s'", key, root))
			}
		}
		for _, name := range expressionCalls(expr) {
			if _, ok := allowedFns[name]; !ok {
				errs = append(errs, fmt.Sprintf("formula '%s': calls unknown function '%s'", key, name))
			}
		}
		formula.expr = expr
	}

	if len(errs) > 0 {
		return fmt.Errorf("definition '%s' failed to compile:\n- %s", d.ID, strings.Join(errs, "\n- "))
	}
	d.compiled = true
	return nil
}

// expressionRoots returns the set of root variable names referenced by an
// expression, via the expression's own traversal analysis.
func expressionRoots(expr hcl.Expression) map[string]struct{} {
	roots := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		roots[traversal.RootName()] = struct{}{}
	}
	return roots
}

// expressionCalls walks the syntax tree and returns the sorted, unique
// names of every function called. Variables() does not surface calls, so
// the walk covers each composite syntax node explicitly.
func expressionCalls(expr hcl.Expression) []string {
	found := make(map[string]struct{})
	if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
		walkForCalls(syntaxExpr, found)
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func walkForCalls(expr hclsyntax.Expression, found map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		found[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForCalls(arg, found)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForCalls(e.LHS, found)
		walkForCalls(e.RHS, found)
	case *hclsyntax.UnaryOpExpr:
		walkForCalls(e.Val, found)
	case *hclsyntax.ConditionalExpr:
		walkForCalls(e.Condition, found)
		walkForCalls(e.TrueResult, found)
		walkForCalls(e.FalseResult, found)
	case *hclsyntax.ParenthesesExpr:
		walkForCalls(e.Expression, found)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForCalls(part, found)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForCalls(e.Wrapped, found)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForCalls(item, found)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForCalls(item.KeyExpr, found)
			walkForCalls(item.ValueExpr, found)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		walkForCalls(e.Wrapped, found)
	case *hclsyntax.ForExpr:
		walkForCalls(e.CollExpr, found)
		walkForCalls(e.KeyExpr, found)
		walkForCalls(e.ValExpr, found)
		walkForCalls(e.CondExpr, found)
	case *hclsyntax.IndexExpr:
		walkForCalls(e.Collection, found)
		walkForCalls(e.Key, found)
	case *hclsyntax.SplatExpr:
		walkForCalls(e.Source, found)
		walkForCalls(e.Each, found)
	}
}
