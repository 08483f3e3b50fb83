// Package validate checks submitted raw values against a definition's
// declared constraints and visibility rules and produces the typed variable
// environment formulas evaluate against.
//
// Validation is structured-data-in, structured-data-out: failures are
// returned as a list of field errors, never as Go errors or panics, so the
// UI can render inline messages next to every offending field at once.
package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/definition"
)

// Code classifies a field error for programmatic handling.
type Code string

const (
	CodeMissingRequired Code = "missing_required_field"
	CodeInvalidType     Code = "invalid_field_type"
	CodeOutOfRange      Code = "out_of_range"
	CodeInvalidOption   Code = "invalid_option"
)

// FieldError is one user-facing validation failure.
type FieldError struct {
	Field  string
	Code   Code
	Reason string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// dateLayout is the wire format accepted for date inputs.
const dateLayout = "2006-01-02"

// Inputs validates raw submitted values against the definition and returns
// the typed environment together with any field errors. Every visible input
// ends up either in the environment or in the error list; invisible inputs
// carry their default or are omitted. Unknown submitted keys are ignored
// for forward compatibility.
func Inputs(ctx context.Context, def *definition.Definition, raw map[string]any) (map[string]cty.Value, []FieldError) {
	env := make(map[string]cty.Value, len(def.Inputs))
	// visVars mirrors env for predicate evaluation, with every processed
	// input present: absent inputs appear as null so a predicate over an
	// unsubmitted value reads as unmet instead of failing to evaluate.
	visVars := make(map[string]cty.Value, len(def.Inputs))
	var errs []FieldError

	for i := range def.Inputs {
		spec := &def.Inputs[i]

		if !visible(ctx, spec, visVars) {
			if spec.Default != nil {
				env[spec.Key] = *spec.Default
			}
			visVars[spec.Key] = cty.NullVal(cty.DynamicPseudoType)
			continue
		}

		value, present := raw[spec.Key]
		if str, ok := value.(string); ok && str == "" {
			present = false
		}
		if !present || value == nil {
			if spec.Required {
				errs = append(errs, FieldError{
					Field:  spec.Key,
					Code:   CodeMissingRequired,
					Reason: "this field is required",
				})
			} else if spec.Default != nil {
				env[spec.Key] = *spec.Default
			}
			visVars[spec.Key] = nullOr(env, spec.Key)
			continue
		}

		typed, fieldErr := coerce(spec, value)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)
			visVars[spec.Key] = cty.NullVal(cty.DynamicPseudoType)
			continue
		}
		env[spec.Key] = typed
		visVars[spec.Key] = typed
	}

	return env, errs
}

// nullOr returns the environment value for key, or a null placeholder.
func nullOr(env map[string]cty.Value, key string) cty.Value {
	if v, ok := env[key]; ok {
		return v
	}
	return cty.NullVal(cty.DynamicPseudoType)
}

// visible evaluates the input's visibility predicate against the variables
// of earlier-declared inputs. A predicate yielding null is unmet; one that
// fails to evaluate outright is treated as visible, because skipping
// validation on an error would silently drop required-ness checks.
func visible(ctx context.Context, spec *definition.InputSpec, vars map[string]cty.Value) bool {
	expr := spec.VisibilityExpr()
	if expr == nil {
		return true
	}

	val, diags := expr.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		ctxlog.FromContext(ctx).Debug("Visibility predicate failed to evaluate; treating field as visible.",
			"field", spec.Key, "error", diags.Error())
		return true
	}
	asBool, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return true
	}
	if asBool.IsNull() {
		return false
	}
	return asBool.True()
}

// coerce converts one submitted value to the input's declared type and
// applies the declared constraints.
func coerce(spec *definition.InputSpec, value any) (cty.Value, *FieldError) {
	ctyVal, err := toCty(value)
	if err != nil {
		return cty.NilVal, &FieldError{Field: spec.Key, Code: CodeInvalidType, Reason: err.Error()}
	}

	switch spec.Type {
	case definition.TypeNumber:
		num, err := convert.Convert(ctyVal, cty.Number)
		if err != nil || num.IsNull() {
			return cty.NilVal, &FieldError{Field: spec.Key, Code: CodeInvalidType, Reason: "expected a number"}
		}
		f, _ := num.AsBigFloat().Float64()
		if spec.Min != nil && f < *spec.Min {
			return cty.NilVal, &FieldError{
				Field: spec.Key, Code: CodeOutOfRange,
				Reason: fmt.Sprintf("must be at least %v", *spec.Min),
			}
		}
		if spec.Max != nil && f > *spec.Max {
			return cty.NilVal, &FieldError{
				Field: spec.Key, Code: CodeOutOfRange,
				Reason: fmt.Sprintf("must be at most %v", *spec.Max),
			}
		}
		return num, nil

	case definition.TypeBoolean:
		b, err := convert.Convert(ctyVal, cty.Bool)
		if err != nil || b.IsNull() {
			return cty.NilVal, &FieldError{Field: spec.Key, Code: CodeInvalidType, Reason: "expected a boolean"}
		}
		return b, nil

	case definition.TypeDate:
		str, err := convert.Convert(ctyVal, cty.String)
		if err != nil || str.IsNull() {
			return cty.NilVal, &FieldError{Field: spec.Key, Code: CodeInvalidType, Reason: "expected a date"}
		}
		if _, parseErr := time.Parse(dateLayout, str.AsString()); parseErr != nil {
			return cty.NilVal, &FieldError{
				Field: spec.Key, Code: CodeInvalidType,
				Reason: fmt.Sprintf("expected a date in %s format", dateLayout),
			}
		}
		return str, nil

	case definition.TypeSelect:
		str, err := convert.Convert(ctyVal, cty.String)
		if err != nil || str.IsNull() {
			return cty.NilVal, &FieldError{Field: spec.Key, Code: CodeInvalidType, Reason: "expected a selection"}
		}
		for _, option := range spec.Options {
			if str.AsString() == option {
				return str, nil
			}
		}
		return cty.NilVal, &FieldError{
			Field: spec.Key, Code: CodeInvalidOption,
			Reason: fmt.Sprintf("%q is not one of the allowed options", str.AsString()),
		}

	default: // definition.TypeText
		str, err := convert.Convert(ctyVal, cty.String)
		if err != nil || str.IsNull() {
			return cty.NilVal, &FieldError{Field: spec.Key, Code: CodeInvalidType, Reason: "expected text"}
		}
		return str, nil
	}
}

// toCty lifts a raw submitted Go value into the cty type system.
func toCty(value any) (cty.Value, error) {
	switch v := value.(type) {
	case cty.Value:
		return v, nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", value)
	}
}
