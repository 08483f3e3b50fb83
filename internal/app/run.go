package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/definition"
)

// Invocation describes what one CLI run should do: list the catalog,
// describe a calculator, or evaluate it against key=value inputs.
type Invocation struct {
	List   bool
	Slug   string
	Locale string

	// Inputs holds raw key=value pairs from the command line. Empty means
	// describe the calculator instead of evaluating it.
	Inputs map[string]any
}

// Run executes the main application logic based on the parsed invocation.
func (a *App) Run(ctx context.Context, inv *Invocation) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if inv.List {
		a.printCatalog()
		return nil
	}

	locale := inv.Locale
	if locale == "" {
		locale = a.config.DefaultLocale
	}
	def := a.resolver.Resolve(ctx, inv.Slug, locale)

	if len(inv.Inputs) == 0 {
		a.printDefinition(def)
		return nil
	}

	result := a.evaluator.Evaluate(ctx, def, definition.PrimaryFormula, inv.Inputs)
	if len(result.Errors) > 0 {
		for _, fieldErr := range result.Errors {
			fmt.Fprintf(a.outW, "error: %s\n", fieldErr.Error())
		}
		return fmt.Errorf("%d input error(s)", len(result.Errors))
	}

	content := def.ContentFor(locale)
	fmt.Fprintf(a.outW, "%s\n", content.Title)
	for _, out := range result.Outputs {
		if out.Unavailable {
			fmt.Fprintf(a.outW, "  %s: unavailable\n", out.Key)
			continue
		}
		if out.Format == definition.FormatText {
			fmt.Fprintf(a.outW, "  %s: %s\n", out.Key, out.Text)
			continue
		}
		line := fmt.Sprintf("  %s: %v", out.Key, out.Number)
		if out.Unit != "" {
			line += " " + out.Unit
		}
		if out.Format == definition.FormatPercentage {
			line += "%"
		}
		fmt.Fprintln(a.outW, line)
	}
	if result.Degraded {
		fmt.Fprintln(a.outW, "warning: some outputs could not be computed")
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) printCatalog() {
	counts := a.registry.CountByCategory()
	fmt.Fprintf(a.outW, "%d calculators registered\n", a.registry.Len())
	for _, category := range []definition.Category{
		definition.CategoryFinance,
		definition.CategoryHealth,
		definition.CategoryConversion,
		definition.CategoryEducation,
		definition.CategoryMiscellaneous,
	} {
		ids := a.registry.IDsByCategory(category)
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(a.outW, "%s (%d):\n", category, counts[category])
		for _, id := range ids {
			fmt.Fprintf(a.outW, "  %s\n", id)
		}
	}
}

func (a *App) printDefinition(def *definition.Definition) {
	content := def.ContentFor(def.Locale)
	fmt.Fprintf(a.outW, "%s [%s]\n", content.Title, def.Category)
	if content.Description != "" {
		fmt.Fprintf(a.outW, "%s\n", content.Description)
	}
	fmt.Fprintln(a.outW, "Inputs:")
	for _, in := range def.Inputs {
		var notes []string
		if in.Required {
			notes = append(notes, "required")
		}
		if in.Min != nil || in.Max != nil {
			notes = append(notes, rangeNote(in.Min, in.Max))
		}
		if len(in.Options) > 0 {
			notes = append(notes, "one of "+strings.Join(in.Options, ", "))
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " (" + strings.Join(notes, "; ") + ")"
		}
		fmt.Fprintf(a.outW, "  %s: %s%s\n", in.Key, in.Type, suffix)
	}
	fmt.Fprintln(a.outW, "Outputs:")
	for _, out := range def.Outputs {
		if out.Unit != "" {
			fmt.Fprintf(a.outW, "  %s: %s in %s\n", out.Key, out.Format, out.Unit)
			continue
		}
		fmt.Fprintf(a.outW, "  %s: %s\n", out.Key, out.Format)
	}
}

func rangeNote(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%v to %v", *min, *max)
	case min != nil:
		return fmt.Sprintf("at least %v", *min)
	default:
		return fmt.Sprintf("at most %v", *max)
	}
}
