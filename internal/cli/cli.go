// Package cli turns command-line arguments into an application config and
// invocation. It performs no calculator work itself.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/calcgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated config and
// invocation, a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, *app.Invocation, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("calcgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
calcgrid - a configuration-driven calculator platform.

Usage:
  calcgrid -list
  calcgrid [options] SLUG [KEY=VALUE ...]

Arguments:
  SLUG
    Calculator identifier, e.g. loan-calculator or meters-to-feet.
  KEY=VALUE
    Input values. With none given, the calculator is described instead.

Options:
`)
		flagSet.PrintDefaults()
	}

	envConfig, err := app.ConfigFromEnv()
	if err != nil {
		return nil, nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	listFlag := flagSet.Bool("list", false, "List all registered calculators by category.")
	localeFlag := flagSet.String("locale", envConfig.DefaultLocale, "Locale for content and regional constants.")
	logFormatFlag := flagSet.String("log-format", envConfig.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envConfig.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, true, nil
		}
		return nil, nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if !*listFlag && flagSet.NArg() == 0 {
		slog.Debug("No slug provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, nil, true, nil
	}

	inv := &app.Invocation{
		List:   *listFlag,
		Locale: *localeFlag,
	}
	if flagSet.NArg() > 0 {
		inv.Slug = flagSet.Arg(0)
		for _, arg := range flagSet.Args()[1:] {
			key, value, found := strings.Cut(arg, "=")
			if !found || key == "" {
				return nil, nil, false, &ExitError{
					Code:    2,
					Message: fmt.Sprintf("invalid input %q: expected KEY=VALUE", arg),
				}
			}
			if inv.Inputs == nil {
				inv.Inputs = make(map[string]any)
			}
			inv.Inputs[key] = value
		}
	}

	config, err := app.NewConfig(app.Config{
		LogFormat:     strings.ToLower(*logFormatFlag),
		LogLevel:      strings.ToLower(*logLevelFlag),
		DefaultLocale: envConfig.DefaultLocale,
		MaxIterations: envConfig.MaxIterations,
	})
	if err != nil {
		return nil, nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, inv, false, nil
}
