// Package locale owns the per-locale constant tables consumed by category
// templates and formulas: currency code, progressive tax brackets, BMI
// thresholds, and regional defaults.
//
// The tables are partial; ConfigFor makes them total. Every locale the
// resolver can be asked about maps to a concrete Config, falling back to the
// default locale's table when no better match exists. The fallback is logged
// as a warning so missing tables can be found and filled in, but it is never
// an error.
package locale

import (
	"context"
	"sort"

	"golang.org/x/text/language"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/finance"
)

// Default is the designated default locale. Its table must always exist.
const Default = "en"

// Config is the constant table for one locale. The struct comes back by
// value but TaxBrackets and Defaults share backing storage with the package
// tables; treat every Config as read-only.
type Config struct {
	// Locale is the table's own identifier, which may differ from the
	// requested locale after fallback.
	Locale string

	// Currency is the ISO 4217 code used by currency-formatted outputs.
	Currency string

	// TaxBrackets is the progressive income tax table, lowest tier first.
	TaxBrackets []finance.Bracket

	// BMIUnderweight, BMINormal and BMIOverweight are the upper bounds of
	// the respective BMI classification bands.
	BMIUnderweight float64
	BMINormal      float64
	BMIOverweight  float64

	// Imperial selects imperial display units for generated converters.
	Imperial bool

	// Defaults carries regional default input values keyed by input name,
	// e.g. a typical loan interest rate.
	Defaults map[string]float64
}

var tables = map[string]Config{
	"en": {
		Locale:   "en",
		Currency: "USD",
		TaxBrackets: []finance.Bracket{
			{UpTo: 11000, Rate: 0.10},
			{UpTo: 44725, Rate: 0.12},
			{UpTo: 95375, Rate: 0.22},
			{UpTo: 182100, Rate: 0.24},
			{UpTo: 0, Rate: 0.32},
		},
		BMIUnderweight: 18.5,
		BMINormal:      25,
		BMIOverweight:  30,
		Imperial:       true,
		Defaults:       map[string]float64{"interest_rate": 6.5, "loan_years": 5},
	},
	"en-GB": {
		Locale:   "en-GB",
		Currency: "GBP",
		TaxBrackets: []finance.Bracket{
			{UpTo: 12570, Rate: 0},
			{UpTo: 50270, Rate: 0.20},
			{UpTo: 125140, Rate: 0.40},
			{UpTo: 0, Rate: 0.45},
		},
		BMIUnderweight: 18.5,
		BMINormal:      25,
		BMIOverweight:  30,
		Defaults:       map[string]float64{"interest_rate": 5.5, "loan_years": 5},
	},
	"de": {
		Locale:   "de",
		Currency: "EUR",
		TaxBrackets: []finance.Bracket{
			{UpTo: 11604, Rate: 0},
			{UpTo: 66760, Rate: 0.24},
			{UpTo: 277825, Rate: 0.42},
			{UpTo: 0, Rate: 0.45},
		},
		BMIUnderweight: 18.5,
		BMINormal:      25,
		BMIOverweight:  30,
		Defaults:       map[string]float64{"interest_rate": 4.0, "loan_years": 10},
	},
	"th": {
		Locale:   "th",
		Currency: "THB",
		TaxBrackets: []finance.Bracket{
			{UpTo: 150000, Rate: 0.05},
			{UpTo: 300000, Rate: 0.10},
			{UpTo: 500000, Rate: 0.20},
			{UpTo: 0, Rate: 0.30},
		},
		BMIUnderweight: 18.5,
		BMINormal:      23,
		BMIOverweight:  25,
		Defaults:       map[string]float64{"interest_rate": 7.5, "loan_years": 5},
	},
}

var (
	supportedKeys []string
	supportedTags []language.Tag
	matcher       language.Matcher
)

func init() {
	supportedKeys = make([]string, 0, len(tables))
	for key := range tables {
		supportedKeys = append(supportedKeys, key)
	}
	sort.Strings(supportedKeys)

	// The default locale must be the matcher's first entry so that
	// unmatchable requests land on it.
	ordered := []string{Default}
	for _, key := range supportedKeys {
		if key != Default {
			ordered = append(ordered, key)
		}
	}
	supportedKeys = ordered
	supportedTags = make([]language.Tag, len(supportedKeys))
	for i, key := range supportedKeys {
		supportedTags[i] = language.MustParse(key)
	}
	matcher = language.NewMatcher(supportedTags)
}

// Supported returns the locale keys with a concrete table, default first.
func Supported() []string {
	keys := make([]string, len(supportedKeys))
	copy(keys, supportedKeys)
	return keys
}

// ConfigFor resolves a requested locale to a concrete constant table. The
// lookup is total: an exact table wins, otherwise the closest supported
// locale is matched, otherwise the default locale's table is substituted.
// Anything but an exact hit is recorded as a locale fallback warning.
func ConfigFor(ctx context.Context, requested string) Config {
	if cfg, ok := tables[requested]; ok {
		return cfg
	}

	logger := ctxlog.FromContext(ctx)
	tag, err := language.Parse(requested)
	if err != nil {
		logger.Warn("Locale fallback: unparseable locale, substituting default table.",
			"requested", requested, "fallback", Default)
		return tables[Default]
	}

	_, index, confidence := matcher.Match(tag)
	matched := supportedKeys[index]
	if confidence == language.No {
		matched = Default
	}
	logger.Warn("Locale fallback: no constant table for locale.",
		"requested", requested, "fallback", matched)
	return tables[matched]
}
