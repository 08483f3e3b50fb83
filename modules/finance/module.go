// Package finance contributes the first-party financial calculators:
// loan, mortgage, and progressive income tax.
package finance

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/definition"
	"github.com/vk/calcgrid/internal/eval"
	"github.com/vk/calcgrid/internal/locale"
	"github.com/vk/calcgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's calculator factories.
func (m *Module) Register(r *registry.Registry) {
	r.Register("loan-calculator", definition.CategoryFinance, loanCalculator)
	r.Register("mortgage-calculator", definition.CategoryFinance, mortgageCalculator)
	r.Register("income-tax-calculator", definition.CategoryFinance, incomeTaxCalculator)
}

var loanTitles = map[string]string{
	"en": "Loan Calculator",
	"de": "Kreditrechner",
	"th": "โปรแกรมคำนวณสินเชื่อ",
}

func titleFor(titles map[string]string, loc string) string {
	if title, ok := titles[loc]; ok {
		return title
	}
	return titles["en"]
}

func loanCalculator(loc string) *definition.Definition {
	cfg := staticConfig(loc)
	defaultRate := cty.NumberFloatVal(cfg.Defaults["interest_rate"])
	return eval.MustCompile(&definition.Definition{
		ID:       "loan-calculator",
		Category: definition.CategoryFinance,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "principal", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(1e9), Step: 100},
			{Key: "rate", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(100), Step: 0.1, Default: &defaultRate},
			{Key: "years", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(60), Step: 1},
		},
		Outputs: []definition.OutputSpec{
			{Key: "monthly", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "total", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "interest", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					monthly  = pmt(principal, rate, years)
					total    = amorttotal(principal, rate, years)
					interest = amortinterest(principal, rate, years)
				}`,
				DeclaredVariables: []string{"principal", "rate", "years"},
				Description:       "Amortized monthly payment with monthly compounding.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       titleFor(loanTitles, loc),
				Description: fmt.Sprintf("Monthly payment, total repayment and total interest in %s.", cfg.Currency),
				Keywords:    []string{"loan", "amortization", "monthly payment"},
				FAQ: []definition.FAQEntry{
					{
						Question: "How is the monthly payment computed?",
						Answer:   "Using the standard amortization formula with monthly compounding of the annual rate.",
					},
				},
			},
		},
	})
}

var mortgageTitles = map[string]string{
	"en": "Mortgage Calculator",
	"de": "Hypothekenrechner",
	"th": "โปรแกรมคำนวณสินเชื่อบ้าน",
}

func mortgageCalculator(loc string) *definition.Definition {
	cfg := staticConfig(loc)
	defaultRate := cty.NumberFloatVal(cfg.Defaults["interest_rate"])
	thirtyYears := cty.NumberIntVal(30)
	// The formula reads insurance_monthly even when has_insurance is off,
	// so the hidden field needs a zero default in the environment.
	zeroPremium := cty.NumberIntVal(0)
	noInsurance := cty.False
	return eval.MustCompile(&definition.Definition{
		ID:       "mortgage-calculator",
		Category: definition.CategoryFinance,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "home_price", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(1e10)},
			{Key: "down_payment", Type: definition.TypeNumber, Required: true, Min: floatPtr(0)},
			{Key: "rate", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(100), Default: &defaultRate},
			{Key: "years", Type: definition.TypeNumber, Default: &thirtyYears, Min: floatPtr(0), Max: floatPtr(60)},
			{Key: "has_insurance", Type: definition.TypeBoolean, Default: &noInsurance},
			{Key: "insurance_monthly", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Default: &zeroPremium, Visibility: `has_insurance`},
		},
		Outputs: []definition.OutputSpec{
			{Key: "financed", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "monthly", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "total_interest", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					financed       = max(home_price - down_payment, 0)
					monthly        = pmt(max(home_price - down_payment, 0), rate, years) + (has_insurance ? insurance_monthly : 0)
					total_interest = amortinterest(max(home_price - down_payment, 0), rate, years)
				}`,
				DeclaredVariables: []string{"home_price", "down_payment", "rate", "years", "has_insurance", "insurance_monthly"},
				Description:       "Financed amount and amortized payment, optionally with monthly insurance.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       titleFor(mortgageTitles, loc),
				Description: fmt.Sprintf("Mortgage payment breakdown in %s.", cfg.Currency),
				Keywords:    []string{"mortgage", "home loan", "down payment"},
			},
		},
	})
}

var taxTitles = map[string]string{
	"en": "Income Tax Calculator",
	"de": "Einkommensteuerrechner",
	"th": "โปรแกรมคำนวณภาษีเงินได้",
}

func incomeTaxCalculator(loc string) *definition.Definition {
	cfg := staticConfig(loc)
	return eval.MustCompile(&definition.Definition{
		ID:       "income-tax-calculator",
		Category: definition.CategoryFinance,
		Locale:   loc,
		Inputs: []definition.InputSpec{
			{Key: "income", Type: definition.TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(1e12)},
		},
		Outputs: []definition.OutputSpec{
			{Key: "tax", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "net_income", Format: definition.FormatCurrency, Precision: 2, Unit: cfg.Currency},
			{Key: "effective_rate", Format: definition.FormatPercentage, Precision: 3},
		},
		Formulas: map[string]*definition.FormulaSpec{
			definition.PrimaryFormula: {
				Expression: `{
					tax            = brackettax(income, cfg.tax_brackets)
					net_income     = income - brackettax(income, cfg.tax_brackets)
					effective_rate = income > 0 ? brackettax(income, cfg.tax_brackets) / income * 100 : 0
				}`,
				DeclaredVariables: []string{"income"},
				Description:       "Progressive bracket tax with the locale's bracket table.",
			},
		},
		LocalizedContent: map[string]definition.Content{
			loc: {
				Title:       titleFor(taxTitles, loc),
				Description: fmt.Sprintf("Tax owed, net income and effective rate using %s brackets.", cfg.Currency),
				Keywords:    []string{"income tax", "effective rate", "tax brackets"},
			},
		},
	})
}

// staticConfig fetches the locale table without a request context.
// Factories are pure functions of locale, so a background context with the
// default logger is the right scope for their fallback warnings.
func staticConfig(loc string) locale.Config {
	return locale.ConfigFor(context.Background(), loc)
}

func floatPtr(v float64) *float64 { return &v }
