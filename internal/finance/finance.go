// Package finance implements the reusable numeric routines shared by the
// financial calculator formulas: amortized loan payments, progressive
// bracket taxation, and compound growth.
//
// All routines are pure functions of their arguments. Any routine that
// iterates over payment periods clamps the period count to MaxPeriods, so a
// hostile or out-of-range input can never drive an unbounded loop. Results
// that would be non-finite are returned as 0; callers treat a zero from a
// degenerate input as "nothing to pay", not as an error.
package finance

import "math"

// MaxPeriods caps every period-driven iteration and exponent. 720 monthly
// periods covers a 60-year horizon, beyond any first-party calculator.
const MaxPeriods = 720

// ClampPeriods converts a period count to an int bounded to [0, MaxPeriods].
// NaN and negative counts clamp to 0.
func ClampPeriods(n float64) int {
	if math.IsNaN(n) || n <= 0 {
		return 0
	}
	if n >= MaxPeriods {
		return MaxPeriods
	}
	return int(n)
}

// MonthlyPayment returns the amortized monthly payment for a loan of the
// given principal at annualRatePct percent over the given number of years,
// compounded monthly:
//
//	M = P*r*(1+r)^n / ((1+r)^n - 1)
//
// The zero-rate case degrades to straight-line division and a zero period
// count short-circuits to 0 so the formula never produces NaN.
func MonthlyPayment(principal, annualRatePct, years float64) float64 {
	n := ClampPeriods(years * 12)
	if n == 0 || principal == 0 {
		return 0
	}
	r := annualRatePct / 100 / 12
	if r == 0 {
		return principal / float64(n)
	}
	factor := math.Pow(1+r, float64(n))
	payment := principal * r * factor / (factor - 1)
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		return 0
	}
	return payment
}

// AmortizationTotals walks the full payment schedule and returns the monthly
// payment, the total amount repaid, and the total interest paid. The walk is
// bounded by ClampPeriods regardless of the years argument.
func AmortizationTotals(principal, annualRatePct, years float64) (payment, total, interest float64) {
	n := ClampPeriods(years * 12)
	payment = MonthlyPayment(principal, annualRatePct, years)
	if n == 0 || payment == 0 {
		return 0, 0, 0
	}

	r := annualRatePct / 100 / 12
	balance := principal
	for i := 0; i < n; i++ {
		monthInterest := balance * r
		interest += monthInterest
		balance += monthInterest - payment
	}
	total = payment * float64(n)
	if interest < 0 || math.IsNaN(interest) {
		interest = 0
	}
	return payment, total, interest
}

// Bracket is one tier of a progressive tax table. UpTo is the cumulative
// income ceiling for the tier; a ceiling of 0 marks the open-ended top tier.
type Bracket struct {
	UpTo float64
	Rate float64
}

// ProgressiveTax consumes income bracket by bracket: each tier taxes the
// slice of income between the previous ceiling and its own, and the top
// tier taxes whatever remains.
func ProgressiveTax(income float64, brackets []Bracket) float64 {
	if income <= 0 || math.IsNaN(income) {
		return 0
	}
	var tax float64
	var lower float64
	remaining := income
	for _, b := range brackets {
		span := remaining
		if b.UpTo > 0 {
			span = math.Min(remaining, b.UpTo-lower)
		}
		if span <= 0 {
			break
		}
		tax += span * b.Rate
		remaining -= span
		lower = b.UpTo
	}
	return tax
}

// Compound returns the future value of principal growing at annualRatePct
// percent for the given number of years, compounded periodsPerYear times a
// year. The total compounding count is clamped to MaxPeriods.
func Compound(principal, annualRatePct, years, periodsPerYear float64) float64 {
	if periodsPerYear <= 0 {
		periodsPerYear = 1
	}
	n := ClampPeriods(years * periodsPerYear)
	if n == 0 {
		return principal
	}
	r := annualRatePct / 100 / periodsPerYear
	fv := principal * math.Pow(1+r, float64(n))
	if math.IsNaN(fv) || math.IsInf(fv, 0) {
		return 0
	}
	return fv
}
