package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// SocialSecurityContribution levies rate on the salary clamped into the
// [floor, ceiling] band.
func SocialSecurityContribution(monthlySalary, rate, floor, ceiling decimal.Decimal) decimal.Decimal {
	base := monthlySalary
	if base.LessThan(floor) {
		base = floor
	}
	if base.GreaterThan(ceiling) {
		base = ceiling
	}
	return base.Mul(rate)
}

func ProvidentFundContribution(monthlySalary, employeeRatePercent decimal.Decimal) decimal.Decimal {
	if employeeRatePercent.IsZero() {
		return decimal.Zero
	}
	return monthlySalary.Mul(employeeRatePercent).Div(hundred)
}

// ProgressiveTax returns the unrounded monthly withholding for an annual
// taxable income. Each bracket taxes only the slice strictly above its
// MinIncome and at or below its MaxIncome, so a boundary value belongs to the
// lower bracket.
func ProgressiveTax(annualTaxableIncome decimal.Decimal, brackets []TaxBracket) decimal.Decimal {
	if !annualTaxableIncome.IsPositive() {
		return decimal.Zero
	}

	annual := decimal.Zero
	for _, bracket := range brackets {
		if !annualTaxableIncome.GreaterThan(bracket.MinIncome) {
			continue
		}
		upper := annualTaxableIncome
		if bracket.MaxIncome != nil && bracket.MaxIncome.LessThan(upper) {
			upper = *bracket.MaxIncome
		}
		slice := upper.Sub(bracket.MinIncome)
		if slice.IsPositive() {
			annual = annual.Add(slice.Mul(bracket.Rate))
		}
	}
	return annual.Div(monthsPerYear)
}

// ValidateBrackets rejects tables that would misprice tax: empty, unordered,
// overlapping or gapped tables, and tables whose unbounded bracket is not the
// last one.
func ValidateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: table is empty", ErrInvalidBrackets)
	}
	last := len(brackets) - 1
	for i, bracket := range brackets {
		if bracket.Rate.IsNegative() || bracket.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: bracket %d: rate %s outside [0,1]", ErrInvalidBrackets, i, bracket.Rate)
		}
		if i == 0 && bracket.MinIncome.IsNegative() {
			return fmt.Errorf("%w: bracket 0: negative minIncome %s", ErrInvalidBrackets, bracket.MinIncome)
		}
		if bracket.MaxIncome == nil {
			if i != last {
				return fmt.Errorf("%w: bracket %d: only the top bracket may be unbounded", ErrInvalidBrackets, i)
			}
		} else {
			if i == last {
				return fmt.Errorf("%w: bracket %d: top bracket must be unbounded", ErrInvalidBrackets, i)
			}
			if !bracket.MaxIncome.GreaterThan(bracket.MinIncome) {
				return fmt.Errorf("%w: bracket %d: maxIncome %s not above minIncome %s", ErrInvalidBrackets, i, bracket.MaxIncome, bracket.MinIncome)
			}
		}
		if i == 0 {
			continue
		}
		prevMax := *brackets[i-1].MaxIncome
		switch {
		case bracket.MinIncome.GreaterThan(prevMax):
			return fmt.Errorf("%w: bracket %d: gap between %s and %s", ErrInvalidBrackets, i, prevMax, bracket.MinIncome)
		case bracket.MinIncome.LessThan(prevMax):
			return fmt.Errorf("%w: bracket %d: overlaps previous bracket ending at %s", ErrInvalidBrackets, i, prevMax)
		}
	}
	return nil
}

func roundMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
