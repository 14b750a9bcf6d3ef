package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialSecurityContributionClamps(t *testing.T) {
	rate, floor, ceiling := d("0.05"), d("1650"), d("15000")

	cases := []struct {
		salary string
		want   string
	}{
		{"0", "82.5"},
		{"1000", "82.5"},
		{"1650", "82.5"},
		{"10000", "500"},
		{"15000", "750"},
		{"30000", "750"},
		{"1000000", "750"},
	}
	for _, tc := range cases {
		got := SocialSecurityContribution(d(tc.salary), rate, floor, ceiling)
		assert.Truef(t, got.Equal(d(tc.want)), "salary %s: got %s want %s", tc.salary, got, tc.want)
	}
}

func TestProvidentFundContribution(t *testing.T) {
	assert.True(t, ProvidentFundContribution(d("30000"), d("0")).IsZero())
	assert.True(t, ProvidentFundContribution(d("30000"), d("5")).Equal(d("1500")))
	assert.True(t, ProvidentFundContribution(d("12345"), d("3")).Equal(d("370.35")))
}

func TestProgressiveTaxNonPositiveIncome(t *testing.T) {
	assert.True(t, ProgressiveTax(d("0"), thaiBrackets()).IsZero())
	assert.True(t, ProgressiveTax(d("-5000"), thaiBrackets()).IsZero())
}

func TestProgressiveTaxKnownValues(t *testing.T) {
	brackets := thaiBrackets()
	cases := []struct {
		annual string
		yearly string
	}{
		{"150000", "0"},
		{"202000", "2600"},
		{"300000", "7500"},
		{"500000", "27500"},
		{"1000000", "115000"},
		{"6000000", "1615000"},
	}
	for _, tc := range cases {
		got := ProgressiveTax(d(tc.annual), brackets)
		want := d(tc.yearly).Div(monthsPerYear)
		assert.Truef(t, got.Equal(want), "annual %s: got %s want %s", tc.annual, got, want)
	}
}

func TestProgressiveTaxBoundaryBelongsToLowerBracket(t *testing.T) {
	brackets := thaiBrackets()
	atBoundary := ProgressiveTax(d("300000"), brackets).Mul(monthsPerYear)
	justAbove := ProgressiveTax(d("300001"), brackets).Mul(monthsPerYear).Round(6)

	assert.True(t, atBoundary.Equal(d("7500")))
	assert.True(t, justAbove.Sub(atBoundary).Equal(d("0.1")), "first unit above the boundary is taxed at the next rate only")
}

func TestProgressiveTaxMarginalRateWithinBracket(t *testing.T) {
	brackets := thaiBrackets()
	for _, b := range brackets {
		lo := b.MinIncome.Add(d("1"))
		hi := b.MinIncome.Add(d("1001"))
		diff := ProgressiveTax(hi, brackets).Sub(ProgressiveTax(lo, brackets)).Mul(monthsPerYear).Round(6)
		assert.Truef(t, diff.Equal(d("1000").Mul(b.Rate)), "bracket from %s: marginal %s", b.MinIncome, diff)
	}
}

func TestProgressiveTaxMonotonic(t *testing.T) {
	brackets := thaiBrackets()
	prev := decimal.Zero
	for income := int64(0); income <= 6_000_000; income += 12_500 {
		got := ProgressiveTax(decimal.NewFromInt(income), brackets)
		require.False(t, got.IsNegative())
		require.Falsef(t, got.LessThan(prev), "tax decreased at %d", income)
		prev = got
	}
}

func TestValidateBrackets(t *testing.T) {
	require.NoError(t, ValidateBrackets(thaiBrackets()))

	cases := map[string][]TaxBracket{
		"empty": nil,
		"gap": {
			{MinIncome: d("0"), MaxIncome: dp("100"), Rate: d("0")},
			{MinIncome: d("200"), Rate: d("0.1")},
		},
		"overlap": {
			{MinIncome: d("0"), MaxIncome: dp("200"), Rate: d("0")},
			{MinIncome: d("100"), Rate: d("0.1")},
		},
		"unbounded middle": {
			{MinIncome: d("0"), Rate: d("0")},
			{MinIncome: d("100"), Rate: d("0.1")},
		},
		"bounded top": {
			{MinIncome: d("0"), MaxIncome: dp("100"), Rate: d("0")},
			{MinIncome: d("100"), MaxIncome: dp("200"), Rate: d("0.1")},
		},
		"inverted": {
			{MinIncome: d("100"), MaxIncome: dp("50"), Rate: d("0")},
			{MinIncome: d("50"), Rate: d("0.1")},
		},
		"rate above one": {
			{MinIncome: d("0"), Rate: d("5")},
		},
		"negative start": {
			{MinIncome: d("-1"), Rate: d("0.1")},
		},
	}
	for name, brackets := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateBrackets(brackets), ErrInvalidBrackets)
		})
	}
}
