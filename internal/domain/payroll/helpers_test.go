package payroll

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

// thaiBrackets is the personal income tax table used by the default seed.
func thaiBrackets() []TaxBracket {
	return []TaxBracket{
		{MinIncome: d("0"), MaxIncome: dp("150000"), Rate: d("0")},
		{MinIncome: d("150000"), MaxIncome: dp("300000"), Rate: d("0.05")},
		{MinIncome: d("300000"), MaxIncome: dp("500000"), Rate: d("0.10")},
		{MinIncome: d("500000"), MaxIncome: dp("750000"), Rate: d("0.15")},
		{MinIncome: d("750000"), MaxIncome: dp("1000000"), Rate: d("0.20")},
		{MinIncome: d("1000000"), MaxIncome: dp("2000000"), Rate: d("0.25")},
		{MinIncome: d("2000000"), MaxIncome: dp("5000000"), Rate: d("0.30")},
		{MinIncome: d("5000000"), Rate: d("0.35")},
	}
}

func testComponents() []PayrollComponent {
	return []PayrollComponent{
		{ID: "travel", Name: "Travel", Kind: ComponentKindAllowance, IsTaxable: boolPtr(true)},
		{ID: "meal", Name: "Meal", Kind: ComponentKindAllowance, IsTaxable: boolPtr(false)},
		{ID: "loan", Name: "Loan repayment", Kind: ComponentKindDeduction},
		{ID: ComponentOvertime, Name: "Overtime", Kind: ComponentKindAllowance, IsTaxable: boolPtr(true)},
		{ID: ComponentSocialSecurity, Name: "Social security", Kind: ComponentKindDeduction, IsSystemCalculated: true},
		{ID: ComponentProvidentFund, Name: "Provident fund", Kind: ComponentKindDeduction, IsSystemCalculated: true},
		{ID: ComponentIncomeTax, Name: "Income tax", Kind: ComponentKindDeduction, IsSystemCalculated: true},
	}
}

func testEngine() *Engine {
	var n atomic.Int64
	return &Engine{
		Policy:  DefaultPolicy(),
		Workers: 4,
		NewID: func() string {
			return fmt.Sprintf("ps-%d", n.Add(1))
		},
	}
}
