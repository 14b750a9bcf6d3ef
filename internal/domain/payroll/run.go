package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BuildRun generates payslips for every eligible employee of a run. A bad
// bracket table or period aborts before any employee is processed. Payslips
// come back in input order regardless of how the workers interleave.
func (e *Engine) BuildRun(in RunInput) (RunResult, error) {
	if err := ValidateBrackets(in.Brackets); err != nil {
		return RunResult{}, err
	}
	if err := in.Period.Validate(); err != nil {
		return RunResult{}, err
	}

	catalog := NewCatalog(in.Components)

	var diags []Diagnostic
	eligible := make([]Employee, 0, len(in.Employees))
	for _, emp := range in.Employees {
		if !emp.Active() {
			continue
		}
		if !emp.BaseSalary.IsPositive() {
			diags = append(diags, Diagnostic{
				EmployeeID: emp.ID,
				Code:       DiagnosticMissingBaseSalary,
				Message:    fmt.Sprintf("employee %s has no base salary and was excluded", emp.ID),
			})
			continue
		}
		eligible = append(eligible, emp)
	}

	payslips := make([]Payslip, len(eligible))
	perEmployee := make([][]Diagnostic, len(eligible))

	var g errgroup.Group
	g.SetLimit(e.workers())
	for i, emp := range eligible {
		g.Go(func() error {
			input := PayslipInput{
				Employee: emp,
				Catalog:  catalog,
				Brackets: in.Brackets,
				Period:   in.Period,
				RunID:    in.RunID,
			}
			if ov, ok := in.Overrides[emp.ID]; ok {
				input.Overrides = &ov
			}
			payslips[i], perEmployee[i] = e.generate(input)
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range perEmployee {
		diags = append(diags, d...)
	}

	return RunResult{
		Payslips:    payslips,
		Totals:      SumPayslips(payslips),
		Diagnostics: diags,
	}, nil
}

// SumPayslips reduces a payslip set into run totals.
func SumPayslips(payslips []Payslip) RunTotals {
	totals := RunTotals{
		EmployeeCount:   len(payslips),
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, p := range payslips {
		totals.TotalGross = totals.TotalGross.Add(p.GrossPay)
		totals.TotalDeductions = totals.TotalDeductions.Add(p.TotalDeductions)
		totals.TotalNet = totals.TotalNet.Add(p.NetPay)
	}
	return totals
}
