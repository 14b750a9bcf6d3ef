package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Register"

var registerHeader = []any{
	"Employee Code", "Employee", "Department", "Base Salary", "Overtime", "Allowances",
	"Gross Pay", "Income Tax", "Social Security", "Provident Fund", "Other Deductions",
	"Total Deductions", "Net Pay",
}

// RegisterWorkbook builds the payroll register of a run: one row per payslip
// followed by a totals row.
func (s *Service) RegisterWorkbook(ctx context.Context, runID string) (*excelize.File, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	payslips, err := s.store.ListPayslips(ctx, runID)
	if err != nil {
		return nil, err
	}
	return BuildRegister(run, payslips)
}

func BuildRegister(run PayrollRun, payslips []Payslip) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Payroll register %s (%s)", run.Period.Label(), run.Status)
	if err := f.SetCellValue(registerSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(registerSheet, "A3", &registerHeader); err != nil {
		return nil, err
	}

	row := 4
	for _, p := range payslips {
		values := []any{
			p.EmployeeCode, p.EmployeeName, p.Department,
			money(p.BaseSalary), money(p.OvertimePay), money(sumItems(p.Allowances)),
			money(p.GrossPay), money(p.TaxDeduction), money(p.SocialSecurityDeduction),
			money(p.ProvidentFundDeduction), money(sumItems(p.OtherDeductions)),
			money(p.TotalDeductions), money(p.NetPay),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return nil, err
		}
		row++
	}

	totals := SumPayslips(payslips)
	totalRow := []any{
		"TOTAL", fmt.Sprintf("%d employees", totals.EmployeeCount), "",
		"", "", "", money(totals.TotalGross), "", "", "", "", money(totals.TotalDeductions), money(totals.TotalNet),
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(registerSheet, cell, &totalRow); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(registerSheet, 3, 3, style); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(registerSheet, row, row, style); err != nil {
		return nil, err
	}
	return f, nil
}

func sumItems(items []PayslipItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func money(value decimal.Decimal) float64 {
	f, _ := value.Round(2).Float64()
	return f
}
