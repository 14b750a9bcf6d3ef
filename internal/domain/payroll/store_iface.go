package payroll

import (
	"context"
	"time"
)

// StoreAPI is the record store the workflow service persists through.
type StoreAPI interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListComponents(ctx context.Context) ([]PayrollComponent, error)
	ListBrackets(ctx context.Context) ([]TaxBracket, error)

	OpenRunForPeriod(ctx context.Context, period Period) (string, error)
	CreateRun(ctx context.Context, run PayrollRun) error
	GetRun(ctx context.Context, runID string) (PayrollRun, error)
	UpdateRunStatus(ctx context.Context, runID, status string, paidAt *time.Time) error

	ListOverrides(ctx context.Context, runID string) (map[string]Overrides, error)
	UpsertOverrides(ctx context.Context, runID, employeeID string, overrides Overrides) error

	ListPayslips(ctx context.Context, runID string) ([]Payslip, error)
	GetPayslip(ctx context.Context, payslipID string) (Payslip, error)
	ReplaceRunPayslips(ctx context.Context, runID string, payslips []Payslip, totals RunTotals) error
}
