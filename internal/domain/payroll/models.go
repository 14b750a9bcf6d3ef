package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period struct {
	Month int `json:"month" yaml:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" yaml:"year" validate:"required,min=1900"`
}

type RecurringItem struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Amount       decimal.Decimal `json:"amount" yaml:"amount"`
	ComponentRef string          `json:"componentRef,omitempty" yaml:"componentRef"`
}

// Employee is the compensation-relevant view of an employee record. The
// snapshot fields are copied onto every payslip at generation time.
type Employee struct {
	ID                        string          `json:"id" yaml:"id"`
	Code                      string          `json:"code" yaml:"code"`
	Name                      string          `json:"name" yaml:"name"`
	Department                string          `json:"department" yaml:"department"`
	Position                  string          `json:"position" yaml:"position"`
	TaxID                     string          `json:"taxId" yaml:"taxId"`
	SSN                       string          `json:"ssn" yaml:"ssn"`
	JoinDate                  time.Time       `json:"joinDate" yaml:"joinDate"`
	Status                    string          `json:"status" yaml:"status"`
	BaseSalary                decimal.Decimal `json:"baseSalary" yaml:"baseSalary"`
	ProvidentFundRateEmployee decimal.Decimal `json:"providentFundRateEmployee" yaml:"providentFundRateEmployee"`
	RecurringAllowances       []RecurringItem `json:"recurringAllowances" yaml:"recurringAllowances"`
	RecurringDeductions       []RecurringItem `json:"recurringDeductions" yaml:"recurringDeductions"`
}

type PayrollComponent struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	Kind               string `json:"kind" yaml:"kind"`
	IsTaxable          *bool  `json:"isTaxable,omitempty" yaml:"isTaxable"`
	IsSystemCalculated bool   `json:"isSystemCalculated" yaml:"isSystemCalculated"`
}

// TaxBracket is one band of a progressive table. A nil MaxIncome marks the
// unbounded top bracket.
type TaxBracket struct {
	MinIncome decimal.Decimal  `json:"minIncome" yaml:"minIncome"`
	MaxIncome *decimal.Decimal `json:"maxIncome,omitempty" yaml:"maxIncome"`
	Rate      decimal.Decimal  `json:"rate" yaml:"rate"`
}

type PayslipItem struct {
	Name         string          `json:"name" yaml:"name"`
	Amount       decimal.Decimal `json:"amount" yaml:"amount"`
	ComponentRef string          `json:"componentRef,omitempty" yaml:"componentRef"`
}

// Overrides carries the per-period adjustments for a single payslip.
type Overrides struct {
	OvertimeHours     decimal.Decimal `json:"overtimeHours" yaml:"overtimeHours"`
	OvertimeRate      decimal.Decimal `json:"overtimeRate" yaml:"overtimeRate"`
	OneTimeAllowances []PayslipItem   `json:"oneTimeAllowances" yaml:"oneTimeAllowances"`
	OneTimeDeductions []PayslipItem   `json:"oneTimeDeductions" yaml:"oneTimeDeductions"`
	ExistingPayslipID string          `json:"existingPayslipId,omitempty" yaml:"existingPayslipId"`
}

type Payslip struct {
	ID                      string          `json:"id"`
	RunID                   string          `json:"runId"`
	EmployeeID              string          `json:"employeeId"`
	EmployeeCode            string          `json:"employeeCode"`
	EmployeeName            string          `json:"employeeName"`
	Department              string          `json:"department"`
	Position                string          `json:"position"`
	TaxID                   string          `json:"taxId"`
	SSN                     string          `json:"ssn"`
	JoinDate                time.Time       `json:"joinDate"`
	PayPeriod               string          `json:"payPeriod"`
	BaseSalary              decimal.Decimal `json:"baseSalary"`
	OvertimeHours           decimal.Decimal `json:"overtimeHours"`
	OvertimeRate            decimal.Decimal `json:"overtimeRate"`
	OvertimePay             decimal.Decimal `json:"overtimePay"`
	Allowances              []PayslipItem   `json:"allowances"`
	GrossPay                decimal.Decimal `json:"grossPay"`
	TaxDeduction            decimal.Decimal `json:"taxDeduction"`
	SocialSecurityDeduction decimal.Decimal `json:"socialSecurityDeduction"`
	ProvidentFundDeduction  decimal.Decimal `json:"providentFundDeduction"`
	OtherDeductions         []PayslipItem   `json:"otherDeductions"`
	TotalDeductions         decimal.Decimal `json:"totalDeductions"`
	NetPay                  decimal.Decimal `json:"netPay"`
	PaymentDate             *time.Time      `json:"paymentDate,omitempty"`
}

type RunTotals struct {
	EmployeeCount   int             `json:"employeeCount"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalNet        decimal.Decimal `json:"totalNet"`
}

type PayrollRun struct {
	ID         string    `json:"id"`
	Period     Period    `json:"period"`
	Status     string    `json:"status"`
	PayslipIDs []string  `json:"payslipIds"`
	Totals     RunTotals `json:"totals"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Diagnostic is a non-fatal data-quality finding raised while generating a
// run. It never blocks payslip generation.
type Diagnostic struct {
	EmployeeID string `json:"employeeId"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type PayslipInput struct {
	Employee  Employee
	Catalog   *Catalog
	Brackets  []TaxBracket
	Period    Period
	RunID     string
	Overrides *Overrides
}

type RunInput struct {
	RunID      string
	Period     Period
	Employees  []Employee
	Components []PayrollComponent
	Brackets   []TaxBracket
	Overrides  map[string]Overrides
}

type RunResult struct {
	Payslips    []Payslip    `json:"payslips"`
	Totals      RunTotals    `json:"totals"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
