package payroll

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy holds the statutory constants the generator applies on top of the
// bracket table.
type Policy struct {
	SocialSecurityRate  decimal.Decimal `json:"socialSecurityRate" yaml:"socialSecurityRate"`
	SocialSecurityFloor decimal.Decimal `json:"socialSecurityFloor" yaml:"socialSecurityFloor"`
	SocialSecurityCap   decimal.Decimal `json:"socialSecurityCap" yaml:"socialSecurityCap"`
	StandardDeduction   decimal.Decimal `json:"standardDeduction" yaml:"standardDeduction"`
	PersonalAllowance   decimal.Decimal `json:"personalAllowance" yaml:"personalAllowance"`
}

func DefaultPolicy() Policy {
	return Policy{
		SocialSecurityRate:  decimal.RequireFromString("0.05"),
		SocialSecurityFloor: decimal.NewFromInt(1650),
		SocialSecurityCap:   decimal.NewFromInt(15000),
		StandardDeduction:   decimal.NewFromInt(100000),
		PersonalAllowance:   decimal.NewFromInt(60000),
	}
}

// Engine generates payslips and runs. It holds no state between calls and is
// safe for concurrent use.
type Engine struct {
	Policy  Policy
	Workers int
	NewID   func() string
}

func NewEngine(policy Policy, workers int) *Engine {
	return &Engine{Policy: policy, Workers: workers, NewID: uuid.NewString}
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// GeneratePayslip computes a single payslip. The bracket table and period are
// validated first; everything else is tolerated and reported as diagnostics.
func (e *Engine) GeneratePayslip(in PayslipInput) (Payslip, []Diagnostic, error) {
	if err := ValidateBrackets(in.Brackets); err != nil {
		return Payslip{}, nil, err
	}
	if err := in.Period.Validate(); err != nil {
		return Payslip{}, nil, err
	}
	payslip, diags := e.generate(in)
	return payslip, diags, nil
}

func (e *Engine) generate(in PayslipInput) (Payslip, []Diagnostic) {
	emp := in.Employee
	catalog := in.Catalog
	var ov Overrides
	if in.Overrides != nil {
		ov = *in.Overrides
	}

	var diags []Diagnostic
	report := func(code, format string, args ...any) {
		diags = append(diags, Diagnostic{EmployeeID: emp.ID, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	allowances := MergeItems(recurringItems(emp.RecurringAllowances), ov.OneTimeAllowances)
	deductions := MergeItems(recurringItems(emp.RecurringDeductions), ov.OneTimeDeductions)
	allowances = e.screen(allowances, catalog, report)
	deductions = e.screen(deductions, catalog, report)

	// The taxable base is built from unrounded figures; only emitted fields
	// are rounded.
	overtimeRaw := ov.OvertimeHours.Mul(ov.OvertimeRate)
	ssfRaw := SocialSecurityContribution(emp.BaseSalary, e.Policy.SocialSecurityRate, e.Policy.SocialSecurityFloor, e.Policy.SocialSecurityCap)
	pfRaw := ProvidentFundContribution(emp.BaseSalary, emp.ProvidentFundRateEmployee)

	taxableMonthly := emp.BaseSalary
	allowanceTotal := decimal.Zero
	for i := range allowances {
		if catalog.IsTaxable(allowances[i].ComponentRef) {
			taxableMonthly = taxableMonthly.Add(allowances[i].Amount)
		}
		allowances[i].Amount = roundMoney(allowances[i].Amount)
		allowanceTotal = allowanceTotal.Add(allowances[i].Amount)
	}
	if !overtimeRaw.IsZero() && catalog.IsTaxable(ComponentOvertime) {
		taxableMonthly = taxableMonthly.Add(overtimeRaw)
	}

	annualTaxable := taxableMonthly.Mul(monthsPerYear).
		Sub(ssfRaw.Mul(monthsPerYear)).
		Sub(pfRaw.Mul(monthsPerYear)).
		Sub(e.Policy.StandardDeduction).
		Sub(e.Policy.PersonalAllowance)
	if annualTaxable.IsNegative() {
		annualTaxable = decimal.Zero
	}
	tax := roundMoney(ProgressiveTax(annualTaxable, in.Brackets))
	overtimePay := roundMoney(overtimeRaw)
	ssf := roundMoney(ssfRaw)
	pf := roundMoney(pfRaw)

	otherTotal := decimal.Zero
	for i := range deductions {
		deductions[i].Amount = roundMoney(deductions[i].Amount)
		otherTotal = otherTotal.Add(deductions[i].Amount)
	}

	base := roundMoney(emp.BaseSalary)
	gross := base.Add(overtimePay).Add(allowanceTotal)
	total := tax.Add(ssf).Add(pf).Add(otherTotal)
	net := gross.Sub(total)
	if net.IsNegative() {
		report(DiagnosticNegativeNet, "net pay %s is negative", net.StringFixed(2))
	}

	id := ov.ExistingPayslipID
	if id == "" {
		id = e.newID()
	}

	return Payslip{
		ID:                      id,
		RunID:                   in.RunID,
		EmployeeID:              emp.ID,
		EmployeeCode:            emp.Code,
		EmployeeName:            emp.Name,
		Department:              emp.Department,
		Position:                emp.Position,
		TaxID:                   emp.TaxID,
		SSN:                     emp.SSN,
		JoinDate:                emp.JoinDate,
		PayPeriod:               in.Period.Label(),
		BaseSalary:              base,
		OvertimeHours:           ov.OvertimeHours,
		OvertimeRate:            ov.OvertimeRate,
		OvertimePay:             overtimePay,
		Allowances:              allowances,
		GrossPay:                gross,
		TaxDeduction:            tax,
		SocialSecurityDeduction: ssf,
		ProvidentFundDeduction:  pf,
		OtherDeductions:         deductions,
		TotalDeductions:         total,
		NetPay:                  net,
	}, diags
}

// screen drops lines that reference engine-derived components and flags
// references the catalog does not know. Lines left without a positive amount
// are dropped, since zero means removal; negative ones are reported.
func (e *Engine) screen(items []PayslipItem, catalog *Catalog, report func(code, format string, args ...any)) []PayslipItem {
	out := items[:0]
	for _, item := range items {
		if item.ComponentRef != "" && catalog.IsSystemCalculated(item.ComponentRef) {
			report(DiagnosticSystemComponent, "line %q references system component %q and was dropped", item.Name, item.ComponentRef)
			continue
		}
		if item.Amount.IsNegative() {
			report(DiagnosticNegativeAmount, "line %q has negative amount %s and was dropped", item.Name, item.Amount.String())
			continue
		}
		if item.Amount.IsZero() {
			continue
		}
		if item.ComponentRef != "" {
			if _, ok := catalog.Lookup(item.ComponentRef); !ok {
				report(DiagnosticUnknownComponent, "line %q references unknown component %q", item.Name, item.ComponentRef)
			}
		}
		out = append(out, item)
	}
	return out
}
