package payroll

const (
	RunStatusDraft     = "draft"
	RunStatusApproved  = "approved"
	RunStatusPaid      = "paid"
	RunStatusCancelled = "cancelled"

	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"

	ComponentKindAllowance = "allowance"
	ComponentKindDeduction = "deduction"

	ComponentSocialSecurity = "social_security"
	ComponentProvidentFund  = "provident_fund"
	ComponentIncomeTax      = "income_tax"
	ComponentOvertime       = "overtime"

	DiagnosticUnknownComponent  = "unknown_component"
	DiagnosticMissingBaseSalary = "missing_base_salary"
	DiagnosticNegativeNet       = "negative_net"
	DiagnosticSystemComponent   = "system_component_item"
	DiagnosticNegativeAmount    = "negative_amount"
)
