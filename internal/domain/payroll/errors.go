package payroll

import "errors"

var (
	ErrInvalidBrackets         = errors.New("invalid tax bracket table")
	ErrInvalidPeriod           = errors.New("invalid pay period")
	ErrRunNotFound             = errors.New("payroll run not found")
	ErrPayslipNotFound         = errors.New("payslip not found")
	ErrRunExists               = errors.New("payroll run already exists for period")
	ErrRunNotDraft             = errors.New("payroll run must be in draft to recalculate")
	ErrInvalidStatusTransition = errors.New("invalid payroll run status transition")
)
