package payroll

import (
	"fmt"
	"strings"
	"time"
)

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1900 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Label renders the period the way it is printed on payslips, e.g. "March 2026".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

func (e Employee) Active() bool {
	return e.Status == "" || strings.EqualFold(e.Status, EmployeeStatusActive)
}
