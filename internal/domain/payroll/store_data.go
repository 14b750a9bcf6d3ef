package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name,
           COALESCE(department, ''), COALESCE(position, ''),
           COALESCE(tax_id, ''), tax_id_enc,
           COALESCE(ssn, ''), ssn_enc,
           join_date, status, base_salary, provident_fund_rate
    FROM employees
    ORDER BY code
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	index := map[string]int{}
	for rows.Next() {
		var emp Employee
		var taxPlain, ssnPlain string
		var taxEnc, ssnEnc []byte
		if err := rows.Scan(
			&emp.ID, &emp.Code, &emp.Name, &emp.Department, &emp.Position,
			&taxPlain, &taxEnc, &ssnPlain, &ssnEnc,
			&emp.JoinDate, &emp.Status, &emp.BaseSalary, &emp.ProvidentFundRateEmployee,
		); err != nil {
			return nil, err
		}
		emp.TaxID = decryptStringFallback(s.Crypto, taxEnc, taxPlain)
		emp.SSN = decryptStringFallback(s.Crypto, ssnEnc, ssnPlain)
		index[emp.ID] = len(employees)
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, kind, name, amount, COALESCE(component_ref, '')
    FROM employee_recurring_items
    ORDER BY employee_id, position
  `)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item RecurringItem
		var employeeID, kind string
		if err := itemRows.Scan(&item.ID, &employeeID, &kind, &item.Name, &item.Amount, &item.ComponentRef); err != nil {
			return nil, err
		}
		i, ok := index[employeeID]
		if !ok {
			continue
		}
		if kind == ComponentKindDeduction {
			employees[i].RecurringDeductions = append(employees[i].RecurringDeductions, item)
		} else {
			employees[i].RecurringAllowances = append(employees[i].RecurringAllowances, item)
		}
	}
	return employees, itemRows.Err()
}

func (s *Store) ListComponents(ctx context.Context) ([]PayrollComponent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, kind, is_taxable, is_system_calculated
    FROM payroll_components
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []PayrollComponent
	for rows.Next() {
		var component PayrollComponent
		if err := rows.Scan(&component.ID, &component.Name, &component.Kind, &component.IsTaxable, &component.IsSystemCalculated); err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	return components, rows.Err()
}

func (s *Store) ListBrackets(ctx context.Context) ([]TaxBracket, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT min_income, max_income, rate
    FROM tax_brackets
    ORDER BY min_income
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []TaxBracket
	for rows.Next() {
		var bracket TaxBracket
		var maxIncome decimal.NullDecimal
		if err := rows.Scan(&bracket.MinIncome, &maxIncome, &bracket.Rate); err != nil {
			return nil, err
		}
		if maxIncome.Valid {
			value := maxIncome.Decimal
			bracket.MaxIncome = &value
		}
		brackets = append(brackets, bracket)
	}
	return brackets, rows.Err()
}

func (s *Store) OpenRunForPeriod(ctx context.Context, period Period) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id
    FROM payroll_runs
    WHERE month = $1 AND year = $2 AND status <> $3
    LIMIT 1
  `, period.Month, period.Year, RunStatusCancelled).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *Store) CreateRun(ctx context.Context, run PayrollRun) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_runs (id, month, year, status, employee_count, total_gross, total_deductions, total_net, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
  `, run.ID, run.Period.Month, run.Period.Year, run.Status,
		run.Totals.EmployeeCount, run.Totals.TotalGross, run.Totals.TotalDeductions, run.Totals.TotalNet, run.CreatedAt)
	return err
}

func (s *Store) GetRun(ctx context.Context, runID string) (PayrollRun, error) {
	var run PayrollRun
	err := s.DB.QueryRow(ctx, `
    SELECT id, month, year, status, employee_count, total_gross, total_deductions, total_net, created_at, updated_at
    FROM payroll_runs
    WHERE id = $1
  `, runID).Scan(&run.ID, &run.Period.Month, &run.Period.Year, &run.Status,
		&run.Totals.EmployeeCount, &run.Totals.TotalGross, &run.Totals.TotalDeductions, &run.Totals.TotalNet,
		&run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayrollRun{}, ErrRunNotFound
	}
	if err != nil {
		return PayrollRun{}, err
	}

	rows, err := s.DB.Query(ctx, `SELECT id FROM payslips WHERE run_id = $1 ORDER BY employee_code`, runID)
	if err != nil {
		return PayrollRun{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return PayrollRun{}, err
		}
		run.PayslipIDs = append(run.PayslipIDs, id)
	}
	return run, rows.Err()
}

// UpdateRunStatus moves the run and, when paidAt is set, stamps every payslip
// of the run with the payment date in the same transaction.
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status string, paidAt *time.Time) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE payroll_runs SET status = $2, updated_at = now() WHERE id = $1`, runID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	if paidAt != nil {
		if _, err := tx.Exec(ctx, `UPDATE payslips SET payment_date = $2 WHERE run_id = $1`, runID, *paidAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListOverrides(ctx context.Context, runID string) (map[string]Overrides, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, overtime_hours, overtime_rate, one_time_allowances, one_time_deductions
    FROM payroll_overrides
    WHERE run_id = $1
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Overrides{}
	for rows.Next() {
		var employeeID string
		var ov Overrides
		var allowancesJSON, deductionsJSON []byte
		if err := rows.Scan(&employeeID, &ov.OvertimeHours, &ov.OvertimeRate, &allowancesJSON, &deductionsJSON); err != nil {
			return nil, err
		}
		if err := unmarshalItems(allowancesJSON, &ov.OneTimeAllowances); err != nil {
			return nil, fmt.Errorf("overrides for %s: %w", employeeID, err)
		}
		if err := unmarshalItems(deductionsJSON, &ov.OneTimeDeductions); err != nil {
			return nil, fmt.Errorf("overrides for %s: %w", employeeID, err)
		}
		out[employeeID] = ov
	}
	return out, rows.Err()
}

func (s *Store) UpsertOverrides(ctx context.Context, runID, employeeID string, overrides Overrides) error {
	allowancesJSON, err := json.Marshal(itemsOrEmpty(overrides.OneTimeAllowances))
	if err != nil {
		return err
	}
	deductionsJSON, err := json.Marshal(itemsOrEmpty(overrides.OneTimeDeductions))
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payroll_overrides (run_id, employee_id, overtime_hours, overtime_rate, one_time_allowances, one_time_deductions, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,now())
    ON CONFLICT (run_id, employee_id) DO UPDATE
    SET overtime_hours = EXCLUDED.overtime_hours,
        overtime_rate = EXCLUDED.overtime_rate,
        one_time_allowances = EXCLUDED.one_time_allowances,
        one_time_deductions = EXCLUDED.one_time_deductions,
        updated_at = now()
  `, runID, employeeID, overrides.OvertimeHours, overrides.OvertimeRate, allowancesJSON, deductionsJSON)
	return err
}

const payslipColumns = `
    id, run_id, employee_id, employee_code, employee_name,
    COALESCE(department, ''), COALESCE(position, ''),
    COALESCE(tax_id, ''), tax_id_enc, COALESCE(ssn, ''), ssn_enc,
    join_date, pay_period, base_salary, overtime_hours, overtime_rate, overtime_pay,
    allowances, gross_pay, tax_deduction, social_security_deduction, provident_fund_deduction,
    other_deductions, total_deductions, net_pay, payment_date`

func (s *Store) ListPayslips(ctx context.Context, runID string) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+payslipColumns+`
    FROM payslips
    WHERE run_id = $1
    ORDER BY employee_code
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payslips []Payslip
	for rows.Next() {
		payslip, err := s.scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		payslips = append(payslips, payslip)
	}
	return payslips, rows.Err()
}

func (s *Store) GetPayslip(ctx context.Context, payslipID string) (Payslip, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+payslipColumns+`
    FROM payslips
    WHERE id = $1
  `, payslipID)
	payslip, err := s.scanPayslip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payslip{}, ErrPayslipNotFound
	}
	return payslip, err
}

func (s *Store) scanPayslip(row pgx.Row) (Payslip, error) {
	var p Payslip
	var taxPlain, ssnPlain string
	var taxEnc, ssnEnc, allowancesJSON, deductionsJSON []byte
	if err := row.Scan(
		&p.ID, &p.RunID, &p.EmployeeID, &p.EmployeeCode, &p.EmployeeName, &p.Department, &p.Position,
		&taxPlain, &taxEnc, &ssnPlain, &ssnEnc,
		&p.JoinDate, &p.PayPeriod, &p.BaseSalary, &p.OvertimeHours, &p.OvertimeRate, &p.OvertimePay,
		&allowancesJSON, &p.GrossPay, &p.TaxDeduction, &p.SocialSecurityDeduction, &p.ProvidentFundDeduction,
		&deductionsJSON, &p.TotalDeductions, &p.NetPay, &p.PaymentDate,
	); err != nil {
		return Payslip{}, err
	}
	p.TaxID = decryptStringFallback(s.Crypto, taxEnc, taxPlain)
	p.SSN = decryptStringFallback(s.Crypto, ssnEnc, ssnPlain)
	if err := unmarshalItems(allowancesJSON, &p.Allowances); err != nil {
		return Payslip{}, err
	}
	if err := unmarshalItems(deductionsJSON, &p.OtherDeductions); err != nil {
		return Payslip{}, err
	}
	return p, nil
}

// ReplaceRunPayslips swaps the whole payslip set of a run and its totals in a
// single transaction so readers never observe a half-replaced run.
func (s *Store) ReplaceRunPayslips(ctx context.Context, runID string, payslips []Payslip, totals RunTotals) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM payslips WHERE run_id = $1`, runID); err != nil {
		return err
	}
	for _, p := range payslips {
		if err := s.insertPayslip(ctx, tx, p); err != nil {
			return fmt.Errorf("insert payslip %s: %w", p.ID, err)
		}
	}
	tag, err := tx.Exec(ctx, `
    UPDATE payroll_runs
    SET employee_count = $2, total_gross = $3, total_deductions = $4, total_net = $5, updated_at = now()
    WHERE id = $1
  `, runID, totals.EmployeeCount, totals.TotalGross, totals.TotalDeductions, totals.TotalNet)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) insertPayslip(ctx context.Context, q querier, p Payslip) error {
	allowancesJSON, err := json.Marshal(itemsOrEmpty(p.Allowances))
	if err != nil {
		return err
	}
	deductionsJSON, err := json.Marshal(itemsOrEmpty(p.OtherDeductions))
	if err != nil {
		return err
	}
	taxPlain, taxEnc := encryptSnapshot(s.Crypto, p.TaxID)
	ssnPlain, ssnEnc := encryptSnapshot(s.Crypto, p.SSN)

	_, err = q.Exec(ctx, `
    INSERT INTO payslips (
      id, run_id, employee_id, employee_code, employee_name, department, position,
      tax_id, tax_id_enc, ssn, ssn_enc, join_date, pay_period,
      base_salary, overtime_hours, overtime_rate, overtime_pay, allowances, gross_pay,
      tax_deduction, social_security_deduction, provident_fund_deduction, other_deductions,
      total_deductions, net_pay, payment_date
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
  `, p.ID, p.RunID, p.EmployeeID, p.EmployeeCode, p.EmployeeName, nullIfEmpty(p.Department), nullIfEmpty(p.Position),
		nullIfEmpty(taxPlain), taxEnc, nullIfEmpty(ssnPlain), ssnEnc, p.JoinDate, p.PayPeriod,
		p.BaseSalary, p.OvertimeHours, p.OvertimeRate, p.OvertimePay, allowancesJSON, p.GrossPay,
		p.TaxDeduction, p.SocialSecurityDeduction, p.ProvidentFundDeduction, deductionsJSON,
		p.TotalDeductions, p.NetPay, p.PaymentDate)
	return err
}

func unmarshalItems(raw []byte, dst *[]PayslipItem) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func itemsOrEmpty(items []PayslipItem) []PayslipItem {
	if items == nil {
		return []PayslipItem{}
	}
	return items
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
