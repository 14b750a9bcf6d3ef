package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/taxtable"
)

// Seed installs the statutory components and, when the bracket table is still
// empty, the given tax table. Existing rows are left alone.
func Seed(ctx context.Context, pool *pgxpool.Pool, table taxtable.Table) error {
	if err := ensureComponents(ctx, pool, DefaultComponents()); err != nil {
		return err
	}
	return ensureBrackets(ctx, pool, table.Brackets)
}

func DefaultComponents() []payroll.PayrollComponent {
	taxable := true
	return []payroll.PayrollComponent{
		{ID: payroll.ComponentSocialSecurity, Name: "Social Security", Kind: payroll.ComponentKindDeduction, IsSystemCalculated: true},
		{ID: payroll.ComponentProvidentFund, Name: "Provident Fund", Kind: payroll.ComponentKindDeduction, IsSystemCalculated: true},
		{ID: payroll.ComponentIncomeTax, Name: "Income Tax", Kind: payroll.ComponentKindDeduction, IsSystemCalculated: true},
		{ID: payroll.ComponentOvertime, Name: "Overtime", Kind: payroll.ComponentKindAllowance, IsTaxable: &taxable},
	}
}

func ensureComponents(ctx context.Context, pool *pgxpool.Pool, components []payroll.PayrollComponent) error {
	for _, c := range components {
		_, err := pool.Exec(ctx, `
    INSERT INTO payroll_components (id, name, kind, is_taxable, is_system_calculated)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (id) DO NOTHING
  `, c.ID, c.Name, c.Kind, c.IsTaxable, c.IsSystemCalculated)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureBrackets(ctx context.Context, pool *pgxpool.Pool, brackets []payroll.TaxBracket) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM tax_brackets").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range brackets {
		batch.Queue("INSERT INTO tax_brackets (min_income, max_income, rate) VALUES ($1,$2,$3)", b.MinIncome, b.MaxIncome, b.Rate)
	}
	return pool.SendBatch(ctx, batch).Close()
}
