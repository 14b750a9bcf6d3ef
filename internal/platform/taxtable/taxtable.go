// Package taxtable loads statutory tables (tax brackets and contribution
// policy) from YAML files.
package taxtable

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"paycalc/internal/domain/payroll"
)

// Table is the on-disk shape of a statutory table.
type Table struct {
	Name     string               `yaml:"name"`
	Policy   *PolicyOverlay       `yaml:"policy,omitempty"`
	Brackets []payroll.TaxBracket `yaml:"brackets"`
}

// PolicyOverlay is a policy block as written in a file. Only keys present in
// the file are set, so an explicit zero is kept.
type PolicyOverlay struct {
	SocialSecurityRate  *decimal.Decimal `yaml:"socialSecurityRate,omitempty"`
	SocialSecurityFloor *decimal.Decimal `yaml:"socialSecurityFloor,omitempty"`
	SocialSecurityCap   *decimal.Decimal `yaml:"socialSecurityCap,omitempty"`
	StandardDeduction   *decimal.Decimal `yaml:"standardDeduction,omitempty"`
	PersonalAllowance   *decimal.Decimal `yaml:"personalAllowance,omitempty"`
}

// Apply overlays the keys present in o onto base. A nil overlay returns base.
func (o *PolicyOverlay) Apply(base payroll.Policy) payroll.Policy {
	if o == nil {
		return base
	}
	pick := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil {
			*dst = *v
		}
	}
	pick(&base.SocialSecurityRate, o.SocialSecurityRate)
	pick(&base.SocialSecurityFloor, o.SocialSecurityFloor)
	pick(&base.SocialSecurityCap, o.SocialSecurityCap)
	pick(&base.StandardDeduction, o.StandardDeduction)
	pick(&base.PersonalAllowance, o.PersonalAllowance)
	return base
}

// EffectivePolicy is the table's policy block laid over payroll.DefaultPolicy.
func (t Table) EffectivePolicy() payroll.Policy {
	return t.Policy.Apply(payroll.DefaultPolicy())
}

func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	table, err := Decode(f)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Decode parses a table and validates its brackets.
func Decode(r io.Reader) (Table, error) {
	var table Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return Table{}, err
	}
	if err := payroll.ValidateBrackets(table.Brackets); err != nil {
		return Table{}, err
	}
	if err := ValidatePolicy(table.EffectivePolicy()); err != nil {
		return Table{}, err
	}
	return table, nil
}

// ValidatePolicy rejects rates outside [0,1], negative amounts and a floor
// above the cap.
func ValidatePolicy(p payroll.Policy) error {
	one := decimal.NewFromInt(1)
	switch {
	case p.SocialSecurityRate.IsNegative() || p.SocialSecurityRate.GreaterThan(one):
		return fmt.Errorf("policy: socialSecurityRate %s outside [0,1]", p.SocialSecurityRate)
	case p.SocialSecurityFloor.IsNegative() || p.SocialSecurityCap.IsNegative():
		return fmt.Errorf("policy: social security floor and cap must not be negative")
	case p.SocialSecurityFloor.GreaterThan(p.SocialSecurityCap):
		return fmt.Errorf("policy: socialSecurityFloor %s exceeds socialSecurityCap %s", p.SocialSecurityFloor, p.SocialSecurityCap)
	case p.StandardDeduction.IsNegative() || p.PersonalAllowance.IsNegative():
		return fmt.Errorf("policy: deductions must not be negative")
	}
	return nil
}

func Encode(w io.Writer, table Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(table); err != nil {
		return err
	}
	return enc.Close()
}

const defaultTable = `
name: TH personal income tax
brackets:
  - {minIncome: "0", maxIncome: "150000", rate: "0"}
  - {minIncome: "150000", maxIncome: "300000", rate: "0.05"}
  - {minIncome: "300000", maxIncome: "500000", rate: "0.10"}
  - {minIncome: "500000", maxIncome: "750000", rate: "0.15"}
  - {minIncome: "750000", maxIncome: "1000000", rate: "0.20"}
  - {minIncome: "1000000", maxIncome: "2000000", rate: "0.25"}
  - {minIncome: "2000000", maxIncome: "5000000", rate: "0.30"}
  - {minIncome: "5000000", rate: "0.35"}
`

// Default returns the built-in progressive table used when no file is
// configured.
func Default() Table {
	table, err := Decode(bytes.NewBufferString(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("taxtable: built-in table invalid: %v", err))
	}
	return table
}
