package taxtable

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paycalc/internal/domain/payroll"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	require.Len(t, table.Brackets, 8)
	assert.Nil(t, table.Brackets[7].MaxIncome)
	assert.True(t, table.Brackets[1].Rate.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, payroll.DefaultPolicy(), table.EffectivePolicy())
}

func TestDecodePolicyFallsBackPerField(t *testing.T) {
	src := `
policy:
  socialSecurityCap: "17500"
brackets:
  - {minIncome: "0", maxIncome: "100000", rate: "0"}
  - {minIncome: "100000", rate: "0.1"}
`
	table, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	policy := table.EffectivePolicy()
	assert.True(t, policy.SocialSecurityCap.Equal(decimal.NewFromInt(17500)))
	assert.True(t, policy.SocialSecurityFloor.Equal(decimal.NewFromInt(1650)))
	assert.True(t, policy.PersonalAllowance.Equal(decimal.NewFromInt(60000)))
}

func TestDecodePolicyKeepsExplicitZero(t *testing.T) {
	src := `
policy:
  personalAllowance: "0"
  socialSecurityRate: "0"
brackets:
  - {minIncome: "0", maxIncome: "100000", rate: "0"}
  - {minIncome: "100000", rate: "0.1"}
`
	table, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	policy := table.EffectivePolicy()
	assert.True(t, policy.PersonalAllowance.IsZero(), policy.PersonalAllowance.String())
	assert.True(t, policy.SocialSecurityRate.IsZero(), policy.SocialSecurityRate.String())
	assert.True(t, policy.StandardDeduction.Equal(decimal.NewFromInt(100000)))
}

func TestDecodeRejectsInvalidPolicy(t *testing.T) {
	src := `
policy:
  socialSecurityFloor: "20000"
brackets:
  - {minIncome: "0", rate: "0"}
`
	_, err := Decode(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socialSecurityFloor")
}

func TestPolicyOverlayNilKeepsBase(t *testing.T) {
	var overlay *PolicyOverlay
	assert.Equal(t, payroll.DefaultPolicy(), overlay.Apply(payroll.DefaultPolicy()))
}

func TestDecodeRejectsGappedTable(t *testing.T) {
	src := `
brackets:
  - {minIncome: "0", maxIncome: "100000", rate: "0"}
  - {minIncome: "120000", rate: "0.1"}
`
	_, err := Decode(strings.NewReader(src))
	assert.ErrorIs(t, err, payroll.ErrInvalidBrackets)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("bracketz: []\n"))
	assert.Error(t, err)
}

func TestEncodeRoundTripThroughFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Default()))

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, table.Brackets, 8)
	assert.True(t, table.Brackets[7].MinIncome.Equal(decimal.NewFromInt(5000000)))
}
