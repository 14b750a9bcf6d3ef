package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/logger"
	"paycalc/internal/platform/taxtable"
)

// runDocument is the YAML input of `paycalc run`. Brackets fall back to the
// built-in table when omitted.
type runDocument struct {
	RunID      string                       `yaml:"runId"`
	Period     payroll.Period               `yaml:"period"`
	Policy     *taxtable.PolicyOverlay      `yaml:"policy"`
	Employees  []payroll.Employee           `yaml:"employees"`
	Components []payroll.PayrollComponent   `yaml:"components"`
	Brackets   []payroll.TaxBracket         `yaml:"brackets"`
	Overrides  map[string]payroll.Overrides `yaml:"overrides"`
}

func newRunCmd() *cobra.Command {
	var (
		input   string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calculate a payroll run from a YAML document",
		Example: `  paycalc run --input march.yaml
  paycalc run --input march.yaml --workers 4 > result.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers < 0 {
				return fmt.Errorf("workers must not be negative")
			}
			doc, err := readRunDocument(input)
			if err != nil {
				return err
			}
			result, err := calculate(doc, workers)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Run document (YAML)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent payslip workers (0 uses GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readRunDocument(path string) (runDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return runDocument{}, err
	}
	defer f.Close()

	var doc runDocument
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return runDocument{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func calculate(doc runDocument, workers int) (payroll.RunResult, error) {
	log := logger.WithComponent("cli")

	policy := doc.Policy.Apply(payroll.DefaultPolicy())
	if err := taxtable.ValidatePolicy(policy); err != nil {
		return payroll.RunResult{}, err
	}
	brackets := doc.Brackets
	if len(brackets) == 0 {
		brackets = taxtable.Default().Brackets
	}
	runID := doc.RunID
	if runID == "" {
		runID = "offline"
	}

	started := time.Now()
	result, err := payroll.NewEngine(policy, workers).BuildRun(payroll.RunInput{
		RunID:      runID,
		Period:     doc.Period,
		Employees:  doc.Employees,
		Components: doc.Components,
		Brackets:   brackets,
		Overrides:  doc.Overrides,
	})
	if err != nil {
		return payroll.RunResult{}, err
	}
	for _, d := range result.Diagnostics {
		log.Warn().Str("employee_id", d.EmployeeID).Str("code", d.Code).Msg(d.Message)
	}
	log.Info().
		Str("period", doc.Period.Label()).
		Int("payslips", len(result.Payslips)).
		Dur("duration", time.Since(started)).
		Msg("run calculated")
	return result, nil
}
