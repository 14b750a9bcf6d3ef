package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunRecorder receives one observation per completed run calculation.
type RunRecorder interface {
	RecordRun(employees, diagnostics int, duration time.Duration)
}

// Service owns the run workflow around the engine: it loads inputs from the
// store, asks the engine for payslips and persists the result.
type Service struct {
	store    StoreAPI
	engine   *Engine
	log      zerolog.Logger
	recorder RunRecorder
	now      func() time.Time
}

func NewService(store StoreAPI, engine *Engine, log zerolog.Logger, recorder RunRecorder) *Service {
	return &Service{store: store, engine: engine, log: log, recorder: recorder, now: time.Now}
}

func (s *Service) Engine() *Engine {
	return s.engine
}

func (s *Service) CreateRun(ctx context.Context, period Period) (PayrollRun, error) {
	if err := period.Validate(); err != nil {
		return PayrollRun{}, err
	}
	existing, err := s.store.OpenRunForPeriod(ctx, period)
	if err != nil {
		return PayrollRun{}, err
	}
	if existing != "" {
		return PayrollRun{}, fmt.Errorf("%w: %s", ErrRunExists, existing)
	}

	now := s.now().UTC()
	run := PayrollRun{
		ID:         uuid.NewString(),
		Period:     period,
		Status:     RunStatusDraft,
		PayslipIDs: []string{},
		Totals:     SumPayslips(nil),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return PayrollRun{}, err
	}
	s.log.Info().Str("run_id", run.ID).Str("period", period.Label()).Msg("payroll run created")
	return run, nil
}

// CalculateRun regenerates the full payslip set of a draft run. Existing
// payslip ids are kept per employee so links to them survive a recalculation.
func (s *Service) CalculateRun(ctx context.Context, runID string) (PayrollRun, []Diagnostic, error) {
	start := s.now()
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return PayrollRun{}, nil, err
	}
	if run.Status != RunStatusDraft {
		return PayrollRun{}, nil, ErrRunNotDraft
	}

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return PayrollRun{}, nil, fmt.Errorf("load employees: %w", err)
	}
	components, err := s.store.ListComponents(ctx)
	if err != nil {
		return PayrollRun{}, nil, fmt.Errorf("load components: %w", err)
	}
	brackets, err := s.store.ListBrackets(ctx)
	if err != nil {
		return PayrollRun{}, nil, fmt.Errorf("load brackets: %w", err)
	}
	overrides, err := s.store.ListOverrides(ctx, runID)
	if err != nil {
		return PayrollRun{}, nil, fmt.Errorf("load overrides: %w", err)
	}
	previous, err := s.store.ListPayslips(ctx, runID)
	if err != nil {
		return PayrollRun{}, nil, fmt.Errorf("load payslips: %w", err)
	}
	if overrides == nil {
		overrides = map[string]Overrides{}
	}
	for _, p := range previous {
		ov := overrides[p.EmployeeID]
		ov.ExistingPayslipID = p.ID
		overrides[p.EmployeeID] = ov
	}

	result, err := s.engine.BuildRun(RunInput{
		RunID:      runID,
		Period:     run.Period,
		Employees:  employees,
		Components: components,
		Brackets:   brackets,
		Overrides:  overrides,
	})
	if err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("payroll run rejected")
		return PayrollRun{}, nil, err
	}

	if err := s.store.ReplaceRunPayslips(ctx, runID, result.Payslips, result.Totals); err != nil {
		return PayrollRun{}, nil, fmt.Errorf("persist payslips: %w", err)
	}

	run.Totals = result.Totals
	run.PayslipIDs = make([]string, 0, len(result.Payslips))
	for _, p := range result.Payslips {
		run.PayslipIDs = append(run.PayslipIDs, p.ID)
	}
	run.UpdatedAt = s.now().UTC()

	elapsed := s.now().Sub(start)
	if s.recorder != nil {
		s.recorder.RecordRun(result.Totals.EmployeeCount, len(result.Diagnostics), elapsed)
	}
	s.log.Info().
		Str("run_id", runID).
		Int("employees", result.Totals.EmployeeCount).
		Int("diagnostics", len(result.Diagnostics)).
		Str("total_net", result.Totals.TotalNet.StringFixed(2)).
		Dur("duration", elapsed).
		Msg("payroll run calculated")
	return run, result.Diagnostics, nil
}

// SetOverrides stores an employee's per-period adjustments and recalculates
// the whole run from the recurring baseline.
func (s *Service) SetOverrides(ctx context.Context, runID, employeeID string, overrides Overrides) (PayrollRun, []Diagnostic, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return PayrollRun{}, nil, err
	}
	if run.Status != RunStatusDraft {
		return PayrollRun{}, nil, ErrRunNotDraft
	}
	overrides.ExistingPayslipID = ""
	if err := s.store.UpsertOverrides(ctx, runID, employeeID, overrides); err != nil {
		return PayrollRun{}, nil, err
	}
	return s.CalculateRun(ctx, runID)
}

var allowedTransitions = map[string][]string{
	RunStatusDraft:    {RunStatusApproved, RunStatusCancelled},
	RunStatusApproved: {RunStatusPaid, RunStatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) TransitionRun(ctx context.Context, runID, status string, at time.Time) (PayrollRun, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return PayrollRun{}, err
	}
	if !CanTransition(run.Status, status) {
		return PayrollRun{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, run.Status, status)
	}

	var paidAt *time.Time
	if status == RunStatusPaid {
		if at.IsZero() {
			at = s.now()
		}
		at = at.UTC()
		paidAt = &at
	}
	if err := s.store.UpdateRunStatus(ctx, runID, status, paidAt); err != nil {
		return PayrollRun{}, err
	}
	s.log.Info().Str("run_id", runID).Str("from", run.Status).Str("to", status).Msg("payroll run status changed")

	run.Status = status
	run.UpdatedAt = s.now().UTC()
	return run, nil
}

func (s *Service) GetRun(ctx context.Context, runID string) (PayrollRun, error) {
	return s.store.GetRun(ctx, runID)
}

func (s *Service) ListPayslips(ctx context.Context, runID string) ([]Payslip, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListPayslips(ctx, runID)
}

func (s *Service) GetPayslip(ctx context.Context, payslipID string) (Payslip, error) {
	return s.store.GetPayslip(ctx, payslipID)
}

// Preview computes a payslip against the stored catalog and bracket table
// without persisting anything.
func (s *Service) Preview(ctx context.Context, emp Employee, period Period, overrides *Overrides) (Payslip, []Diagnostic, error) {
	components, err := s.store.ListComponents(ctx)
	if err != nil {
		return Payslip{}, nil, fmt.Errorf("load components: %w", err)
	}
	brackets, err := s.store.ListBrackets(ctx)
	if err != nil {
		return Payslip{}, nil, fmt.Errorf("load brackets: %w", err)
	}
	return s.engine.GeneratePayslip(PayslipInput{
		Employee:  emp,
		Catalog:   NewCatalog(components),
		Brackets:  brackets,
		Period:    period,
		Overrides: overrides,
	})
}
