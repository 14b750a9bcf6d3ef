package payrollhandler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"paycalc/internal/auth"
	"paycalc/internal/domain/payroll"
	"paycalc/internal/transport/http/api"
	"paycalc/internal/transport/http/middleware"
	"paycalc/internal/transport/http/shared"
)

// Service is the slice of payroll.Service the handlers call.
type Service interface {
	Preview(ctx context.Context, emp payroll.Employee, period payroll.Period, overrides *payroll.Overrides) (payroll.Payslip, []payroll.Diagnostic, error)
	CreateRun(ctx context.Context, period payroll.Period) (payroll.PayrollRun, error)
	GetRun(ctx context.Context, runID string) (payroll.PayrollRun, error)
	CalculateRun(ctx context.Context, runID string) (payroll.PayrollRun, []payroll.Diagnostic, error)
	SetOverrides(ctx context.Context, runID, employeeID string, overrides payroll.Overrides) (payroll.PayrollRun, []payroll.Diagnostic, error)
	TransitionRun(ctx context.Context, runID, status string, at time.Time) (payroll.PayrollRun, error)
	ListPayslips(ctx context.Context, runID string) ([]payroll.Payslip, error)
	GetPayslip(ctx context.Context, payslipID string) (payroll.Payslip, error)
	PayslipPDF(ctx context.Context, payslipID string) ([]byte, error)
	RegisterWorkbook(ctx context.Context, runID string) (*excelize.File, error)
}

// Auditor records payroll mutations. Failures are logged, never returned to
// the caller.
type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type Handler struct {
	Service   Service
	Audit     Auditor
	Validator *shared.Validator
	Log       zerolog.Logger
}

func NewHandler(service Service, auditor Auditor, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Audit: auditor, Validator: shared.NewValidator(), Log: log}
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		h.Log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

type previewRequest struct {
	Employee  payroll.Employee   `json:"employee" validate:"required"`
	Period    payroll.Period     `json:"period" validate:"required"`
	Overrides *payroll.Overrides `json:"overrides"`
}

type createRunRequest struct {
	Period payroll.Period `json:"period" validate:"required"`
}

type statusRequest struct {
	Status      string `json:"status" validate:"required,oneof=approved paid cancelled"`
	PaymentDate string `json:"paymentDate"`
}

type runResponse struct {
	Run         payroll.PayrollRun   `json:"run"`
	Diagnostics []payroll.Diagnostic `json:"diagnostics"`
}

type payslipResponse struct {
	Payslip     payroll.Payslip      `json:"payslip"`
	Diagnostics []payroll.Diagnostic `json:"diagnostics"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RolePayrollViewer)).Post("/preview", h.handlePreview)
		r.With(middleware.RequireRole(auth.RolePayrollAdmin)).Post("/runs", h.handleCreateRun)
		r.With(middleware.RequireRole(auth.RolePayrollViewer)).Get("/runs/{runID}", h.handleGetRun)
		r.With(middleware.RequireRole(auth.RolePayrollAdmin)).Post("/runs/{runID}/calculate", h.handleCalculateRun)
		r.With(middleware.RequireRole(auth.RolePayrollAdmin)).Put("/runs/{runID}/employees/{employeeID}/overrides", h.handleSetOverrides)
		r.With(middleware.RequireRole(auth.RolePayrollAdmin)).Post("/runs/{runID}/status", h.handleTransition)
		r.With(middleware.RequireRole(auth.RolePayrollViewer)).Get("/runs/{runID}/payslips", h.handleListPayslips)
		r.With(middleware.RequireRole(auth.RolePayrollViewer)).Get("/runs/{runID}/register.xlsx", h.handleRegister)
		r.With(middleware.RequireRole(auth.RolePayrollViewer)).Get("/payslips/{payslipID}", h.handleGetPayslip)
		r.With(middleware.RequireRole(auth.RolePayrollViewer)).Get("/payslips/{payslipID}/pdf", h.handlePayslipPDF)
	})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload previewRequest
	if !h.Validator.Decode(w, r, &payload, reqID) {
		return
	}
	if payload.Overrides != nil {
		if issues := overrideIssues(*payload.Overrides); len(issues) > 0 {
			for i := range issues {
				issues[i].Field = "overrides." + issues[i].Field
			}
			shared.FailValidation(w, reqID, issues)
			return
		}
	}
	payslip, diags, err := h.Service.Preview(r.Context(), payload.Employee, payload.Period, payload.Overrides)
	if err != nil {
		h.fail(w, r, err, "payroll_preview_failed", "failed to preview payslip")
		return
	}
	api.Success(w, payslipResponse{Payslip: payslip, Diagnostics: nonNil(diags)}, reqID)
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createRunRequest
	if !h.Validator.Decode(w, r, &payload, reqID) {
		return
	}
	run, err := h.Service.CreateRun(r.Context(), payload.Period)
	if err != nil {
		h.fail(w, r, err, "payroll_run_create_failed", "failed to create payroll run")
		return
	}
	h.record(r, "payroll.run.create", "payroll_run", run.ID, nil, payload)
	api.Created(w, run, reqID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.fail(w, r, err, "payroll_run_failed", "failed to load payroll run")
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalculateRun(w http.ResponseWriter, r *http.Request) {
	run, diags, err := h.Service.CalculateRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.fail(w, r, err, "payroll_run_calculate_failed", "failed to calculate payroll run")
		return
	}
	h.record(r, "payroll.run.calculate", "payroll_run", run.ID, nil, run.Totals)
	api.Success(w, runResponse{Run: run, Diagnostics: nonNil(diags)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetOverrides(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload payroll.Overrides
	if !h.Validator.Decode(w, r, &payload, reqID) {
		return
	}
	if issues := overrideIssues(payload); len(issues) > 0 {
		shared.FailValidation(w, reqID, issues)
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	run, diags, err := h.Service.SetOverrides(r.Context(), chi.URLParam(r, "runID"), employeeID, payload)
	if err != nil {
		h.fail(w, r, err, "payroll_overrides_failed", "failed to save overrides")
		return
	}
	h.record(r, "payroll.overrides.set", "payroll_run", run.ID, nil, map[string]any{"employeeId": employeeID, "overrides": payload})
	api.Success(w, runResponse{Run: run, Diagnostics: nonNil(diags)}, reqID)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload statusRequest
	if !h.Validator.Decode(w, r, &payload, reqID) {
		return
	}
	at, err := shared.ParseDate(payload.PaymentDate)
	if err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "paymentDate", Reason: "must be a valid date in YYYY-MM-DD format"}})
		return
	}
	runID := chi.URLParam(r, "runID")
	before, err := h.Service.GetRun(r.Context(), runID)
	if err != nil {
		h.fail(w, r, err, "payroll_status_failed", "failed to change payroll run status")
		return
	}
	run, err := h.Service.TransitionRun(r.Context(), runID, payload.Status, at)
	if err != nil {
		h.fail(w, r, err, "payroll_status_failed", "failed to change payroll run status")
		return
	}
	h.record(r, "payroll.run.status", "payroll_run", runID, map[string]string{"status": before.Status}, map[string]string{"status": run.Status})
	api.Success(w, run, reqID)
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	payslips, err := h.Service.ListPayslips(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.fail(w, r, err, "payroll_payslips_failed", "failed to list payslips")
		return
	}
	if payslips == nil {
		payslips = []payroll.Payslip{}
	}
	api.Success(w, payslips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	payslip, err := h.Service.GetPayslip(r.Context(), chi.URLParam(r, "payslipID"))
	if err != nil {
		h.fail(w, r, err, "payroll_payslip_failed", "failed to load payslip")
		return
	}
	api.Success(w, payslip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	payslipID := chi.URLParam(r, "payslipID")
	data, err := h.Service.PayslipPDF(r.Context(), payslipID)
	if err != nil {
		h.fail(w, r, err, "payslip_pdf_failed", "failed to render payslip")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=payslip-"+payslipID+".pdf")
	if _, err := w.Write(data); err != nil {
		h.Log.Warn().Err(err).Str("payslip_id", payslipID).Msg("payslip pdf write failed")
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	book, err := h.Service.RegisterWorkbook(r.Context(), runID)
	if err != nil {
		h.fail(w, r, err, "export_failed", "failed to export register")
		return
	}
	defer func() {
		if err := book.Close(); err != nil {
			h.Log.Warn().Err(err).Msg("register workbook close failed")
		}
	}()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll-register-"+runID+".xlsx")
	if err := book.Write(w); err != nil {
		h.Log.Warn().Err(err).Str("run_id", runID).Msg("register write failed")
	}
}

// fail maps domain errors onto HTTP statuses; anything unrecognised is a 500
// with the given code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrRunNotFound):
		api.Fail(w, http.StatusNotFound, "payroll_run_not_found", "payroll run not found", reqID)
	case errors.Is(err, payroll.ErrPayslipNotFound):
		api.Fail(w, http.StatusNotFound, "payslip_not_found", "payslip not found", reqID)
	case errors.Is(err, payroll.ErrRunExists):
		api.Fail(w, http.StatusConflict, "payroll_run_exists", "a payroll run already exists for this period", reqID)
	case errors.Is(err, payroll.ErrRunNotDraft):
		api.Fail(w, http.StatusConflict, "payroll_run_locked", "payroll run is no longer in draft", reqID)
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		api.Fail(w, http.StatusConflict, "invalid_status_transition", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidBrackets):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_tax_brackets", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
	default:
		h.Log.Error().Err(err).Str("requestId", reqID).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

func overrideIssues(ov payroll.Overrides) []shared.ValidationIssue {
	var issues []shared.ValidationIssue
	if ov.OvertimeHours.IsNegative() {
		issues = append(issues, shared.ValidationIssue{Field: "overtimeHours", Reason: "must not be negative"})
	}
	if ov.OvertimeRate.IsNegative() {
		issues = append(issues, shared.ValidationIssue{Field: "overtimeRate", Reason: "must not be negative"})
	}
	check := func(field string, items []payroll.PayslipItem) {
		for _, item := range items {
			if item.Amount.IsNegative() {
				issues = append(issues, shared.ValidationIssue{Field: field, Reason: "amounts must not be negative"})
				return
			}
			if item.Name == "" && item.ComponentRef == "" {
				issues = append(issues, shared.ValidationIssue{Field: field, Reason: "each item needs a name or componentRef"})
				return
			}
		}
	}
	check("oneTimeAllowances", ov.OneTimeAllowances)
	check("oneTimeDeductions", ov.OneTimeDeductions)
	return issues
}

func nonNil(diags []payroll.Diagnostic) []payroll.Diagnostic {
	if diags == nil {
		return []payroll.Diagnostic{}
	}
	return diags
}
