package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"paycalc/internal/auth"
	"paycalc/internal/domain/audit"
	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/config"
	"paycalc/internal/platform/metrics"
	"paycalc/internal/platform/taxtable"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type stubPayroll struct{}

func (stubPayroll) Preview(_ context.Context, emp payroll.Employee, period payroll.Period, _ *payroll.Overrides) (payroll.Payslip, []payroll.Diagnostic, error) {
	return payroll.Payslip{EmployeeID: emp.ID, PayPeriod: period.Label()}, nil, nil
}
func (stubPayroll) CreateRun(context.Context, payroll.Period) (payroll.PayrollRun, error) {
	return payroll.PayrollRun{}, nil
}
func (stubPayroll) GetRun(_ context.Context, runID string) (payroll.PayrollRun, error) {
	return payroll.PayrollRun{ID: runID, Status: payroll.RunStatusDraft}, nil
}
func (stubPayroll) CalculateRun(context.Context, string) (payroll.PayrollRun, []payroll.Diagnostic, error) {
	return payroll.PayrollRun{}, nil, nil
}
func (stubPayroll) SetOverrides(context.Context, string, string, payroll.Overrides) (payroll.PayrollRun, []payroll.Diagnostic, error) {
	return payroll.PayrollRun{}, nil, nil
}
func (stubPayroll) TransitionRun(context.Context, string, string, time.Time) (payroll.PayrollRun, error) {
	return payroll.PayrollRun{}, nil
}
func (stubPayroll) ListPayslips(context.Context, string) ([]payroll.Payslip, error) { return nil, nil }
func (stubPayroll) GetPayslip(context.Context, string) (payroll.Payslip, error) {
	return payroll.Payslip{}, payroll.ErrPayslipNotFound
}
func (stubPayroll) PayslipPDF(context.Context, string) ([]byte, error) {
	return nil, payroll.ErrPayslipNotFound
}
func (stubPayroll) RegisterWorkbook(context.Context, string) (*excelize.File, error) {
	return nil, payroll.ErrRunNotFound
}

func testConfig() config.Config {
	return config.Config{JWTSecret: "server-secret", MaxBodyBytes: 4096, Environment: "test"}
}

func TestHealthAndReadiness(t *testing.T) {
	router := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, DB: pinger{}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, DB: pinger{err: errors.New("down")}, Log: zerolog.Nop()})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsCountRequests(t *testing.T) {
	collector := metrics.New()
	router := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, DB: pinger{}, Metrics: collector, Log: zerolog.Nop()})

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs/run-1", nil))

	snap := collector.Snapshot()
	assert.EqualValues(t, 4, snap["requestsTotal"])
	assert.EqualValues(t, 1, snap["clientErrorsTotal"])

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requestsTotal")
}

func TestPayrollRoutesRequireToken(t *testing.T) {
	router := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, DB: pinger{}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs/run-1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.GenerateToken("server-secret", auth.Claims{UserID: "u1", Role: auth.RolePayrollViewer}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs/run-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"run-1"`)
}

func TestBodyLimitApplies(t *testing.T) {
	router := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, DB: pinger{}, Log: zerolog.Nop()})
	token, err := auth.GenerateToken("server-secret", auth.Claims{UserID: "u1", Role: auth.RolePayrollAdmin}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/preview", strings.NewReader(strings.Repeat(" ", 5000)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPolicyPrefersTable(t *testing.T) {
	cfg := testConfig()
	cfg.SSFRate = decimal.RequireFromString("0.04")
	cfg.SSFFloor = decimal.NewFromInt(1000)
	cfg.SSFCap = decimal.NewFromInt(12000)
	cfg.StandardDeduction = decimal.NewFromInt(50000)
	cfg.PersonalAllowance = decimal.NewFromInt(30000)

	got := Policy(cfg, taxtable.Table{})
	assert.True(t, got.SocialSecurityRate.Equal(decimal.RequireFromString("0.04")))
	assert.True(t, got.SocialSecurityCap.Equal(decimal.NewFromInt(12000)))

	zero := decimal.Zero
	rate := decimal.RequireFromString("0.05")
	got = Policy(cfg, taxtable.Table{Policy: &taxtable.PolicyOverlay{SocialSecurityRate: &rate, PersonalAllowance: &zero}})
	assert.True(t, got.SocialSecurityRate.Equal(rate))
	assert.True(t, got.PersonalAllowance.IsZero())
	assert.True(t, got.StandardDeduction.Equal(decimal.NewFromInt(50000)))
}

type memoryAudit struct{ events []audit.Event }

func (m *memoryAudit) Record(_ context.Context, actorID, action, entityType, entityID, requestID, ip string, _, _ any) error {
	m.events = append(m.events, audit.Event{ActorID: actorID, Action: action, EntityType: entityType, EntityID: entityID, RequestID: requestID, IP: ip})
	return nil
}

func (m *memoryAudit) Count(context.Context, audit.Filter) (int, error) { return len(m.events), nil }

func (m *memoryAudit) List(context.Context, audit.Filter, bool, int, int) ([]audit.Event, error) {
	return m.events, nil
}

func TestAuditRoutesMountedWhenConfigured(t *testing.T) {
	token, err := auth.GenerateToken("server-secret", auth.Claims{UserID: "u1", Role: auth.RolePayrollAdmin}, time.Hour)
	require.NoError(t, err)
	call := func(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	bare := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, DB: pinger{}, Log: zerolog.Nop()})
	assert.Equal(t, http.StatusNotFound, call(bare, http.MethodGet, "/api/v1/audit/events", "").Code)

	store := &memoryAudit{}
	router := NewRouter(testConfig(), Deps{Payroll: stubPayroll{}, Audit: store, DB: pinger{}, Log: zerolog.Nop()})
	require.Equal(t, http.StatusCreated, call(router, http.MethodPost, "/api/v1/payroll/runs", `{"period":{"month":5,"year":2026}}`).Code)
	require.Len(t, store.events, 1)
	assert.Equal(t, "payroll.run.create", store.events[0].Action)

	rec := call(router, http.MethodGet, "/api/v1/audit/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "payroll.run.create")
}
