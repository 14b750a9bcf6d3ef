package audithandler

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paycalc/internal/auth"
	"paycalc/internal/domain/audit"
	"paycalc/internal/transport/http/middleware"
)

const secret = "audit-secret"

type fakeStore struct {
	events    []audit.Event
	gotFilter audit.Filter
	gotLimit  int
	gotOffset int
	err       error
}

func (f *fakeStore) Count(_ context.Context, _ audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeStore) List(_ context.Context, filter audit.Filter, _ bool, limit, offset int) ([]audit.Event, error) {
	f.gotFilter, f.gotLimit, f.gotOffset = filter, limit, offset
	return f.events, f.err
}

func router(store Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Auth(secret))
	NewHandler(store, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Role: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleEvents() []audit.Event {
	return []audit.Event{{
		ID: "7", ActorID: "u1", Action: "payroll.run.status", EntityType: "payroll_run", EntityID: "run-1",
		RequestID: "req-1", IP: "10.0.0.1", CreatedAt: time.Date(2026, 3, 28, 9, 0, 0, 0, time.UTC),
	}}
}

func TestListEventsFiltersAndPaginates(t *testing.T) {
	store := &fakeStore{events: sampleEvents()}

	rec := get(t, router(store), "/audit/events?entityType=payroll_run&entityId=run-1&limit=10&offset=5", auth.RolePayrollAdmin)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, audit.Filter{EntityType: "payroll_run", EntityID: "run-1"}, store.gotFilter)
	assert.Equal(t, 10, store.gotLimit)
	assert.Equal(t, 5, store.gotOffset)
	assert.Contains(t, rec.Body.String(), `"action":"payroll.run.status"`)
}

func TestListEventsRequiresAdmin(t *testing.T) {
	store := &fakeStore{}
	assert.Equal(t, http.StatusUnauthorized, get(t, router(store), "/audit/events", "").Code)
	assert.Equal(t, http.StatusForbidden, get(t, router(store), "/audit/events", auth.RolePayrollViewer).Code)
}

func TestListEventsStoreFailure(t *testing.T) {
	rec := get(t, router(&fakeStore{err: errors.New("down")}), "/audit/events", auth.RolePayrollAdmin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExportEventsCSV(t *testing.T) {
	rec := get(t, router(&fakeStore{events: sampleEvents()}), "/audit/events/export", auth.RolePayrollAdmin)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"7", "u1", "payroll.run.status", "payroll_run", "run-1", "req-1", "10.0.0.1", "2026-03-28T09:00:00Z"}, rows[1])
}
