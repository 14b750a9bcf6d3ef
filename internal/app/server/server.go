package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"paycalc/internal/domain/audit"
	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/config"
	cryptoutil "paycalc/internal/platform/crypto"
	"paycalc/internal/platform/db"
	"paycalc/internal/platform/logger"
	"paycalc/internal/platform/metrics"
	"paycalc/internal/platform/taxtable"
	"paycalc/internal/transport/http/api"
	audithandler "paycalc/internal/transport/http/handlers/audit"
	payrollhandler "paycalc/internal/transport/http/handlers/payroll"
	"paycalc/internal/transport/http/middleware"
)

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditStore both records payroll mutations and serves the audit endpoints.
type AuditStore interface {
	payrollhandler.Auditor
	audithandler.Store
}

// Deps are the collaborators the router needs. Keeping them explicit lets
// tests build a router without a database.
type Deps struct {
	Payroll payrollhandler.Service
	Audit   AuditStore
	DB      Pinger
	Metrics *metrics.Collector
	Log     zerolog.Logger
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.Log, deps.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		var auditor payrollhandler.Auditor
		if deps.Audit != nil {
			auditor = deps.Audit
			audithandler.NewHandler(deps.Audit, logger.WithComponent("audit_http")).RegisterRoutes(r)
		}
		payrollhandler.NewHandler(deps.Payroll, auditor, logger.WithComponent("payroll_http")).RegisterRoutes(r)
	})

	return router
}

// Policy builds the statutory policy from configuration. Keys present in the
// tax table's policy block take precedence.
func Policy(cfg config.Config, table taxtable.Table) payroll.Policy {
	return table.Policy.Apply(payroll.Policy{
		SocialSecurityRate:  cfg.SSFRate,
		SocialSecurityFloor: cfg.SSFFloor,
		SocialSecurityCap:   cfg.SSFCap,
		StandardDeduction:   cfg.StandardDeduction,
		PersonalAllowance:   cfg.PersonalAllowance,
	})
}

func loadTable(cfg config.Config) (taxtable.Table, error) {
	if cfg.TaxTableFile == "" {
		return taxtable.Default(), nil
	}
	return taxtable.LoadFile(cfg.TaxTableFile)
}

// Run wires the service from the environment and serves until SIGINT or
// SIGTERM.
func Run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption key: %w", err)
	}
	if !crypto.Configured() {
		log.Warn().Msg("DATA_ENCRYPTION_KEY not set; payslip identifiers are stored in plaintext")
	}

	table, err := loadTable(cfg)
	if err != nil {
		return fmt.Errorf("tax table: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir, logger.WithComponent("migrate")); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, table); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
	}

	collector := metrics.New()
	engine := payroll.NewEngine(Policy(cfg, table), cfg.PayrollWorkers)
	service := payroll.NewService(payroll.NewStore(pool, crypto), engine, logger.WithComponent("payroll"), collector)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, Deps{Payroll: service, Audit: audit.New(pool), DB: pool, Metrics: collector, Log: log}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("table", table.Name).Msg("paycalc server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
