package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	totalDurationMs uint64

	runsCalculated uint64
	payslipsIssued uint64
	diagnostics    uint64
	runDurationMs  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	} else if status >= 400 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordRun counts one payroll run calculation.
func (c *Collector) RecordRun(employees, diagnostics int, duration time.Duration) {
	atomic.AddUint64(&c.runsCalculated, 1)
	atomic.AddUint64(&c.payslipsIssued, uint64(employees))
	atomic.AddUint64(&c.diagnostics, uint64(diagnostics))
	atomic.AddUint64(&c.runDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":             total,
		"errorsTotal":               atomic.LoadUint64(&c.errorRequests),
		"clientErrorsTotal":         atomic.LoadUint64(&c.clientErrors),
		"avgDurationMs":             avg,
		"totalDurationMs":           totalMs,
		"payrollRunsCalculated":     atomic.LoadUint64(&c.runsCalculated),
		"payslipsIssued":            atomic.LoadUint64(&c.payslipsIssued),
		"payrollDiagnostics":        atomic.LoadUint64(&c.diagnostics),
		"payrollRunDurationMsTotal": atomic.LoadUint64(&c.runDurationMs),
	}
}
