// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its probe.
type Checks map[string]CheckFunc

// Report is the JSON body of a probe response.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Run executes all checks concurrently within timeout. Each entry in the
// report is either "healthy" or the check's error text.
func Run(ctx context.Context, checks Checks, timeout time.Duration, log *slog.Logger) Report {
	report := Report{Status: StatusHealthy}
	if len(checks) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	report.Checks = make(map[string]string, len(checks))

	for name, check := range checks {
		g.Go(func() error {
			result := StatusHealthy
			if err := check(ctx); err != nil {
				result = err.Error()
				if log != nil {
					log.WarnContext(ctx, "health check failed", slog.String("check", name), slog.String("error", result))
				}
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = result
			if result != StatusHealthy {
				report.Status = StatusUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()

	return report
}

// Liveness always reports healthy while the process serves requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, Report{Status: StatusHealthy})
	}
}

// Readiness reports 503 when any check fails.
func Readiness(checks Checks, timeout time.Duration, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeReport(w, Run(r.Context(), checks, timeout, log))
	}
}

func writeReport(w http.ResponseWriter, report Report) {
	status := http.StatusOK
	if report.Status != StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
