package http

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// HealthChecker defines the interface for health check dependencies
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Ping(ctx context.Context) error { return f(ctx) }

// SnapshotReporter exposes the loaded snapshot, if any.
type SnapshotReporter interface {
	Current() (*domain.Snapshot, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	snapshots SnapshotReporter
	deps      map[string]HealthChecker
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. deps are optional named
// backends (database, cache) that must answer a ping for readiness.
func NewHealthHandler(snapshots SnapshotReporter, deps map[string]HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		snapshots: snapshots,
		deps:      deps,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string               `json:"status"`
	Timestamp string               `json:"timestamp"`
	Version   string               `json:"version,omitempty"`
	Uptime    string               `json:"uptime,omitempty"`
	Snapshot  *domain.SnapshotInfo `json:"snapshot,omitempty"`
	Checks    map[string]Check     `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness handles liveness probe requests (is the service running?)
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness reports whether the service can answer analytics
// queries: a snapshot is loaded and every dependency answers.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response, ok := h.check(ctx)
	statusCode := http.StatusOK
	if !ok {
		response.Status = statusUnhealthy
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}

// HandleHealth handles detailed health check requests (for monitoring/debugging)
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	base, ok := h.check(ctx)
	statusCode := http.StatusOK
	if !ok {
		base.Status = statusDegraded
		statusCode = http.StatusServiceUnavailable
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := struct {
		HealthResponse
		Memory struct {
			Alloc      uint64 `json:"alloc_bytes"`
			TotalAlloc uint64 `json:"total_alloc_bytes"`
			Sys        uint64 `json:"sys_bytes"`
			NumGC      uint32 `json:"num_gc"`
		} `json:"memory"`
		Goroutines int `json:"goroutines"`
	}{
		HealthResponse: base,
		Goroutines:     runtime.NumGoroutine(),
	}
	response.Memory.Alloc = memStats.Alloc
	response.Memory.TotalAlloc = memStats.TotalAlloc
	response.Memory.Sys = memStats.Sys
	response.Memory.NumGC = memStats.NumGC

	WriteJSON(w, statusCode, response)
}

// check runs the snapshot and dependency checks.
func (h *HealthHandler) check(ctx context.Context) (HealthResponse, bool) {
	checks := make(map[string]Check, len(h.deps)+1)
	ok := true

	response := HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	}

	if snap, err := h.snapshots.Current(); err != nil {
		checks["snapshot"] = Check{Status: statusUnhealthy, Message: err.Error()}
		ok = false
	} else {
		info := snap.Info()
		response.Snapshot = &info
		checks["snapshot"] = Check{Status: statusHealthy}
	}

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := ping(ctx, h.deps[name])
		checks[name] = c
		if c.Status != statusHealthy {
			ok = false
		}
	}
	return response, ok
}

func ping(ctx context.Context, dep HealthChecker) Check {
	start := time.Now()
	err := dep.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  statusUnhealthy,
			Message: err.Error(),
			Latency: latency.String(),
		}
	}
	return Check{
		Status:  statusHealthy,
		Latency: latency.String(),
	}
}
