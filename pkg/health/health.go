// Package health provides readiness tracking and HTTP health handlers.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Checker tracks service readiness. It is safe for concurrent use.
type Checker struct {
	ready atomic.Bool
}

// NewChecker creates a Checker in the not-ready state.
func NewChecker() *Checker {
	return &Checker{}
}

// SetReady marks the service ready to accept traffic.
func (c *Checker) SetReady() {
	c.ready.Store(true)
}

// SetDraining marks the service as shutting down.
func (c *Checker) SetDraining() {
	c.ready.Store(false)
}

// LivenessHandler always responds 200 OK; use for /healthz.
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	}
}

// ReadinessHandler responds 200 when ready and 503 otherwise; use for
// /readyz.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if c.ready.Load() {
			writeStatus(w, http.StatusOK, "ready")
			return
		}
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
