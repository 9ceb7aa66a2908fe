package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks. Readiness also
// requires the main loop to have reported activity within the stale window.
type HealthChecker struct {
	startTime  time.Time
	ready      atomic.Bool
	lastBeat   atomic.Int64 // unix nanos, 0 until the first Beat
	staleAfter atomic.Int64 // nanos, 0 disables the staleness check
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetStaleAfter makes readiness fail when no Beat arrives within d.
func (h *HealthChecker) SetStaleAfter(d time.Duration) {
	h.staleAfter.Store(int64(d))
}

// Beat records loop activity.
func (h *HealthChecker) Beat() {
	h.lastBeat.Store(time.Now().UnixNano())
}

// LastBeat returns the time of the last Beat, or the zero time.
func (h *HealthChecker) LastBeat() time.Time {
	nanos := h.lastBeat.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (h *HealthChecker) stale(now time.Time) bool {
	window := time.Duration(h.staleAfter.Load())
	if window <= 0 {
		return false
	}

	last := h.LastBeat()
	if last.IsZero() {
		// Not stale until the loop has had a full window to report.
		return now.Sub(h.startTime) > window
	}
	return now.Sub(last) > window
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	LastBeat string `json:"last_beat,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (h *HealthChecker) response(status string) HealthResponse {
	resp := HealthResponse{
		Status: status,
		Uptime: time.Since(h.startTime).String(),
	}
	if last := h.LastBeat(); !last.IsZero() {
		resp.LastBeat = last.UTC().Format(time.RFC3339)
	}
	return resp
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.response("healthy"))
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not ready or stalled.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			resp := h.response("not_ready")
			resp.Message = "application is starting"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		if h.stale(time.Now()) {
			resp := h.response("stalled")
			resp.Message = "main loop has not reported within " + time.Duration(h.staleAfter.Load()).String()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		writeJSON(w, http.StatusOK, h.response("ready"))
	}
}

func writeJSON(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
