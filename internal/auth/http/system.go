package http

import (
	"net/http"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
)

type healthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *healthChecks `json:"checks,omitempty"`
}

type healthChecks struct {
	Database string `json:"database"`
	Volatile string `json:"volatile"`
}

// Pinger covers the volatile backend's connectivity check. The Redis client
// satisfies it; memory stores report ready through a no-op.
type Pinger interface {
	Ping(r *http.Request) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(r *http.Request) error

func (f PingerFunc) Ping(r *http.Request) error { return f(r) }

// LivezHandler serves GET /livez. Always 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler serves GET /readyz, checking the durable store and the
// volatile backend.
func ReadyzHandler(startTime time.Time, version string, st store.Store, volatile Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{Database: "ok", Volatile: "ok"}
		status := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
		if err := volatile.Ping(r); err != nil {
			checks.Volatile = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
