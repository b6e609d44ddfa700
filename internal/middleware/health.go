package middleware

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a ping function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return f(ctx)
}

// ReadyStatus represents the readiness status
type ReadyStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler answers liveness with a fixed body.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}

// ReadinessHandler runs every checker and answers 503 if any fails.
// Failure messages stay generic; details go to the log.
func ReadinessHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		ready := ReadyStatus{
			Status:    "OK",
			Timestamp: time.Now().UTC(),
			Checks:    make(map[string]CheckStatus, len(checkers)),
		}
		for name, checker := range checkers {
			if err := checker.Check(ctx); err != nil {
				ready.Status = "UNAVAILABLE"
				ready.Checks[name] = CheckStatus{Status: "down", Message: "check failed"}
				continue
			}
			ready.Checks[name] = CheckStatus{Status: "up"}
		}

		statusCode := http.StatusOK
		if ready.Status != "OK" {
			statusCode = http.StatusServiceUnavailable
		}
		WriteJSON(w, statusCode, ready)
	}
}
