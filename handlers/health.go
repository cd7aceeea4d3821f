package handlers

import (
	"net/http"
	"time"

	"github.com/upb/gateway-authorizer/app"
	"github.com/upb/gateway-authorizer/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	KeyCount  int               `json:"keyCount,omitempty"`
}

// HealthCheck returns a simple liveness handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil && deps.Logger != nil {
			deps.Logger.Error("failed to write health response", zap.Error(err))
		}
	}
}

// ReadinessCheck reports ready once a non-empty signing key set is loaded
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    map[string]string{},
			KeyCount:  deps.KeyCount(),
		}

		if response.KeyCount == 0 {
			response.Status = "not_ready"
			response.Checks["signing_keys"] = "not_loaded"
		} else {
			response.Checks["signing_keys"] = "loaded"
		}

		if deps.Directory == nil {
			response.Checks["directory"] = "disabled"
		} else {
			response.Checks["directory"] = "configured"
		}

		status := http.StatusOK
		if response.Status != "ready" {
			status = http.StatusServiceUnavailable
		}

		if err := utils.WriteJSON(w, status, response); err != nil && deps.Logger != nil {
			deps.Logger.Error("failed to write readiness response", zap.Error(err))
		}
	}
}
