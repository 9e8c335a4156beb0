package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hango1705/bongland-backend/internal/api/response"
	"github.com/rs/zerolog/log"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck 回傳 nil 代表依賴正常
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	result := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			result[name] = "down"
			healthy = false
			continue
		}
		result[name] = "up"
	}

	if !healthy {
		response.WriteJSON(w, http.StatusServiceUnavailable, response.Response{
			Status:  response.StatusERR,
			Message: "Service unavailable",
			Data:    result,
		})
		return
	}
	response.SuccessJSON(w, result, "OK")
}
