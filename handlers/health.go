package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/pyq-analyzer/database"
	"github.com/sahilchouksey/pyq-analyzer/utils/response"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is an optional dependency checked by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the service and its stores are reachable
type HealthHandler struct {
	store database.Storage
	cache Pinger
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(store database.Storage, cache Pinger) *HealthHandler {
	return &HealthHandler{store: store, cache: cache}
}

// HandleCheckHealth handles GET /ping. A failing dependency turns the
// response into a 503 listing every check.
func (h *HealthHandler) HandleCheckHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	checks := fiber.Map{"database": "ok"}
	healthy := true

	if err := h.store.HealthCheck(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		return response.ServiceUnavailable(c, "One or more dependencies are unavailable", checks)
	}
	return response.Success(c, fiber.Map{
		"status": "ok",
		"checks": checks,
	})
}
