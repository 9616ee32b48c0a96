package handlers

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/runcutweb/internal/cache"
)

// HealthResponse reports overall system health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// HealthHandler runs the health checks.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: Database
	// ============================================================================
	if h.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// CHECK: Schedule data
	// ============================================================================
	if h.db != nil && services["database"] == "healthy" {
		var count int
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM data_sets").Scan(&count)
		if err != nil {
			services["schedule_data"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else if count == 0 {
			services["schedule_data"] = "empty"
		} else {
			services["schedule_data"] = "healthy"
		}
	}

	// ============================================================================
	// CHECK: Caches
	// ============================================================================
	if cache.ReportCache != nil {
		services["cache"] = "healthy"
	} else {
		services["cache"] = "not_initialized"
	}

	status := fiber.StatusOK
	if overall != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}
