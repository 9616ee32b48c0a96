package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/runcutweb/internal/cache"
	"github.com/yourorg/runcutweb/internal/store"
)

// DiagnosticsHandler reports database contents for troubleshooting empty
// reports (wrong dataset, zero stop timings, missing calendar dates).
type DiagnosticsHandler struct {
	store *store.Store
}

func NewDiagnosticsHandler(st *store.Store) *DiagnosticsHandler {
	return &DiagnosticsHandler{store: st}
}

// CheckDatabase handles GET /api/diagnostics. Returns overall table
// counts, per-dataset row counts, and cache statistics.
func (h *DiagnosticsHandler) CheckDatabase(c *fiber.Ctx) error {
	ctx := c.Context()

	tables, err := h.store.TableCounts(ctx)
	if err != nil {
		return serverError(c, "table counts", err)
	}

	sets, err := h.store.ListDataSets(ctx)
	if err != nil {
		return serverError(c, "list datasets", err)
	}

	perDataSet := make([]fiber.Map, 0, len(sets))
	notes := make([]string, 0)
	for _, ds := range sets {
		counts, err := h.store.DataSetCounts(ctx, ds.ID)
		if err != nil {
			return serverError(c, "dataset counts", err)
		}
		perDataSet = append(perDataSet, fiber.Map{
			"id":           ds.ID,
			"name":         ds.Name,
			"created_date": ds.CreatedDate,
			"counts":       counts,
		})
		for _, table := range []string{"routes", "stops", "trips", "stop_timings", "calendar_dates"} {
			if counts[table] == 0 {
				notes = append(notes, fmt.Sprintf("Dataset %d (%s) has no %s; reports for it will be empty or missing dates", ds.ID, ds.Name, table))
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"tables":    tables,
			"data_sets": perDataSet,
			"notes":     notes,
			"caches":    cache.GetAllCacheStats(),
		},
	})
}
