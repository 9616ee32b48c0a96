package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/runcutweb/internal/cache"
	"github.com/yourorg/runcutweb/internal/models"
	"github.com/yourorg/runcutweb/internal/store"
)

// ViewerHandler serves the dataset browse and edit endpoints.
type ViewerHandler struct {
	store *store.Store
}

func NewViewerHandler(st *store.Store) *ViewerHandler {
	return &ViewerHandler{store: st}
}

func (h *ViewerHandler) dataSetID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid dataset id %q", c.Params("id"))
	}
	return int64(id), nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func serverError(c *fiber.Ctx, what string, err error) error {
	log.Printf("handlers: %s: %v", what, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

// GetDataSets handles GET /api/datasets.
func (h *ViewerHandler) GetDataSets(c *fiber.Ctx) error {
	sets, err := h.store.ListDataSets(c.Context())
	if err != nil {
		return serverError(c, "list datasets", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": sets})
}

// DeleteDataSet handles DELETE /api/datasets/:id. Dependent rows go with
// the dataset via the cascading foreign keys.
func (h *ViewerHandler) DeleteDataSet(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	deleted, err := h.store.DeleteDataSet(c.Context(), id)
	if err != nil {
		return serverError(c, "delete dataset", err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Dataset %d not found", id),
		})
	}
	cache.ClearAllCaches()
	return c.JSON(fiber.Map{"success": true, "message": "Dataset deleted successfully"})
}

// GetRoutes handles GET /api/datasets/:id/routes.
func (h *ViewerHandler) GetRoutes(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	routes, err := h.store.RoutesByDataSet(c.Context(), id)
	if err != nil {
		return serverError(c, "list routes", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": routes})
}

// GetStops handles GET /api/datasets/:id/stops.
func (h *ViewerHandler) GetStops(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	stops, err := h.store.StopsByDataSet(c.Context(), id)
	if err != nil {
		return serverError(c, "list stops", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": stops})
}

// GetTrips handles GET /api/datasets/:id/trips. An optional routeId query
// narrows to one route, with further optional directionId and serviceId
// filters.
func (h *ViewerHandler) GetTrips(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	routeID := c.Query("routeId")
	var trips []models.Trip
	if routeID == "" {
		trips, err = h.store.TripsByDataSet(c.Context(), id)
	} else {
		var directionID *int
		if c.Query("directionId") != "" {
			d := c.QueryInt("directionId")
			directionID = &d
		}
		trips, err = h.store.TripsByRoute(c.Context(), id, routeID, directionID, c.Query("serviceId"))
	}
	if err != nil {
		return serverError(c, "list trips", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": trips})
}

// GetStopTimings handles GET /api/datasets/:id/stop-timings?routeId=X.
// Stop timings are only browsable per route; a dataset-wide listing could
// be hundreds of thousands of rows.
func (h *ViewerHandler) GetStopTimings(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	routeID := c.Query("routeId")
	if routeID == "" {
		return badRequest(c, "routeId query parameter is required")
	}
	timings, err := h.store.StopTimingsByRoute(c.Context(), id, routeID)
	if err != nil {
		return serverError(c, "list stop timings", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": timings})
}

// GetCalendarDates handles GET /api/datasets/:id/calendar-dates.
func (h *ViewerHandler) GetCalendarDates(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	dates, err := h.store.CalendarDatesByDataSet(c.Context(), id)
	if err != nil {
		return serverError(c, "list calendar dates", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": dates})
}

// GetServiceIDs handles GET /api/datasets/:id/service-ids?routeId=X,
// feeding the report filter dropdown. Results are cached per route.
func (h *ViewerHandler) GetServiceIDs(c *fiber.Ctx) error {
	id, err := h.dataSetID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	routeID := c.Query("routeId")
	if routeID == "" {
		return badRequest(c, "routeId query parameter is required")
	}

	key := fmt.Sprintf("services:%d:%s", id, routeID)
	if cache.ServiceIDsCache != nil {
		if v, found := cache.ServiceIDsCache.Get(key); found {
			return c.JSON(fiber.Map{"success": true, "data": v})
		}
	}

	ids, err := h.store.ServiceIDs(c.Context(), id, routeID)
	if err != nil {
		return serverError(c, "list service ids", err)
	}
	if cache.ServiceIDsCache != nil {
		cache.ServiceIDsCache.Set(key, ids)
	}
	return c.JSON(fiber.Map{"success": true, "data": ids})
}

// UpdateTrips handles PUT /api/trips with a JSON array of trip edits.
func (h *ViewerHandler) UpdateTrips(c *fiber.Ctx) error {
	var updates []models.TripUpdate
	if err := c.BodyParser(&updates); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.store.UpdateTrips(c.Context(), updates); err != nil {
		return serverError(c, "update trips", err)
	}
	h.invalidateReports()
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d trip(s) updated successfully", len(updates)),
	})
}

// UpdateStops handles PUT /api/stops.
func (h *ViewerHandler) UpdateStops(c *fiber.Ctx) error {
	var updates []models.StopUpdate
	if err := c.BodyParser(&updates); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.store.UpdateStops(c.Context(), updates); err != nil {
		return serverError(c, "update stops", err)
	}
	h.invalidateReports()
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d stop(s) updated successfully", len(updates)),
	})
}

// UpdateStopTimings handles PUT /api/stop-timings.
func (h *ViewerHandler) UpdateStopTimings(c *fiber.Ctx) error {
	var updates []models.StopTimingUpdate
	if err := c.BodyParser(&updates); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.store.UpdateStopTimings(c.Context(), updates); err != nil {
		return serverError(c, "update stop timings", err)
	}
	h.invalidateReports()
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d stop timing(s) updated successfully", len(updates)),
	})
}

// UpdateCalendarDates handles PUT /api/calendar-dates.
func (h *ViewerHandler) UpdateCalendarDates(c *fiber.Ctx) error {
	var updates []models.CalendarDateUpdate
	if err := c.BodyParser(&updates); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.store.UpdateCalendarDates(c.Context(), updates); err != nil {
		return serverError(c, "update calendar dates", err)
	}
	h.invalidateReports()
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d calendar date(s) updated successfully", len(updates)),
	})
}

// DeleteTrips handles POST /api/trips/delete with a JSON array of ids.
func (h *ViewerHandler) DeleteTrips(c *fiber.Ctx) error {
	return h.deleteRows(c, "trip", h.store.DeleteTrips)
}

// DeleteStops handles POST /api/stops/delete.
func (h *ViewerHandler) DeleteStops(c *fiber.Ctx) error {
	return h.deleteRows(c, "stop", h.store.DeleteStops)
}

// DeleteStopTimings handles POST /api/stop-timings/delete.
func (h *ViewerHandler) DeleteStopTimings(c *fiber.Ctx) error {
	return h.deleteRows(c, "stop timing", h.store.DeleteStopTimings)
}

// DeleteCalendarDates handles POST /api/calendar-dates/delete.
func (h *ViewerHandler) DeleteCalendarDates(c *fiber.Ctx) error {
	return h.deleteRows(c, "calendar date", h.store.DeleteCalendarDates)
}

func (h *ViewerHandler) deleteRows(c *fiber.Ctx, noun string, del func(ctx context.Context, ids []int64) (int64, error)) error {
	var ids []int64
	if err := c.BodyParser(&ids); err != nil {
		return badRequest(c, "Invalid request body")
	}
	n, err := del(c.Context(), ids)
	if err != nil {
		return serverError(c, "delete "+noun+"s", err)
	}
	h.invalidateReports()
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d %s(s) deleted successfully", n, noun),
	})
}

func (h *ViewerHandler) invalidateReports() {
	if cache.ReportCache != nil {
		cache.ReportCache.Clear()
	}
	if cache.ServiceIDsCache != nil {
		cache.ServiceIDsCache.Clear()
	}
}
