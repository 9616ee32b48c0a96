package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/runcutweb/internal/cache"
	"github.com/yourorg/runcutweb/internal/models"
	"github.com/yourorg/runcutweb/internal/runcut"
)

// ReportHandler serves run-cut generation and the filtered export.
type ReportHandler struct {
	generator *runcut.Generator
	projector *runcut.Projector
}

func NewReportHandler(gen *runcut.Generator, proj *runcut.Projector) *ReportHandler {
	return &ReportHandler{generator: gen, projector: proj}
}

// GenerateRunCut handles GET /api/datasets/:id/runcut. Query parameters:
// routeId (required), directionId, serviceId, includeWeekdays,
// includeSaturday, includeSundaysAndHolidays (default true), groupByDate,
// oneRowPerTrip (default false). Any pipeline failure aborts the request;
// no partial matrix is ever returned.
func (h *ReportHandler) GenerateRunCut(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, fmt.Sprintf("invalid dataset id %q", c.Params("id")))
	}
	routeID := c.Query("routeId")
	if routeID == "" {
		return badRequest(c, "routeId query parameter is required")
	}

	opts := models.DefaultRunCutOptions(routeID)
	opts.ServiceID = c.Query("serviceId")
	if c.Query("directionId") != "" {
		d := c.QueryInt("directionId")
		opts.DirectionID = &d
	}
	opts.IncludeWeekdays = c.QueryBool("includeWeekdays", true)
	opts.IncludeSaturday = c.QueryBool("includeSaturday", true)
	opts.IncludeSundaysAndHolidays = c.QueryBool("includeSundaysAndHolidays", true)
	opts.GroupByDate = c.QueryBool("groupByDate", false)
	opts.OneRowPerTrip = c.QueryBool("oneRowPerTrip", false)

	key := reportCacheKey(int64(id), opts)
	if cache.ReportCache != nil {
		if v, found := cache.ReportCache.Get(key); found {
			return c.JSON(v)
		}
	}

	result, err := h.generator.Generate(c.Context(), int64(id), opts)
	if err != nil {
		log.Printf("handlers: run-cut generation: %v", err)
		return c.JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	payload := fiber.Map{
		"success":   true,
		"stopNames": result.StopNames,
		"rows":      result.Rows,
		"data":      result.Data,
	}
	if cache.ReportCache != nil {
		cache.ReportCache.Set(key, payload)
	}
	return c.JSON(payload)
}

// GetFilteredExport handles GET /api/datasets/:id/export. Query
// parameters: routeId (required), serviceId (optional).
func (h *ReportHandler) GetFilteredExport(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, fmt.Sprintf("invalid dataset id %q", c.Params("id")))
	}
	routeID := c.Query("routeId")
	if routeID == "" {
		return badRequest(c, "routeId query parameter is required")
	}

	export, err := h.projector.Project(c.Context(), int64(id), routeID, c.Query("serviceId"))
	if err != nil {
		log.Printf("handlers: filtered export: %v", err)
		return c.JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"stopNames": export.StopNames,
		"tripIds":   export.TripIDs,
		"matrix":    export.Matrix,
	})
}

func reportCacheKey(dataSetID int64, opts models.RunCutOptions) string {
	dir := "any"
	if opts.DirectionID != nil {
		dir = fmt.Sprintf("%d", *opts.DirectionID)
	}
	return fmt.Sprintf("report:%d:%s:%s:%s:%t%t%t%t%t",
		dataSetID, opts.RouteID, dir, opts.ServiceID,
		opts.IncludeWeekdays, opts.IncludeSaturday, opts.IncludeSundaysAndHolidays,
		opts.GroupByDate, opts.OneRowPerTrip)
}
