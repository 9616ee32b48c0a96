package routes

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/yourorg/runcutweb/internal/debug"
	"github.com/yourorg/runcutweb/internal/handlers"
	"github.com/yourorg/runcutweb/internal/importer"
	"github.com/yourorg/runcutweb/internal/middleware"
	"github.com/yourorg/runcutweb/internal/runcut"
	"github.com/yourorg/runcutweb/internal/store"
)

// Register wires every endpoint onto the app.
func Register(app *fiber.App, db *sql.DB) {
	st := store.New(db)
	imp := importer.New(st)
	gen := runcut.NewGenerator(st)
	proj := runcut.NewProjector(st)

	importHandler := handlers.NewImportHandler(imp)
	viewerHandler := handlers.NewViewerHandler(st)
	reportHandler := handlers.NewReportHandler(gen, proj)
	healthHandler := handlers.NewHealthHandler(db)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(st)

	api := app.Group("/api")

	// Health check (no rate limiting)
	api.Get("/health", healthHandler.Health)

	api.Use(middleware.APIRateLimiter())

	// ============================================================================
	// IMPORT (strict rate limiting, heavy multi-table writes)
	// ============================================================================
	api.Post("/datasets/import", middleware.ImportRateLimiter(), importHandler.ImportData)

	// ============================================================================
	// DATASET VIEWER
	// ============================================================================
	api.Get("/datasets", viewerHandler.GetDataSets)
	api.Delete("/datasets/:id", viewerHandler.DeleteDataSet)
	api.Get("/datasets/:id/routes", viewerHandler.GetRoutes)
	api.Get("/datasets/:id/stops", viewerHandler.GetStops)
	api.Get("/datasets/:id/trips", viewerHandler.GetTrips)
	api.Get("/datasets/:id/stop-timings", viewerHandler.GetStopTimings)
	api.Get("/datasets/:id/calendar-dates", viewerHandler.GetCalendarDates)
	api.Get("/datasets/:id/service-ids", viewerHandler.GetServiceIDs)

	// Row edits, batched by entity
	api.Put("/trips", viewerHandler.UpdateTrips)
	api.Put("/stops", viewerHandler.UpdateStops)
	api.Put("/stop-timings", viewerHandler.UpdateStopTimings)
	api.Put("/calendar-dates", viewerHandler.UpdateCalendarDates)
	api.Post("/trips/delete", viewerHandler.DeleteTrips)
	api.Post("/stops/delete", viewerHandler.DeleteStops)
	api.Post("/stop-timings/delete", viewerHandler.DeleteStopTimings)
	api.Post("/calendar-dates/delete", viewerHandler.DeleteCalendarDates)

	// ============================================================================
	// REPORTS
	// ============================================================================
	api.Get("/datasets/:id/runcut", reportHandler.GenerateRunCut)
	api.Get("/datasets/:id/export", reportHandler.GetFilteredExport)

	// ============================================================================
	// DIAGNOSTICS
	// ============================================================================
	api.Get("/diagnostics", diagnosticsHandler.CheckDatabase)

	// ============================================================================
	// WEBSOCKET (import progress feed for the debug dashboard)
	// ============================================================================
	if debug.IsEnabled() {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/imports", websocket.New(debug.HandleWebSocketFiber))
	}
}
