package handlers

import (
	"io"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/runcutweb/internal/cache"
	"github.com/yourorg/runcutweb/internal/importer"
	"github.com/yourorg/runcutweb/internal/models"
)

// ImportHandler receives multipart dataset uploads and runs them through
// the import pipeline.
type ImportHandler struct {
	importer *importer.Importer
}

func NewImportHandler(imp *importer.Importer) *ImportHandler {
	return &ImportHandler{importer: imp}
}

// ImportData handles POST /api/datasets/import. Expects a multipart form
// with a dataSetName field and up to five optional CSV files: routesFile,
// stopsFile, tripsFile, stopTimingsFile, calendarDatesFile. A missing file
// contributes zero rows and is not an error.
func (h *ImportHandler) ImportData(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid multipart form: " + err.Error(),
		})
	}

	req := models.ImportRequest{DataSetName: c.FormValue("dataSetName")}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	open := func(field string) (io.Reader, error) {
		files := form.File[field]
		if len(files) == 0 {
			return nil, nil
		}
		f, err := files[0].Open()
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		return f, nil
	}

	fields := []struct {
		name string
		dst  *io.Reader
	}{
		{"routesFile", &req.Routes},
		{"stopsFile", &req.Stops},
		{"tripsFile", &req.Trips},
		{"stopTimingsFile", &req.StopTimings},
		{"calendarDatesFile", &req.CalendarDates},
	}
	for _, f := range fields {
		r, err := open(f.name)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Could not read uploaded file " + f.name + ": " + err.Error(),
			})
		}
		*f.dst = r
	}

	result := h.importer.Import(c.Context(), req)
	if result.Success {
		// New data invalidates anything cached from earlier datasets
		cache.ClearAllCaches()
	} else {
		log.Printf("handlers: import failed: %s", result.Message)
	}
	return c.JSON(result)
}
