package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/yourorg/runcutweb/internal/debug"
	"github.com/yourorg/runcutweb/internal/models"
)

// stopTimingBatchSize bounds memory on large stop_times files; each batch
// is written and committed independently.
const stopTimingBatchSize = 1000

// Repository is the write-side surface the pipeline needs.
type Repository interface {
	FindDataSetByName(ctx context.Context, name string) (*models.DataSet, error)
	InsertDataSet(ctx context.Context, name string) (int64, error)
	InsertRoutes(ctx context.Context, routes []models.Route) (int, error)
	InsertStops(ctx context.Context, stops []models.Stop) (int, error)
	InsertTrips(ctx context.Context, trips []models.Trip) (int, error)
	InsertStopTimings(ctx context.Context, timings []models.StopTiming) (int, error)
	InsertCalendarDates(ctx context.Context, dates []models.CalendarDate) (int, error)
}

// Importer runs the CSV import pipeline against a repository.
type Importer struct {
	repo Repository
}

// New builds an importer.
func New(repo Repository) *Importer {
	return &Importer{repo: repo}
}

// Import creates one dataset and populates the dependent tables from the
// uploaded files. The import is not transactional across files: tables
// written before a failing step stay persisted and the failure is surfaced
// in the result's error list. Cancellation is checked at every repository
// call boundary so a client disconnect stops further batch writes.
func (imp *Importer) Import(ctx context.Context, req models.ImportRequest) *models.ImportResult {
	result := &models.ImportResult{ImportID: uuid.NewString()}

	name := strings.TrimSpace(req.DataSetName)
	if name == "" {
		result.Message = "Dataset name is required"
		result.Errors = append(result.Errors, "dataset name is empty")
		return result
	}

	existing, err := imp.repo.FindDataSetByName(ctx, name)
	if err != nil {
		return imp.fail(result, err)
	}
	if existing != nil {
		result.Message = fmt.Sprintf("A dataset with the name '%s' already exists. Please choose a different name.", name)
		result.Errors = append(result.Errors, fmt.Sprintf("Dataset name '%s' is already in use.", name))
		return result
	}

	dataSetID, err := imp.repo.InsertDataSet(ctx, name)
	if err != nil {
		return imp.fail(result, err)
	}
	result.DataSetID = dataSetID
	log.Printf("importer: created dataset %d (%q), import %s", dataSetID, name, result.ImportID)

	if req.Routes != nil {
		routes, skipped, err := parseRoutes(req.Routes, dataSetID)
		if err != nil {
			return imp.fail(result, err)
		}
		logSkips("routes", skipped)
		if len(routes) > 0 {
			n, err := imp.repo.InsertRoutes(ctx, routes)
			if err != nil {
				return imp.fail(result, err)
			}
			result.Statistics.RoutesImported = n
		}
		debug.ImportProgress(result.ImportID, "routes", result.Statistics.RoutesImported, true)
	}

	if req.Stops != nil {
		stops, skipped, err := parseStops(req.Stops, dataSetID)
		if err != nil {
			return imp.fail(result, err)
		}
		logSkips("stops", skipped)
		if len(stops) > 0 {
			n, err := imp.repo.InsertStops(ctx, stops)
			if err != nil {
				return imp.fail(result, err)
			}
			result.Statistics.StopsImported = n
		}
		debug.ImportProgress(result.ImportID, "stops", result.Statistics.StopsImported, true)
	}

	if req.Trips != nil {
		trips, skipped, err := parseTrips(req.Trips, dataSetID)
		if err != nil {
			return imp.fail(result, err)
		}
		logSkips("trips", skipped)
		if len(trips) > 0 {
			n, err := imp.repo.InsertTrips(ctx, trips)
			if err != nil {
				return imp.fail(result, err)
			}
			result.Statistics.TripsImported = n
		}
		debug.ImportProgress(result.ImportID, "trips", result.Statistics.TripsImported, true)
	}

	if req.StopTimings != nil {
		n, err := imp.importStopTimings(ctx, req.StopTimings, dataSetID, result.ImportID)
		if err != nil {
			result.Statistics.StopTimingsImported = n
			return imp.fail(result, err)
		}
		result.Statistics.StopTimingsImported = n
		debug.ImportProgress(result.ImportID, "stop_timings", n, true)
	}

	// Calendar dates failures do not fail the whole import; everything
	// written so far stays persisted and the problem rides along in the
	// error list.
	if req.CalendarDates != nil {
		imported, importErr := imp.importCalendarDates(ctx, req.CalendarDates, dataSetID)
		if importErr != nil {
			log.Printf("importer: calendar dates import failed: %v", importErr)
			debug.LogError("calendar dates import failed", map[string]any{"error": importErr.Error()})
			result.Errors = append(result.Errors, "Error importing calendar dates: "+importErr.Error())
		} else {
			result.Statistics.CalendarDatesImported = imported
		}
		debug.ImportProgress(result.ImportID, "calendar_dates", result.Statistics.CalendarDatesImported, true)
	}

	result.Success = true
	result.Message = "Data imported successfully"
	return result
}

func (imp *Importer) fail(result *models.ImportResult, err error) *models.ImportResult {
	log.Printf("importer: %v", err)
	result.Success = false
	result.Message = "Error importing data: " + err.Error()
	result.Errors = append(result.Errors, err.Error())
	return result
}

func logSkips(table string, skipped int) {
	if skipped > 0 {
		log.Printf("importer: %s: skipped %d malformed row(s)", table, skipped)
	}
}

func parseRoutes(r io.Reader, dataSetID int64) ([]models.Route, int, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("importer: read routes header: %w", err)
	}
	idx := headerIndex(header)

	routes := make([]models.Route, 0)
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		routes = append(routes, models.Route{
			DataSetID:      dataSetID,
			RouteID:        resolveField(record, idx, "route_id"),
			AgencyID:       resolveField(record, idx, "agency_id"),
			RouteShortName: resolveField(record, idx, "route_short_name"),
			RouteLongName:  resolveField(record, idx, "route_long_name"),
			RouteDesc:      resolveField(record, idx, "route_desc"),
			RouteType:      parseIntPtr(resolveField(record, idx, "route_type")),
			RouteURL:       resolveField(record, idx, "route_url"),
			RouteColor:     resolveField(record, idx, "route_color"),
			RouteTextColor: resolveField(record, idx, "route_text_color"),
		})
	}
	return routes, skipped, nil
}

func parseStops(r io.Reader, dataSetID int64) ([]models.Stop, int, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("importer: read stops header: %w", err)
	}
	idx := headerIndex(header)

	stops := make([]models.Stop, 0)
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		stops = append(stops, models.Stop{
			DataSetID:          dataSetID,
			StopID:             resolveField(record, idx, "stop_id"),
			StopCode:           resolveField(record, idx, "stop_code"),
			StopName:           resolveField(record, idx, "stop_name"),
			StopDesc:           resolveField(record, idx, "stop_desc"),
			StopLat:            parseFloatPtr(resolveField(record, idx, "stop_lat")),
			StopLon:            parseFloatPtr(resolveField(record, idx, "stop_lon")),
			ZoneID:             resolveField(record, idx, "zone_id"),
			StopURL:            resolveField(record, idx, "stop_url"),
			LocationType:       parseIntPtr(resolveField(record, idx, "location_type")),
			ParentStation:      resolveField(record, idx, "parent_station"),
			StopTimezone:       resolveField(record, idx, "stop_timezone"),
			WheelchairBoarding: parseIntPtr(resolveField(record, idx, "wheelchair_boarding")),
		})
	}
	return stops, skipped, nil
}

func parseTrips(r io.Reader, dataSetID int64) ([]models.Trip, int, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("importer: read trips header: %w", err)
	}
	idx := headerIndex(header)

	trips := make([]models.Trip, 0)
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		trips = append(trips, models.Trip{
			DataSetID:            dataSetID,
			RouteID:              resolveField(record, idx, "route_id"),
			ServiceID:            resolveField(record, idx, "service_id"),
			TripID:               resolveField(record, idx, "trip_id"),
			TripHeadsign:         resolveField(record, idx, "trip_headsign"),
			TripShortName:        resolveField(record, idx, "trip_short_name"),
			DirectionID:          parseIntPtr(resolveField(record, idx, "direction_id")),
			BlockID:              resolveField(record, idx, "block_id"),
			ShapeID:              resolveField(record, idx, "shape_id"),
			WheelchairAccessible: parseIntPtr(resolveField(record, idx, "wheelchair_accessible")),
			BikesAllowed:         parseIntPtr(resolveField(record, idx, "bikes_allowed")),
		})
	}
	return trips, skipped, nil
}

// importStopTimings streams stop_times rows in fixed-size batches. A
// malformed row is logged and skipped; it never aborts the batch. Each full
// batch is written before the next is accumulated, so a mid-file failure
// keeps every batch committed so far.
func (imp *Importer) importStopTimings(ctx context.Context, r io.Reader, dataSetID int64, importID string) (int, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("importer: read stop_times header: %w", err)
	}
	idx := headerIndex(header)

	batch := make([]models.StopTiming, 0, stopTimingBatchSize)
	total := 0
	skipped := 0
	lineNum := 1

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("importer: stop timings import cancelled: %w", err)
		}
		n, err := imp.repo.InsertStopTimings(ctx, batch)
		if err != nil {
			return err
		}
		total += n
		log.Printf("importer: imported batch of %d stop timings, total: %d", n, total)
		debug.ImportProgress(importID, "stop_timings", total, false)
		batch = batch[:0]
		return nil
	}

	for {
		lineNum++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			if skipped <= 20 {
				log.Printf("importer: stop_times line %d: skipping malformed row: %v", lineNum, err)
			}
			continue
		}

		batch = append(batch, models.StopTiming{
			DataSetID:         dataSetID,
			TripID:            resolveField(record, idx, "trip_id"),
			ArrivalTime:       resolveField(record, idx, "arrival_time"),
			DepartureTime:     resolveField(record, idx, "departure_time"),
			StopID:            resolveField(record, idx, "stop_id"),
			StopSequence:      parseIntPtr(resolveField(record, idx, "stop_sequence")),
			StopHeadsign:      resolveField(record, idx, "stop_headsign"),
			PickupType:        parseIntPtr(resolveField(record, idx, "pickup_type")),
			DropOffType:       parseIntPtr(resolveField(record, idx, "drop_off_type")),
			ShapeDistTraveled: parseFloatPtr(resolveField(record, idx, "shape_dist_traveled")),
			Timepoint:         parseIntPtr(resolveField(record, idx, "timepoint")),
		})

		if len(batch) >= stopTimingBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	log.Printf("importer: stop timings import complete: %d imported, %d skipped", total, skipped)
	return total, nil
}

// importCalendarDates parses and writes calendar_dates rows. Rows with a
// blank service id, blank date, or unparsable date are skipped with a
// warning; a file that yields zero rows from a non-empty body is an error.
func (imp *Importer) importCalendarDates(ctx context.Context, r io.Reader, dataSetID int64) (int, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read calendar_dates header: %w", err)
	}
	idx := headerIndex(header)

	dates := make([]models.CalendarDate, 0)
	recordCount := 0
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		recordCount++
		if err != nil {
			skipped++
			continue
		}

		serviceID := strings.TrimSpace(resolveField(record, idx, "service_id"))
		if serviceID == "" {
			skipped++
			if skipped <= 5 {
				log.Printf("importer: calendar_dates record %d: skipping, service_id is empty", recordCount)
			}
			continue
		}
		dateValue := strings.TrimSpace(resolveField(record, idx, "date"))
		date := parseDate(dateValue)
		if date == "" {
			skipped++
			if skipped <= 5 {
				log.Printf("importer: calendar_dates record %d: skipping, could not parse date %q for service %s", recordCount, dateValue, serviceID)
			}
			continue
		}
		exceptionType := models.ServiceExceptionAdded
		if p := parseIntPtr(resolveField(record, idx, "exception_type")); p != nil {
			exceptionType = *p
		}

		dates = append(dates, models.CalendarDate{
			DataSetID:     dataSetID,
			ServiceID:     serviceID,
			Date:          date,
			ExceptionType: exceptionType,
		})
	}

	log.Printf("importer: calendar dates parsing complete: %d records, %d valid, %d skipped", recordCount, len(dates), skipped)
	if len(dates) == 0 {
		if recordCount > 0 {
			return 0, errors.New("no calendar dates were parsed from the CSV file, check the file format and column names")
		}
		return 0, nil
	}
	return imp.repo.InsertCalendarDates(ctx, dates)
}
