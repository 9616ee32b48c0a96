package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/runcutweb/internal/models"
)

// insertChunkSize bounds the number of rows per multi-value INSERT so the
// placeholder count stays well under MySQL's prepared-statement limit.
const insertChunkSize = 500

func (s *Store) bulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	total := 0
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		valueTuple := "(" + placeholders(len(columns)) + ")"
		tuples := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			tuples[i] = valueTuple
			args = append(args, row...)
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			table, strings.Join(columns, ", "), strings.Join(tuples, ", "))

		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return total, fmt.Errorf("store: insert into %s: %w", table, err)
		}
		total += len(chunk)
	}
	return total, nil
}

// InsertRoutes bulk-writes route rows.
func (s *Store) InsertRoutes(ctx context.Context, routes []models.Route) (int, error) {
	columns := []string{"data_set_id", "route_id", "agency_id", "route_short_name",
		"route_long_name", "route_desc", "route_type", "route_url", "route_color", "route_text_color"}
	rows := make([][]any, len(routes))
	for i, r := range routes {
		rows[i] = []any{r.DataSetID, r.RouteID, nullStr(r.AgencyID), nullStr(r.RouteShortName),
			nullStr(r.RouteLongName), nullStr(r.RouteDesc), nullInt(r.RouteType),
			nullStr(r.RouteURL), nullStr(r.RouteColor), nullStr(r.RouteTextColor)}
	}
	return s.bulkInsert(ctx, "routes", columns, rows)
}

// InsertStops bulk-writes stop rows.
func (s *Store) InsertStops(ctx context.Context, stops []models.Stop) (int, error) {
	columns := []string{"data_set_id", "stop_id", "stop_code", "stop_name", "stop_desc",
		"stop_lat", "stop_lon", "zone_id", "stop_url", "location_type",
		"parent_station", "stop_timezone", "wheelchair_boarding"}
	rows := make([][]any, len(stops))
	for i, st := range stops {
		rows[i] = []any{st.DataSetID, st.StopID, nullStr(st.StopCode), nullStr(st.StopName),
			nullStr(st.StopDesc), nullFloat(st.StopLat), nullFloat(st.StopLon),
			nullStr(st.ZoneID), nullStr(st.StopURL), nullInt(st.LocationType),
			nullStr(st.ParentStation), nullStr(st.StopTimezone), nullInt(st.WheelchairBoarding)}
	}
	return s.bulkInsert(ctx, "stops", columns, rows)
}

// InsertTrips bulk-writes trip rows.
func (s *Store) InsertTrips(ctx context.Context, trips []models.Trip) (int, error) {
	columns := []string{"data_set_id", "route_id", "service_id", "trip_id", "trip_headsign",
		"trip_short_name", "direction_id", "block_id", "shape_id",
		"wheelchair_accessible", "bikes_allowed"}
	rows := make([][]any, len(trips))
	for i, t := range trips {
		rows[i] = []any{t.DataSetID, t.RouteID, t.ServiceID, t.TripID, nullStr(t.TripHeadsign),
			nullStr(t.TripShortName), nullInt(t.DirectionID), nullStr(t.BlockID),
			nullStr(t.ShapeID), nullInt(t.WheelchairAccessible), nullInt(t.BikesAllowed)}
	}
	return s.bulkInsert(ctx, "trips", columns, rows)
}

// InsertStopTimings bulk-writes one batch of stop-timing rows. The importer
// calls this once per parsed batch; each call commits independently so a
// failure loses only the batch in flight.
func (s *Store) InsertStopTimings(ctx context.Context, timings []models.StopTiming) (int, error) {
	columns := []string{"data_set_id", "trip_id", "arrival_time", "departure_time", "stop_id",
		"stop_sequence", "stop_headsign", "pickup_type", "drop_off_type",
		"shape_dist_traveled", "timepoint"}
	rows := make([][]any, len(timings))
	for i, st := range timings {
		rows[i] = []any{st.DataSetID, st.TripID, nullStr(st.ArrivalTime), nullStr(st.DepartureTime),
			st.StopID, nullInt(st.StopSequence), nullStr(st.StopHeadsign), nullInt(st.PickupType),
			nullInt(st.DropOffType), nullFloat(st.ShapeDistTraveled), nullInt(st.Timepoint)}
	}
	return s.bulkInsert(ctx, "stop_timings", columns, rows)
}

// InsertCalendarDates bulk-writes calendar-date rows. Dates arrive as
// YYYYMMDD strings and are stored as SQL DATE values.
func (s *Store) InsertCalendarDates(ctx context.Context, dates []models.CalendarDate) (int, error) {
	columns := []string{"data_set_id", "service_id", "date", "exception_type"}
	rows := make([][]any, len(dates))
	for i, cd := range dates {
		rows[i] = []any{cd.DataSetID, cd.ServiceID, yyyymmddToDate(cd.Date), cd.ExceptionType}
	}
	return s.bulkInsert(ctx, "calendar_dates", columns, rows)
}

// yyyymmddToDate reshapes 20250106 into 2025-01-06 for the DATE column.
func yyyymmddToDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}
