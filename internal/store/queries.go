package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/yourorg/runcutweb/internal/models"
)

const routeColumns = `id, data_set_id, route_id, agency_id, route_short_name,
	route_long_name, route_desc, route_type, route_url, route_color, route_text_color`

func scanRoute(rows interface{ Scan(...any) error }) (models.Route, error) {
	var r models.Route
	var agency, short, long, desc, url, color, textColor sql.NullString
	var routeType sql.NullInt64
	err := rows.Scan(&r.ID, &r.DataSetID, &r.RouteID, &agency, &short, &long, &desc,
		&routeType, &url, &color, &textColor)
	if err != nil {
		return r, err
	}
	r.AgencyID = strOf(agency)
	r.RouteShortName = strOf(short)
	r.RouteLongName = strOf(long)
	r.RouteDesc = strOf(desc)
	r.RouteType = intPtrOf(routeType)
	r.RouteURL = strOf(url)
	r.RouteColor = strOf(color)
	r.RouteTextColor = strOf(textColor)
	return r, nil
}

// RoutesByDataSet returns all routes for a dataset ordered by route_id.
func (s *Store) RoutesByDataSet(ctx context.Context, dataSetID int64) ([]models.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE data_set_id = ? ORDER BY route_id", dataSetID)
	if err != nil {
		return nil, fmt.Errorf("store: routes by dataset: %w", err)
	}
	defer rows.Close()

	routes := make([]models.Route, 0)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

// RouteByID finds one route by its GTFS id within a dataset. Returns
// (nil, nil) when the route record is missing; report rows then fall back
// to the trip's raw route id.
func (s *Store) RouteByID(ctx context.Context, dataSetID int64, routeID string) (*models.Route, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE data_set_id = ? AND route_id = ? LIMIT 1",
		dataSetID, routeID)
	r, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: route by id: %w", err)
	}
	return &r, nil
}

const stopColumns = `id, data_set_id, stop_id, stop_code, stop_name, stop_desc,
	stop_lat, stop_lon, zone_id, stop_url, location_type, parent_station,
	stop_timezone, wheelchair_boarding`

func scanStop(rows interface{ Scan(...any) error }) (models.Stop, error) {
	var st models.Stop
	var code, name, desc, zone, url, parent, tz sql.NullString
	var lat, lon sql.NullFloat64
	var locType, wheelchair sql.NullInt64
	err := rows.Scan(&st.ID, &st.DataSetID, &st.StopID, &code, &name, &desc,
		&lat, &lon, &zone, &url, &locType, &parent, &tz, &wheelchair)
	if err != nil {
		return st, err
	}
	st.StopCode = strOf(code)
	st.StopName = strOf(name)
	st.StopDesc = strOf(desc)
	st.StopLat = floatPtrOf(lat)
	st.StopLon = floatPtrOf(lon)
	st.ZoneID = strOf(zone)
	st.StopURL = strOf(url)
	st.LocationType = intPtrOf(locType)
	st.ParentStation = strOf(parent)
	st.StopTimezone = strOf(tz)
	st.WheelchairBoarding = intPtrOf(wheelchair)
	return st, nil
}

// StopsByDataSet returns all stops for a dataset ordered by stop_id.
func (s *Store) StopsByDataSet(ctx context.Context, dataSetID int64) ([]models.Stop, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+stopColumns+" FROM stops WHERE data_set_id = ? ORDER BY stop_id", dataSetID)
	if err != nil {
		return nil, fmt.Errorf("store: stops by dataset: %w", err)
	}
	defer rows.Close()

	stops := make([]models.Stop, 0)
	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan stop: %w", err)
		}
		stops = append(stops, st)
	}
	return stops, rows.Err()
}

// StopsByIDs returns the stops whose GTFS ids appear in stopIDs.
func (s *Store) StopsByIDs(ctx context.Context, dataSetID int64, stopIDs []string) ([]models.Stop, error) {
	if len(stopIDs) == 0 {
		return []models.Stop{}, nil
	}
	args := make([]any, 0, len(stopIDs)+1)
	args = append(args, dataSetID)
	for _, id := range stopIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+stopColumns+" FROM stops WHERE data_set_id = ? AND stop_id IN ("+placeholders(len(stopIDs))+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("store: stops by ids: %w", err)
	}
	defer rows.Close()

	stops := make([]models.Stop, 0, len(stopIDs))
	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan stop: %w", err)
		}
		stops = append(stops, st)
	}
	return stops, rows.Err()
}

const tripColumns = `id, data_set_id, route_id, service_id, trip_id, trip_headsign,
	trip_short_name, direction_id, block_id, shape_id, wheelchair_accessible, bikes_allowed`

func scanTrip(rows interface{ Scan(...any) error }) (models.Trip, error) {
	var t models.Trip
	var headsign, short, block, shape sql.NullString
	var direction, wheelchair, bikes sql.NullInt64
	err := rows.Scan(&t.ID, &t.DataSetID, &t.RouteID, &t.ServiceID, &t.TripID,
		&headsign, &short, &direction, &block, &shape, &wheelchair, &bikes)
	if err != nil {
		return t, err
	}
	t.TripHeadsign = strOf(headsign)
	t.TripShortName = strOf(short)
	t.DirectionID = intPtrOf(direction)
	t.BlockID = strOf(block)
	t.ShapeID = strOf(shape)
	t.WheelchairAccessible = intPtrOf(wheelchair)
	t.BikesAllowed = intPtrOf(bikes)
	return t, nil
}

// TripsByRoute returns trips on a route with optional direction/service
// filters, ordered by trip_id.
func (s *Store) TripsByRoute(ctx context.Context, dataSetID int64, routeID string, directionID *int, serviceID string) ([]models.Trip, error) {
	query := "SELECT " + tripColumns + " FROM trips WHERE data_set_id = ? AND route_id = ?"
	args := []any{dataSetID, routeID}
	if directionID != nil {
		query += " AND direction_id = ?"
		args = append(args, *directionID)
	}
	if serviceID != "" {
		query += " AND service_id = ?"
		args = append(args, serviceID)
	}
	query += " ORDER BY trip_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: trips by route: %w", err)
	}
	defer rows.Close()

	trips := make([]models.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// TripsByDataSet returns every trip in a dataset ordered by route then
// trip id, for the viewer listing.
func (s *Store) TripsByDataSet(ctx context.Context, dataSetID int64) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE data_set_id = ? ORDER BY route_id, trip_id",
		dataSetID)
	if err != nil {
		return nil, fmt.Errorf("store: trips by dataset: %w", err)
	}
	defer rows.Close()

	trips := make([]models.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// ServiceIDs returns the distinct service ids used by a route, sorted.
func (s *Store) ServiceIDs(ctx context.Context, dataSetID int64, routeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT service_id FROM trips
		WHERE data_set_id = ? AND route_id = ?
		ORDER BY service_id
	`, dataSetID, routeID)
	if err != nil {
		return nil, fmt.Errorf("store: service ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan service id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const stopTimingColumns = `id, data_set_id, trip_id, arrival_time, departure_time, stop_id,
	stop_sequence, stop_headsign, pickup_type, drop_off_type, shape_dist_traveled, timepoint`

func scanStopTiming(rows interface{ Scan(...any) error }) (models.StopTiming, error) {
	var st models.StopTiming
	var arrival, departure, headsign sql.NullString
	var seq, pickup, dropOff, timepoint sql.NullInt64
	var shapeDist sql.NullFloat64
	err := rows.Scan(&st.ID, &st.DataSetID, &st.TripID, &arrival, &departure, &st.StopID,
		&seq, &headsign, &pickup, &dropOff, &shapeDist, &timepoint)
	if err != nil {
		return st, err
	}
	st.ArrivalTime = strOf(arrival)
	st.DepartureTime = strOf(departure)
	st.StopSequence = intPtrOf(seq)
	st.StopHeadsign = strOf(headsign)
	st.PickupType = intPtrOf(pickup)
	st.DropOffType = intPtrOf(dropOff)
	st.ShapeDistTraveled = floatPtrOf(shapeDist)
	st.Timepoint = intPtrOf(timepoint)
	return st, nil
}

// StopTimingsForTrips returns the stop timings of the given trips ordered
// by trip_id then stop_sequence (absent sequence sorts as 0). With mainOnly
// set, only timepoint = 1 rows are returned.
func (s *Store) StopTimingsForTrips(ctx context.Context, dataSetID int64, tripIDs []string, mainOnly bool) ([]models.StopTiming, error) {
	if len(tripIDs) == 0 {
		return []models.StopTiming{}, nil
	}
	args := make([]any, 0, len(tripIDs)+1)
	args = append(args, dataSetID)
	for _, id := range tripIDs {
		args = append(args, id)
	}
	query := "SELECT " + stopTimingColumns + " FROM stop_timings WHERE data_set_id = ? AND trip_id IN (" + placeholders(len(tripIDs)) + ")"
	if mainOnly {
		query += " AND timepoint = 1"
	}
	query += " ORDER BY trip_id, COALESCE(stop_sequence, 0)"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: stop timings for trips: %w", err)
	}
	defer rows.Close()

	timings := make([]models.StopTiming, 0)
	for rows.Next() {
		st, err := scanStopTiming(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan stop timing: %w", err)
		}
		timings = append(timings, st)
	}
	return timings, rows.Err()
}

// StopTimingsByRoute returns the timings of every trip on a route, for the
// viewer grid.
func (s *Store) StopTimingsByRoute(ctx context.Context, dataSetID int64, routeID string) ([]models.StopTiming, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.id, st.data_set_id, st.trip_id, st.arrival_time, st.departure_time, st.stop_id,
			st.stop_sequence, st.stop_headsign, st.pickup_type, st.drop_off_type,
			st.shape_dist_traveled, st.timepoint
		FROM stop_timings st
		WHERE st.data_set_id = ? AND EXISTS (
			SELECT 1 FROM trips t
			WHERE t.data_set_id = st.data_set_id AND t.route_id = ? AND t.trip_id = st.trip_id
		)
		ORDER BY st.trip_id, COALESCE(st.stop_sequence, 0)
	`, dataSetID, routeID)
	if err != nil {
		return nil, fmt.Errorf("store: stop timings by route: %w", err)
	}
	defer rows.Close()

	timings := make([]models.StopTiming, 0)
	for rows.Next() {
		st, err := scanStopTiming(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan stop timing: %w", err)
		}
		timings = append(timings, st)
	}
	return timings, rows.Err()
}

// CalendarDatesByDataSet returns all calendar dates for the viewer, ordered
// by service_id then date. Dates come back as YYYYMMDD strings.
func (s *Store) CalendarDatesByDataSet(ctx context.Context, dataSetID int64) ([]models.CalendarDate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data_set_id, service_id, DATE_FORMAT(date, '%Y%m%d'), exception_type
		FROM calendar_dates
		WHERE data_set_id = ?
		ORDER BY service_id, date
	`, dataSetID)
	if err != nil {
		return nil, fmt.Errorf("store: calendar dates by dataset: %w", err)
	}
	defer rows.Close()

	dates := make([]models.CalendarDate, 0)
	for rows.Next() {
		var cd models.CalendarDate
		if err := rows.Scan(&cd.ID, &cd.DataSetID, &cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, fmt.Errorf("store: scan calendar date: %w", err)
		}
		dates = append(dates, cd)
	}
	return dates, rows.Err()
}

// ServiceDatesAdded resolves the operating dates of the given services:
// calendar dates with exception_type 1, grouped by service id, each list
// sorted ascending as YYYYMMDD strings.
func (s *Store) ServiceDatesAdded(ctx context.Context, dataSetID int64, serviceIDs []string) (map[string][]string, error) {
	if len(serviceIDs) == 0 {
		return map[string][]string{}, nil
	}
	args := make([]any, 0, len(serviceIDs)+2)
	args = append(args, dataSetID)
	for _, id := range serviceIDs {
		args = append(args, id)
	}
	args = append(args, models.ServiceExceptionAdded)

	rows, err := s.db.QueryContext(ctx, `
		SELECT service_id, DATE_FORMAT(date, '%Y%m%d')
		FROM calendar_dates
		WHERE data_set_id = ? AND service_id IN (`+placeholders(len(serviceIDs))+`) AND exception_type = ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: service dates: %w", err)
	}
	defer rows.Close()

	byService := make(map[string][]string)
	for rows.Next() {
		var serviceID, date string
		if err := rows.Scan(&serviceID, &date); err != nil {
			return nil, fmt.Errorf("store: scan service date: %w", err)
		}
		byService[serviceID] = append(byService[serviceID], date)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, dates := range byService {
		sort.Strings(dates)
	}
	return byService, nil
}
