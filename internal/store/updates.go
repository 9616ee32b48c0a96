package store

import (
	"context"
	"fmt"

	"github.com/yourorg/runcutweb/internal/models"
)

// UpdateTrips applies a batch of per-row field edits keyed by surrogate id.
// Ids that match no row are silently skipped, mirroring the viewer's
// best-effort batch semantics.
func (s *Store) UpdateTrips(ctx context.Context, updates []models.TripUpdate) error {
	for _, u := range updates {
		_, err := s.db.ExecContext(ctx, `
			UPDATE trips SET trip_headsign = ?, trip_short_name = ?, direction_id = ?,
				block_id = ?, shape_id = ?, wheelchair_accessible = ?, bikes_allowed = ?
			WHERE id = ?
		`, nullStr(u.TripHeadsign), nullStr(u.TripShortName), nullInt(u.DirectionID),
			nullStr(u.BlockID), nullStr(u.ShapeID), nullInt(u.WheelchairAccessible),
			nullInt(u.BikesAllowed), u.ID)
		if err != nil {
			return fmt.Errorf("store: update trip %d: %w", u.ID, err)
		}
	}
	return nil
}

// UpdateStops applies a batch of stop edits.
func (s *Store) UpdateStops(ctx context.Context, updates []models.StopUpdate) error {
	for _, u := range updates {
		_, err := s.db.ExecContext(ctx, `
			UPDATE stops SET stop_code = ?, stop_name = ?, stop_desc = ?, stop_lat = ?,
				stop_lon = ?, location_type = ?, wheelchair_boarding = ?
			WHERE id = ?
		`, nullStr(u.StopCode), nullStr(u.StopName), nullStr(u.StopDesc), nullFloat(u.StopLat),
			nullFloat(u.StopLon), nullInt(u.LocationType), nullInt(u.WheelchairBoarding), u.ID)
		if err != nil {
			return fmt.Errorf("store: update stop %d: %w", u.ID, err)
		}
	}
	return nil
}

// UpdateStopTimings applies a batch of stop-timing edits.
func (s *Store) UpdateStopTimings(ctx context.Context, updates []models.StopTimingUpdate) error {
	for _, u := range updates {
		_, err := s.db.ExecContext(ctx, `
			UPDATE stop_timings SET arrival_time = ?, departure_time = ?, stop_sequence = ?,
				stop_headsign = ?, pickup_type = ?, drop_off_type = ?,
				shape_dist_traveled = ?, timepoint = ?
			WHERE id = ?
		`, nullStr(u.ArrivalTime), nullStr(u.DepartureTime), nullInt(u.StopSequence),
			nullStr(u.StopHeadsign), nullInt(u.PickupType), nullInt(u.DropOffType),
			nullFloat(u.ShapeDistTraveled), nullInt(u.Timepoint), u.ID)
		if err != nil {
			return fmt.Errorf("store: update stop timing %d: %w", u.ID, err)
		}
	}
	return nil
}

// UpdateCalendarDates applies a batch of calendar-date edits. A row whose
// incoming date is not valid YYYYMMDD keeps its stored date.
func (s *Store) UpdateCalendarDates(ctx context.Context, updates []models.CalendarDateUpdate) error {
	for _, u := range updates {
		var err error
		if len(u.Date) == 8 {
			_, err = s.db.ExecContext(ctx, `
				UPDATE calendar_dates SET service_id = ?, date = ?, exception_type = ?
				WHERE id = ?
			`, u.ServiceID, yyyymmddToDate(u.Date), u.ExceptionType, u.ID)
		} else {
			_, err = s.db.ExecContext(ctx, `
				UPDATE calendar_dates SET service_id = ?, exception_type = ?
				WHERE id = ?
			`, u.ServiceID, u.ExceptionType, u.ID)
		}
		if err != nil {
			return fmt.Errorf("store: update calendar date %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *Store) deleteByIDs(ctx context.Context, table string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("store: delete from %s: %w", table, err)
	}
	return res.RowsAffected()
}

// DeleteTrips removes trips by surrogate id and reports how many went away.
func (s *Store) DeleteTrips(ctx context.Context, ids []int64) (int64, error) {
	return s.deleteByIDs(ctx, "trips", ids)
}

// DeleteStops removes stops by surrogate id.
func (s *Store) DeleteStops(ctx context.Context, ids []int64) (int64, error) {
	return s.deleteByIDs(ctx, "stops", ids)
}

// DeleteStopTimings removes stop timings by surrogate id.
func (s *Store) DeleteStopTimings(ctx context.Context, ids []int64) (int64, error) {
	return s.deleteByIDs(ctx, "stop_timings", ids)
}

// DeleteCalendarDates removes calendar dates by surrogate id.
func (s *Store) DeleteCalendarDates(ctx context.Context, ids []int64) (int64, error) {
	return s.deleteByIDs(ctx, "calendar_dates", ids)
}

// TableCounts returns global row counts per table for diagnostics.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range []string{"data_sets", "routes", "stops", "trips", "stop_timings", "calendar_dates"} {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("store: count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// DataSetCounts returns row counts scoped to one dataset.
func (s *Store) DataSetCounts(ctx context.Context, dataSetID int64) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range []string{"routes", "stops", "trips", "stop_timings", "calendar_dates"} {
		var n int64
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE data_set_id = ?", dataSetID).Scan(&n); err != nil {
			return nil, fmt.Errorf("store: count %s for dataset %d: %w", table, dataSetID, err)
		}
		counts[table] = n
	}
	return counts, nil
}
