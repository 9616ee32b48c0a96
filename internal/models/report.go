package models

// RunCutOptions are the filters and mode flags for a run-cut report.
// GroupByDate and OneRowPerTrip are mutually exclusive modes; when both are
// set, OneRowPerTrip wins (no expansion happens, so there is nothing to
// group).
type RunCutOptions struct {
	RouteID                   string
	DirectionID               *int
	ServiceID                 string
	IncludeWeekdays           bool
	IncludeSaturday           bool
	IncludeSundaysAndHolidays bool
	GroupByDate               bool
	OneRowPerTrip             bool
}

// DefaultRunCutOptions returns options with all day types included and both
// mode flags off.
func DefaultRunCutOptions(routeID string) RunCutOptions {
	return RunCutOptions{
		RouteID:                   routeID,
		IncludeWeekdays:           true,
		IncludeSaturday:           true,
		IncludeSundaysAndHolidays: true,
	}
}

// TripLevelRow is one trip summarized from its ordered stop timings: first
// and last stop with times, stop count, and route metadata.
type TripLevelRow struct {
	RouteID        string `json:"route_id"`
	RouteShortName string `json:"route_short_name,omitempty"`
	RouteLongName  string `json:"route_long_name,omitempty"`
	RouteType      *int   `json:"route_type,omitempty"`
	AgencyID       string `json:"agency_id,omitempty"`
	ServiceID      string `json:"service_id"`
	TripID         string `json:"trip_id"`
	TripHeadsign   string `json:"trip_headsign,omitempty"`
	DirectionID    *int   `json:"direction_id,omitempty"`
	ShapeID        string `json:"shape_id,omitempty"`
	FirstStopID    string `json:"first_stop_id"`
	FirstStopName  string `json:"first_stop_name,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	LastStopID     string `json:"last_stop_id"`
	LastStopName   string `json:"last_stop_name,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	StopCount      int    `json:"stop_count"`
}

// OutputRow is a trip-level row bound to one service date. ServiceDate is a
// YYYYMMDD string, empty when the trip has no resolved calendar dates.
// TripCount is 1 except on date-grouped rows, where it is the number of
// trips collapsed into the row (and TripID is empty).
type OutputRow struct {
	TripLevelRow
	ServiceDate   string `json:"service_date"`
	DayOfWeekName string `json:"day_of_week_name"`
	TripCount     int    `json:"trip_count"`
}

// RunCutResult is the report payload: a stop-by-trip time matrix plus the
// flat rows backing it. Rows is aligned positionally to StopNames; cells
// are HH:MM or "-".
type RunCutResult struct {
	StopNames []string    `json:"stop_names"`
	Rows      [][]string  `json:"rows"`
	Data      []OutputRow `json:"data"`
}

// FilteredExport is the fixed main-stop matrix for a single route/service.
// Matrix rows are stops (first cell the stop name), columns are trips in
// TripIDs order.
type FilteredExport struct {
	StopNames []string   `json:"stop_names"`
	TripIDs   []string   `json:"trip_ids"`
	Matrix    [][]string `json:"matrix"`
}
