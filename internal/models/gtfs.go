package models

import "time"

// DataSet is one imported batch of GTFS files. All other entities are
// partitioned by its id.
type DataSet struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	CreatedDate      time.Time  `json:"created_date"`
	LastModifiedDate *time.Time `json:"last_modified_date,omitempty"`
}

// Route represents one row of routes.txt scoped to a dataset.
type Route struct {
	ID             int64  `json:"id"`
	DataSetID      int64  `json:"data_set_id"`
	RouteID        string `json:"route_id"`
	AgencyID       string `json:"agency_id,omitempty"`
	RouteShortName string `json:"route_short_name,omitempty"`
	RouteLongName  string `json:"route_long_name,omitempty"`
	RouteDesc      string `json:"route_desc,omitempty"`
	RouteType      *int   `json:"route_type,omitempty"`
	RouteURL       string `json:"route_url,omitempty"`
	RouteColor     string `json:"route_color,omitempty"`
	RouteTextColor string `json:"route_text_color,omitempty"`
}

// Stop represents one row of stops.txt scoped to a dataset.
type Stop struct {
	ID                 int64    `json:"id"`
	DataSetID          int64    `json:"data_set_id"`
	StopID             string   `json:"stop_id"`
	StopCode           string   `json:"stop_code,omitempty"`
	StopName           string   `json:"stop_name,omitempty"`
	StopDesc           string   `json:"stop_desc,omitempty"`
	StopLat            *float64 `json:"stop_lat,omitempty"`
	StopLon            *float64 `json:"stop_lon,omitempty"`
	ZoneID             string   `json:"zone_id,omitempty"`
	StopURL            string   `json:"stop_url,omitempty"`
	LocationType       *int     `json:"location_type,omitempty"`
	ParentStation      string   `json:"parent_station,omitempty"`
	StopTimezone       string   `json:"stop_timezone,omitempty"`
	WheelchairBoarding *int     `json:"wheelchair_boarding,omitempty"`
}

// Trip represents one row of trips.txt scoped to a dataset. RouteID and
// ServiceID reference routes and calendar dates by string value within the
// same dataset, never by surrogate id.
type Trip struct {
	ID                   int64  `json:"id"`
	DataSetID            int64  `json:"data_set_id"`
	RouteID              string `json:"route_id"`
	ServiceID            string `json:"service_id"`
	TripID               string `json:"trip_id"`
	TripHeadsign         string `json:"trip_headsign,omitempty"`
	TripShortName        string `json:"trip_short_name,omitempty"`
	DirectionID          *int   `json:"direction_id,omitempty"`
	BlockID              string `json:"block_id,omitempty"`
	ShapeID              string `json:"shape_id,omitempty"`
	WheelchairAccessible *int   `json:"wheelchair_accessible,omitempty"`
	BikesAllowed         *int   `json:"bikes_allowed,omitempty"`
}

// StopTiming represents one row of stop_times.txt. Times keep their raw
// GTFS HH:MM:SS form, which may exceed 24:00:00 for after-midnight trips.
// Timepoint == 1 marks a main (published schedule) stop.
type StopTiming struct {
	ID                int64    `json:"id"`
	DataSetID         int64    `json:"data_set_id"`
	TripID            string   `json:"trip_id"`
	ArrivalTime       string   `json:"arrival_time,omitempty"`
	DepartureTime     string   `json:"departure_time,omitempty"`
	StopID            string   `json:"stop_id"`
	StopSequence      *int     `json:"stop_sequence,omitempty"`
	StopHeadsign      string   `json:"stop_headsign,omitempty"`
	PickupType        *int     `json:"pickup_type,omitempty"`
	DropOffType       *int     `json:"drop_off_type,omitempty"`
	ShapeDistTraveled *float64 `json:"shape_dist_traveled,omitempty"`
	Timepoint         *int     `json:"timepoint,omitempty"`
}

// SequenceOrZero returns the stop sequence, treating an absent value as 0
// for ordering.
func (st *StopTiming) SequenceOrZero() int {
	if st.StopSequence == nil {
		return 0
	}
	return *st.StopSequence
}

// CalendarDate is a service exception from calendar_dates.txt. Date is kept
// in YYYYMMDD form throughout the pipeline. ExceptionType 1 means service
// is added on that date, 2 means removed.
type CalendarDate struct {
	ID            int64  `json:"id"`
	DataSetID     int64  `json:"data_set_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	ExceptionType int    `json:"exception_type"`
}

// ServiceExceptionAdded is the exception_type value marking a date the
// service actually operates.
const ServiceExceptionAdded = 1

// DayDimension is one row of the optional d_date lookup table. The report
// engine must produce identical day names with or without it.
type DayDimension struct {
	DateKey   int       `json:"date_key"`
	Date      time.Time `json:"date"`
	DayOfWeek int       `json:"day_of_week"`
	DayName   string    `json:"day_name"`
}
