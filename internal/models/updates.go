package models

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TripUpdate is a single trip edit from the viewer, keyed by surrogate id.
type TripUpdate struct {
	ID                   int64  `json:"id"`
	TripHeadsign         string `json:"trip_headsign"`
	TripShortName        string `json:"trip_short_name"`
	DirectionID          *int   `json:"direction_id"`
	BlockID              string `json:"block_id"`
	ShapeID              string `json:"shape_id"`
	WheelchairAccessible *int   `json:"wheelchair_accessible"`
	BikesAllowed         *int   `json:"bikes_allowed"`
}

// StopUpdate is a single stop edit from the viewer.
type StopUpdate struct {
	ID                 int64    `json:"id"`
	StopCode           string   `json:"stop_code"`
	StopName           string   `json:"stop_name"`
	StopDesc           string   `json:"stop_desc"`
	StopLat            *float64 `json:"stop_lat"`
	StopLon            *float64 `json:"stop_lon"`
	LocationType       *int     `json:"location_type"`
	WheelchairBoarding *int     `json:"wheelchair_boarding"`
}

// StopTimingUpdate is a single stop-timing edit from the viewer.
type StopTimingUpdate struct {
	ID                int64    `json:"id"`
	ArrivalTime       string   `json:"arrival_time"`
	DepartureTime     string   `json:"departure_time"`
	StopSequence      *int     `json:"stop_sequence"`
	StopHeadsign      string   `json:"stop_headsign"`
	PickupType        *int     `json:"pickup_type"`
	DropOffType       *int     `json:"drop_off_type"`
	ShapeDistTraveled *float64 `json:"shape_dist_traveled"`
	Timepoint         *int     `json:"timepoint"`
}

// CalendarDateUpdate is a single calendar-date edit. Date is YYYYMMDD; rows
// with an unparsable date keep their stored date.
type CalendarDateUpdate struct {
	ID            int64  `json:"id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	ExceptionType int    `json:"exception_type"`
}
