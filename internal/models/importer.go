package models

import "io"

// ImportRequest carries one dataset import: a name plus up to five optional
// CSV streams. A nil reader means the file was not uploaded and contributes
// zero rows.
type ImportRequest struct {
	DataSetName   string
	Routes        io.Reader
	Stops         io.Reader
	Trips         io.Reader
	StopTimings   io.Reader
	CalendarDates io.Reader
}

// ImportStatistics holds per-table imported row counts.
type ImportStatistics struct {
	RoutesImported        int `json:"routes_imported"`
	StopsImported         int `json:"stops_imported"`
	TripsImported         int `json:"trips_imported"`
	StopTimingsImported   int `json:"stop_timings_imported"`
	CalendarDatesImported int `json:"calendar_dates_imported"`
}

// ImportResult is returned by the import pipeline. Errors accumulates one
// entry per distinct problem; a partially failed import can still report
// Success when the earlier tables were written.
type ImportResult struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	DataSetID  int64            `json:"data_set_id"`
	ImportID   string           `json:"import_id,omitempty"`
	Statistics ImportStatistics `json:"statistics"`
	Errors     []string         `json:"errors,omitempty"`
}
