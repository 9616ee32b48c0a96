package importer

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

// abbreviatedHeaders maps each logical GTFS field to the truncated header
// variants seen in malformed upstream exports. Resolution tries the exact
// header first, then these in order.
var abbreviatedHeaders = map[string][]string{
	// routes
	"route_short_name": {"route_sho", "route_short"},
	"route_long_name":  {"route_long", "route_longname"},
	"route_desc":       {"route_des", "route_description"},
	"route_color":      {"route_col", "route_colour"},
	"route_text_color": {"route_text_col", "route_text_colour"},
	// stops
	"stop_name":     {"stop_nam"},
	"location_type": {"location_t"},
	// stop times
	"arrival_time":        {"arrival_tin"},
	"departure_time":      {"departure"},
	"stop_sequence":       {"stop_sequ"},
	"stop_headsign":       {"stop_heac"},
	"pickup_type":         {"pickup_typ"},
	"drop_off_type":       {"drop_off_t"},
	"shape_dist_traveled": {"shape_dis"},
	// calendar dates
	"service_id":     {"serviceid"},
	"exception_type": {"exceptiontype", "exception_typ"},
}

// newCSVReader configures a reader tolerant of the usual GTFS export
// sloppiness: ragged records, unescaped quotes, leading whitespace.
func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader
}

// headerIndex maps lowercased trimmed header names to column positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, field := range header {
		idx[strings.TrimSpace(strings.ToLower(field))] = i
	}
	return idx
}

// resolveField returns the value for a logical field, trying the exact
// (case-insensitive) header first and then its known abbreviated variants.
// Missing fields resolve to "".
func resolveField(record []string, idx map[string]int, field string) string {
	if pos, ok := idx[field]; ok && pos < len(record) {
		return record[pos]
	}
	for _, abbrev := range abbreviatedHeaders[field] {
		if pos, ok := idx[abbrev]; ok && pos < len(record) {
			return record[pos]
		}
	}
	return ""
}

// parseIntPtr parses an optional integer field; unparsable values become
// nil rather than failing the row.
func parseIntPtr(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

// parseFloatPtr parses an optional decimal field with invariant formatting.
func parseFloatPtr(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// fallbackDateLayouts are tried when a date is not strict YYYYMMDD.
var fallbackDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseDate normalizes a calendar date to YYYYMMDD. Strict GTFS YYYYMMDD is
// tried first, then a handful of general layouts. Returns "" when nothing
// parses; the caller skips the row.
func parseDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) == 8 {
		if t, err := time.Parse("20060102", value); err == nil {
			return t.Format("20060102")
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("20060102")
		}
	}
	return ""
}
