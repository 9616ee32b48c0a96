package runcut

import (
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/runcutweb/internal/models"
)

// dayName resolves a YYYYMMDD service date to an English weekday name.
// When the date dimension lookup has no entry the name is derived
// arithmetically, so reports work without the d_date table. Unparsable
// dates resolve to "".
func dayName(serviceDate string, dayNames map[int]string) string {
	if len(serviceDate) != 8 {
		return ""
	}
	key, err := strconv.Atoi(serviceDate)
	if err != nil {
		return ""
	}
	if name, ok := dayNames[key]; ok {
		return name
	}
	t, err := time.Parse("20060102", serviceDate)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

func isWeekday(name string) bool {
	switch strings.ToLower(name) {
	case "monday", "tuesday", "wednesday", "thursday", "friday":
		return true
	}
	return false
}

// matchesDayType reports whether a named weekday passes the day-type
// selection. Sundays stand in for holidays until a holiday table exists.
func matchesDayType(name string, opts models.RunCutOptions) bool {
	if opts.IncludeWeekdays && isWeekday(name) {
		return true
	}
	if opts.IncludeSaturday && strings.EqualFold(name, "Saturday") {
		return true
	}
	if opts.IncludeSundaysAndHolidays && strings.EqualFold(name, "Sunday") {
		return true
	}
	return false
}

// firstMatchingDate returns the first ascending service date whose weekday
// passes the day-type selection, or "" when none does.
func firstMatchingDate(dates []string, dayNames map[int]string, opts models.RunCutOptions) string {
	for _, d := range dates {
		if len(d) != 8 {
			continue
		}
		if _, err := strconv.Atoi(d); err != nil {
			continue
		}
		if matchesDayType(dayName(d, dayNames), opts) {
			return d
		}
	}
	return ""
}
