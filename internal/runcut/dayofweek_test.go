package runcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourorg/runcutweb/internal/models"
)

func TestDayNameDerivedArithmetically(t *testing.T) {
	cases := map[string]string{
		"20250106": "Monday",
		"20250107": "Tuesday",
		"20250108": "Wednesday",
		"20250109": "Thursday",
		"20250110": "Friday",
		"20250111": "Saturday",
		"20250112": "Sunday",
	}
	for date, want := range cases {
		assert.Equal(t, want, dayName(date, nil), "date %s", date)
	}
}

func TestDayNamePrefersLookupTable(t *testing.T) {
	lookup := map[int]string{20250106: "Holiday Monday"}
	assert.Equal(t, "Holiday Monday", dayName("20250106", lookup))
	// table miss falls back to arithmetic derivation
	assert.Equal(t, "Tuesday", dayName("20250107", lookup))
}

func TestDayNameInvalidDates(t *testing.T) {
	assert.Equal(t, "", dayName("", nil))
	assert.Equal(t, "", dayName("2025-01-06", nil))
	assert.Equal(t, "", dayName("20251345", nil))
	assert.Equal(t, "", dayName("notadate", nil))
}

func TestMatchesDayType(t *testing.T) {
	all := models.DefaultRunCutOptions("R1")
	assert.True(t, matchesDayType("Monday", all))
	assert.True(t, matchesDayType("saturday", all))
	assert.True(t, matchesDayType("SUNDAY", all))
	assert.False(t, matchesDayType("", all))

	weekdaysOnly := all
	weekdaysOnly.IncludeSaturday = false
	weekdaysOnly.IncludeSundaysAndHolidays = false
	assert.True(t, matchesDayType("Friday", weekdaysOnly))
	assert.False(t, matchesDayType("Saturday", weekdaysOnly))
	assert.False(t, matchesDayType("Sunday", weekdaysOnly))
}

func TestFirstMatchingDate(t *testing.T) {
	opts := models.DefaultRunCutOptions("R1")
	opts.IncludeWeekdays = false

	dates := []string{"20250106", "20250111", "20250112"}
	// first non-weekday in ascending order
	assert.Equal(t, "20250111", firstMatchingDate(dates, nil, opts))

	opts.IncludeSaturday = false
	assert.Equal(t, "20250112", firstMatchingDate(dates, nil, opts))

	opts.IncludeSundaysAndHolidays = false
	assert.Equal(t, "", firstMatchingDate(dates, nil, opts))

	// malformed dates are skipped, not matched
	assert.Equal(t, "", firstMatchingDate([]string{"bad", "2025-01-11"}, nil, models.DefaultRunCutOptions("R1")))
}
