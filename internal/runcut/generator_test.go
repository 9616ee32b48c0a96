package runcut

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/runcutweb/internal/models"
)

// fakeDataSource serves fixture data with the same filtering and ordering
// contract as the SQL store.
type fakeDataSource struct {
	route        *models.Route
	trips        []models.Trip
	timings      []models.StopTiming
	stops        []models.Stop
	serviceDates map[string][]string
	dayNames     map[int]string
}

func (f *fakeDataSource) RouteByID(_ context.Context, _ int64, routeID string) (*models.Route, error) {
	if f.route != nil && f.route.RouteID == routeID {
		return f.route, nil
	}
	return nil, nil
}

func (f *fakeDataSource) TripsByRoute(_ context.Context, _ int64, routeID string, directionID *int, serviceID string) ([]models.Trip, error) {
	out := make([]models.Trip, 0)
	for _, t := range f.trips {
		if t.RouteID != routeID {
			continue
		}
		if directionID != nil && (t.DirectionID == nil || *t.DirectionID != *directionID) {
			continue
		}
		if serviceID != "" && t.ServiceID != serviceID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripID < out[j].TripID })
	return out, nil
}

func (f *fakeDataSource) StopTimingsForTrips(_ context.Context, _ int64, tripIDs []string, mainOnly bool) ([]models.StopTiming, error) {
	want := make(map[string]bool)
	for _, id := range tripIDs {
		want[id] = true
	}
	out := make([]models.StopTiming, 0)
	for _, st := range f.timings {
		if !want[st.TripID] {
			continue
		}
		if mainOnly && (st.Timepoint == nil || *st.Timepoint != 1) {
			continue
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TripID != out[j].TripID {
			return out[i].TripID < out[j].TripID
		}
		return out[i].SequenceOrZero() < out[j].SequenceOrZero()
	})
	return out, nil
}

func (f *fakeDataSource) StopsByIDs(_ context.Context, _ int64, stopIDs []string) ([]models.Stop, error) {
	want := make(map[string]bool)
	for _, id := range stopIDs {
		want[id] = true
	}
	out := make([]models.Stop, 0)
	for _, s := range f.stops {
		if want[s.StopID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDataSource) ServiceDatesAdded(_ context.Context, _ int64, serviceIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, id := range serviceIDs {
		if dates, ok := f.serviceDates[id]; ok {
			sorted := append([]string(nil), dates...)
			sort.Strings(sorted)
			out[id] = sorted
		}
	}
	return out, nil
}

func (f *fakeDataSource) DayNames(_ context.Context) (map[int]string, error) {
	if f.dayNames == nil {
		return map[int]string{}, nil
	}
	return f.dayNames, nil
}

func intp(v int) *int { return &v }

// fixture: route R1 with two direction-1 trips over stops A, B, C. A and C
// are timepoint-1 main stops, B is not. Service WKD runs Monday 2025-01-06
// and Tuesday 2025-01-07.
func weekdayFixture() *fakeDataSource {
	return &fakeDataSource{
		route: &models.Route{RouteID: "R1", RouteShortName: "1", RouteLongName: "Crosstown", AgencyID: "AG"},
		trips: []models.Trip{
			{RouteID: "R1", ServiceID: "WKD", TripID: "T1", DirectionID: intp(1)},
			{RouteID: "R1", ServiceID: "WKD", TripID: "T2", DirectionID: intp(1)},
		},
		timings: []models.StopTiming{
			{TripID: "T1", StopID: "A", DepartureTime: "08:00:00", StopSequence: intp(1), Timepoint: intp(1)},
			{TripID: "T1", StopID: "B", DepartureTime: "08:05:00", StopSequence: intp(2), Timepoint: intp(0)},
			{TripID: "T1", StopID: "C", ArrivalTime: "08:10:00", StopSequence: intp(3), Timepoint: intp(1)},
			{TripID: "T2", StopID: "A", DepartureTime: "09:00:00", StopSequence: intp(1), Timepoint: intp(1)},
			{TripID: "T2", StopID: "B", DepartureTime: "09:05:00", StopSequence: intp(2), Timepoint: intp(0)},
			{TripID: "T2", StopID: "C", ArrivalTime: "09:10:00", StopSequence: intp(3), Timepoint: intp(1)},
		},
		stops: []models.Stop{
			{StopID: "A", StopName: "Alder Street"},
			{StopID: "B", StopName: "Birch Avenue"},
			{StopID: "C", StopName: "Cedar Terminal"},
		},
		serviceDates: map[string][]string{
			"WKD": {"20250106", "20250107"},
		},
	}
}

func TestGenerateExpandsTripsAcrossServiceDates(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R1"))
	require.NoError(t, err)

	// 2 trips x 2 dates
	require.Len(t, result.Data, 4)
	for _, row := range result.Data {
		assert.Equal(t, 1, row.TripCount)
		assert.Contains(t, []string{"20250106", "20250107"}, row.ServiceDate)
	}

	// Ordered by service date, then trip id
	gotOrder := make([][2]string, 0, len(result.Data))
	for _, row := range result.Data {
		gotOrder = append(gotOrder, [2]string{row.ServiceDate, row.TripID})
	}
	assert.Equal(t, [][2]string{
		{"20250106", "T1"}, {"20250106", "T2"},
		{"20250107", "T1"}, {"20250107", "T2"},
	}, gotOrder)

	// Main stops only, B excluded
	assert.Equal(t, []string{"Alder Street", "Cedar Terminal"}, result.StopNames)
	require.Len(t, result.Rows, 4)
	assert.Equal(t, []string{"08:00", "08:10"}, result.Rows[0])
	assert.Equal(t, []string{"09:00", "09:10"}, result.Rows[1])
}

func TestGenerateTripLevelSummary(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R1"))
	require.NoError(t, err)
	require.NotEmpty(t, result.Data)

	row := result.Data[0]
	assert.Equal(t, "R1", row.RouteID)
	assert.Equal(t, "1", row.RouteShortName)
	assert.Equal(t, "Crosstown", row.RouteLongName)
	assert.Equal(t, "A", row.FirstStopID)
	assert.Equal(t, "Alder Street", row.FirstStopName)
	assert.Equal(t, "08:00:00", row.StartTime)
	assert.Equal(t, "C", row.LastStopID)
	assert.Equal(t, "Cedar Terminal", row.LastStopName)
	assert.Equal(t, "08:10:00", row.EndTime)
	assert.Equal(t, 3, row.StopCount)
	assert.Equal(t, "Monday", row.DayOfWeekName)
}

func TestGenerateExcludingWeekdaysFiltersAllRows(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	opts := models.DefaultRunCutOptions("R1")
	opts.IncludeWeekdays = false

	result, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	// Both dates are weekdays, so everything is filtered out, without error
	assert.Empty(t, result.Data)
	assert.Empty(t, result.Rows)
}

func TestGenerateSaturdayAndSundaySelection(t *testing.T) {
	ds := weekdayFixture()
	ds.serviceDates = map[string][]string{
		"WKD": {"20250111", "20250112"}, // Saturday, Sunday
	}
	gen := NewGenerator(ds)

	opts := models.DefaultRunCutOptions("R1")
	opts.IncludeWeekdays = false
	opts.IncludeSaturday = false

	result, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	require.Len(t, result.Data, 2) // only the Sunday rows
	for _, row := range result.Data {
		assert.Equal(t, "20250112", row.ServiceDate)
		assert.Equal(t, "Sunday", row.DayOfWeekName)
	}
}

func TestGenerateTripWithoutCalendarDatesKeepsOneBlankRow(t *testing.T) {
	ds := weekdayFixture()
	ds.serviceDates = map[string][]string{} // no dates for any service
	gen := NewGenerator(ds)

	opts := models.DefaultRunCutOptions("R1")
	opts.IncludeWeekdays = false // blank-day rows pass the filter regardless

	result, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	require.Len(t, result.Data, 2) // one per trip, not expanded
	for _, row := range result.Data {
		assert.Equal(t, "", row.ServiceDate)
		assert.Equal(t, "", row.DayOfWeekName)
	}
}

func TestGenerateGroupByDate(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	opts := models.DefaultRunCutOptions("R1")
	opts.GroupByDate = true

	result, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	require.Len(t, result.Data, 2) // one row per date
	total := 0
	for _, row := range result.Data {
		assert.Equal(t, "", row.TripID)
		total += row.TripCount
	}
	// sum of trip counts equals the pre-grouping row count
	assert.Equal(t, 4, total)
	assert.Equal(t, "20250106", result.Data[0].ServiceDate)
	assert.Equal(t, "20250107", result.Data[1].ServiceDate)

	// the matrix still pivots the ungrouped rows
	assert.Len(t, result.Rows, 4)
}

func TestGenerateOneRowPerTrip(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	opts := models.DefaultRunCutOptions("R1")
	opts.OneRowPerTrip = true

	result, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	require.Len(t, result.Data, 2)
	assert.Equal(t, "T1", result.Data[0].TripID)
	assert.Equal(t, "T2", result.Data[1].TripID)
	for _, row := range result.Data {
		// first ascending date passing the filter
		assert.Equal(t, "20250106", row.ServiceDate)
		assert.Equal(t, "Monday", row.DayOfWeekName)
		assert.Equal(t, 1, row.TripCount)
	}
}

func TestGenerateOneRowPerTripDropsTripsWithNoMatchingDay(t *testing.T) {
	ds := weekdayFixture()
	ds.trips = append(ds.trips, models.Trip{RouteID: "R1", ServiceID: "SAT", TripID: "T3", DirectionID: intp(1)})
	ds.timings = append(ds.timings,
		models.StopTiming{TripID: "T3", StopID: "A", DepartureTime: "10:00:00", StopSequence: intp(1), Timepoint: intp(1)},
		models.StopTiming{TripID: "T3", StopID: "C", ArrivalTime: "10:10:00", StopSequence: intp(2), Timepoint: intp(1)},
	)
	ds.serviceDates["SAT"] = []string{"20250111"}
	gen := NewGenerator(ds)

	opts := models.DefaultRunCutOptions("R1")
	opts.OneRowPerTrip = true
	opts.IncludeSaturday = false

	result, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, row := range result.Data {
		ids = append(ids, row.TripID)
	}
	// T3 only runs Saturday, which is excluded
	assert.Equal(t, []string{"T1", "T2"}, ids)
}

func TestGeneratePrefersDirectionOneForMatrix(t *testing.T) {
	ds := weekdayFixture()
	ds.trips = append(ds.trips, models.Trip{RouteID: "R1", ServiceID: "WKD", TripID: "T0", DirectionID: intp(0)})
	ds.timings = append(ds.timings,
		models.StopTiming{TripID: "T0", StopID: "C", DepartureTime: "07:00:00", StopSequence: intp(1), Timepoint: intp(1)},
		models.StopTiming{TripID: "T0", StopID: "A", ArrivalTime: "07:10:00", StopSequence: intp(2), Timepoint: intp(1)},
	)
	gen := NewGenerator(ds)

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R1"))
	require.NoError(t, err)

	// 3 trips x 2 dates in the flat rows
	assert.Len(t, result.Data, 6)
	// but the matrix only carries the direction-1 trips
	assert.Len(t, result.Rows, 4)
}

func TestGenerateFallsBackWhenNoDirectionOne(t *testing.T) {
	ds := weekdayFixture()
	for i := range ds.trips {
		ds.trips[i].DirectionID = intp(0)
	}
	gen := NewGenerator(ds)

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R1"))
	require.NoError(t, err)

	// no direction-1 subset, all filtered rows feed the matrix
	assert.Len(t, result.Rows, 4)
}

func TestGenerateNoMatchingTripsReturnsEmpty(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R99"))
	require.NoError(t, err)
	assert.Empty(t, result.StopNames)
	assert.Empty(t, result.Rows)
	assert.Empty(t, result.Data)
}

func TestGenerateMatrixShapeInvariant(t *testing.T) {
	gen := NewGenerator(weekdayFixture())

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R1"))
	require.NoError(t, err)

	for i, row := range result.Rows {
		assert.Len(t, row, len(result.StopNames), "row %d", i)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := NewGenerator(weekdayFixture())
	opts := models.DefaultRunCutOptions("R1")

	first, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), 1, opts)
	require.NoError(t, err)

	assert.Equal(t, first.StopNames, second.StopNames)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Data, second.Data)
}

func TestGenerateMissingStopTimingTimesShowDash(t *testing.T) {
	ds := weekdayFixture()
	// T2 loses its timing at stop A entirely
	kept := ds.timings[:0]
	for _, st := range ds.timings {
		if st.TripID == "T2" && st.StopID == "A" {
			continue
		}
		kept = append(kept, st)
	}
	ds.timings = kept
	gen := NewGenerator(ds)

	result, err := gen.Generate(context.Background(), 1, models.DefaultRunCutOptions("R1"))
	require.NoError(t, err)

	require.Len(t, result.Rows, 4)
	// columns still come from T1, T2's missing cell renders as "-"
	assert.Equal(t, []string{"-", "09:10"}, result.Rows[1])
}
