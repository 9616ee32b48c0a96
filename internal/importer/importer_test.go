package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/runcutweb/internal/models"
)

// fakeRepo records everything the pipeline writes.
type fakeRepo struct {
	existing         *models.DataSet
	nextDataSetID    int64
	routes           []models.Route
	stops            []models.Stop
	trips            []models.Trip
	timingBatches    [][]models.StopTiming
	calendarDates    []models.CalendarDate
	calendarDatesErr error
}

func (f *fakeRepo) FindDataSetByName(_ context.Context, name string) (*models.DataSet, error) {
	if f.existing != nil && strings.EqualFold(f.existing.Name, name) {
		return f.existing, nil
	}
	return nil, nil
}

func (f *fakeRepo) InsertDataSet(_ context.Context, _ string) (int64, error) {
	if f.nextDataSetID == 0 {
		f.nextDataSetID = 1
	}
	return f.nextDataSetID, nil
}

func (f *fakeRepo) InsertRoutes(_ context.Context, routes []models.Route) (int, error) {
	f.routes = append(f.routes, routes...)
	return len(routes), nil
}

func (f *fakeRepo) InsertStops(_ context.Context, stops []models.Stop) (int, error) {
	f.stops = append(f.stops, stops...)
	return len(stops), nil
}

func (f *fakeRepo) InsertTrips(_ context.Context, trips []models.Trip) (int, error) {
	f.trips = append(f.trips, trips...)
	return len(trips), nil
}

func (f *fakeRepo) InsertStopTimings(_ context.Context, timings []models.StopTiming) (int, error) {
	batch := append([]models.StopTiming(nil), timings...)
	f.timingBatches = append(f.timingBatches, batch)
	return len(batch), nil
}

func (f *fakeRepo) InsertCalendarDates(_ context.Context, dates []models.CalendarDate) (int, error) {
	if f.calendarDatesErr != nil {
		return 0, f.calendarDatesErr
	}
	f.calendarDates = append(f.calendarDates, dates...)
	return len(dates), nil
}

func TestImportRequiresDataSetName(t *testing.T) {
	imp := New(&fakeRepo{})

	result := imp.Import(context.Background(), models.ImportRequest{DataSetName: "   "})

	assert.False(t, result.Success)
	assert.Equal(t, "Dataset name is required", result.Message)
}

func TestImportRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	repo := &fakeRepo{existing: &models.DataSet{ID: 7, Name: "Spring 2025"}}
	imp := New(repo)

	result := imp.Import(context.Background(), models.ImportRequest{DataSetName: "  spring 2025 "})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already exists")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "already in use")
	assert.Empty(t, repo.routes)
}

func TestImportAllFiles(t *testing.T) {
	repo := &fakeRepo{}
	imp := New(repo)

	req := models.ImportRequest{
		DataSetName: "Spring 2025",
		Routes: strings.NewReader(
			"route_id,agency_id,route_short_name,route_long_name,route_type\n" +
				"R1,AG,10,Crosstown,3\n" +
				"R2,AG,20,Loop,3\n"),
		Stops: strings.NewReader(
			"stop_id,stop_name,stop_lat,stop_lon\n" +
				"A,Alder Street,-33.45,-70.66\n"),
		Trips: strings.NewReader(
			"route_id,service_id,trip_id,direction_id\n" +
				"R1,WKD,T1,1\n" +
				"R1,WKD,T2,0\n" +
				"R2,SAT,T3,\n"),
		StopTimings: strings.NewReader(
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence,timepoint\n" +
				"T1,08:00:00,08:00:00,A,1,1\n" +
				"T1,08:10:00,,A,2,0\n"),
		CalendarDates: strings.NewReader(
			"service_id,date,exception_type\n" +
				"WKD,20250106,1\n" +
				"WKD,2025-01-07,1\n" +
				"SAT,20250111,2\n"),
	}

	result := imp.Import(context.Background(), req)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, "Data imported successfully", result.Message)
	assert.NotEmpty(t, result.ImportID)
	assert.Equal(t, int64(1), result.DataSetID)

	assert.Equal(t, 2, result.Statistics.RoutesImported)
	assert.Equal(t, 1, result.Statistics.StopsImported)
	assert.Equal(t, 3, result.Statistics.TripsImported)
	assert.Equal(t, 2, result.Statistics.StopTimingsImported)
	assert.Equal(t, 3, result.Statistics.CalendarDatesImported)

	// parsed values land typed
	require.Len(t, repo.routes, 2)
	assert.Equal(t, "Crosstown", repo.routes[0].RouteLongName)
	require.NotNil(t, repo.routes[0].RouteType)
	assert.Equal(t, 3, *repo.routes[0].RouteType)

	require.Len(t, repo.trips, 3)
	require.NotNil(t, repo.trips[0].DirectionID)
	assert.Equal(t, 1, *repo.trips[0].DirectionID)
	assert.Nil(t, repo.trips[2].DirectionID)

	// non-YYYYMMDD dates are normalized
	require.Len(t, repo.calendarDates, 3)
	assert.Equal(t, "20250107", repo.calendarDates[1].Date)
	assert.Equal(t, 2, repo.calendarDates[2].ExceptionType)

	// all rows scoped to the new dataset
	for _, r := range repo.routes {
		assert.Equal(t, int64(1), r.DataSetID)
	}
}

func TestImportMissingFilesContributeNothing(t *testing.T) {
	repo := &fakeRepo{}
	imp := New(repo)

	result := imp.Import(context.Background(), models.ImportRequest{
		DataSetName: "Routes only",
		Routes:      strings.NewReader("route_id\nR1\n"),
	})

	require.True(t, result.Success)
	assert.Equal(t, 1, result.Statistics.RoutesImported)
	assert.Zero(t, result.Statistics.StopsImported)
	assert.Zero(t, result.Statistics.TripsImported)
	assert.Zero(t, result.Statistics.StopTimingsImported)
	assert.Zero(t, result.Statistics.CalendarDatesImported)
}

func TestImportStopTimingsBatching(t *testing.T) {
	repo := &fakeRepo{}
	imp := New(repo)

	var sb strings.Builder
	sb.WriteString("trip_id,departure_time,stop_id,stop_sequence\n")
	for i := 0; i < 2500; i++ {
		fmt.Fprintf(&sb, "T%d,08:00:00,A,%d\n", i%10, i)
	}

	result := imp.Import(context.Background(), models.ImportRequest{
		DataSetName: "Big feed",
		StopTimings: strings.NewReader(sb.String()),
	})

	require.True(t, result.Success)
	assert.Equal(t, 2500, result.Statistics.StopTimingsImported)

	require.Len(t, repo.timingBatches, 3)
	assert.Len(t, repo.timingBatches[0], 1000)
	assert.Len(t, repo.timingBatches[1], 1000)
	assert.Len(t, repo.timingBatches[2], 500)
}

func TestImportStopTimingsCancelledBetweenBatches(t *testing.T) {
	repo := &fakeRepo{}
	imp := New(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sb strings.Builder
	sb.WriteString("trip_id,departure_time,stop_id,stop_sequence\n")
	for i := 0; i < 1500; i++ {
		fmt.Fprintf(&sb, "T1,08:00:00,A,%d\n", i)
	}

	result := imp.Import(ctx, models.ImportRequest{
		DataSetName: "Cancelled",
		StopTimings: strings.NewReader(sb.String()),
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "cancelled")
	assert.Empty(t, repo.timingBatches)
}

func TestImportCalendarDatesSkipsBadRows(t *testing.T) {
	repo := &fakeRepo{}
	imp := New(repo)

	result := imp.Import(context.Background(), models.ImportRequest{
		DataSetName: "Dates",
		CalendarDates: strings.NewReader(
			"service_id,date,exception_type\n" +
				"WKD,20250106,1\n" +
				",20250107,1\n" + // empty service id
				"WKD,not-a-date,1\n" + // unparsable date
				"SAT,20250111,\n"), // missing exception type defaults to added
	})

	require.True(t, result.Success)
	assert.Equal(t, 2, result.Statistics.CalendarDatesImported)
	require.Len(t, repo.calendarDates, 2)
	assert.Equal(t, models.ServiceExceptionAdded, repo.calendarDates[1].ExceptionType)
}

func TestImportCalendarDatesFailureDoesNotFailImport(t *testing.T) {
	repo := &fakeRepo{}
	imp := New(repo)

	result := imp.Import(context.Background(), models.ImportRequest{
		DataSetName: "Partial",
		Routes:      strings.NewReader("route_id\nR1\n"),
		CalendarDates: strings.NewReader(
			"wrong_header,columns\n" +
				"x,y\n"),
	})

	// earlier tables stay persisted, the calendar problem rides along
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Statistics.RoutesImported)
	assert.Zero(t, result.Statistics.CalendarDatesImported)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Error importing calendar dates")
}

func TestImportCalendarDatesInsertErrorAccumulates(t *testing.T) {
	repo := &fakeRepo{calendarDatesErr: errors.New("deadlock found")}
	imp := New(repo)

	result := imp.Import(context.Background(), models.ImportRequest{
		DataSetName:   "Insert fails",
		CalendarDates: strings.NewReader("service_id,date,exception_type\nWKD,20250106,1\n"),
	})

	require.True(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "deadlock found")
}
