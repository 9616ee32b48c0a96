package runcut

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/runcutweb/internal/models"
)

// outAndBackFixture: both trips start and end at Southport, so the
// terminus appears twice in the main-stop sequence.
func outAndBackFixture() *fakeDataSource {
	return &fakeDataSource{
		trips: []models.Trip{
			{RouteID: "R1", ServiceID: "WKD", TripID: "T1"},
			{RouteID: "R1", ServiceID: "SAT", TripID: "T2"},
		},
		timings: []models.StopTiming{
			{TripID: "T1", StopID: "S", DepartureTime: "06:00:00", StopSequence: intp(1), Timepoint: intp(1)},
			{TripID: "T1", StopID: "M", DepartureTime: "06:15:00", StopSequence: intp(2), Timepoint: intp(1)},
			{TripID: "T1", StopID: "X", DepartureTime: "06:20:00", StopSequence: intp(3), Timepoint: intp(0)},
			{TripID: "T1", StopID: "S", ArrivalTime: "06:30:00", StopSequence: intp(4), Timepoint: intp(1)},
			{TripID: "T2", StopID: "S", DepartureTime: "07:00:00", StopSequence: intp(1), Timepoint: intp(1)},
			{TripID: "T2", StopID: "M", DepartureTime: "07:15:00", StopSequence: intp(2), Timepoint: intp(1)},
			{TripID: "T2", StopID: "S", ArrivalTime: "07:30:00", StopSequence: intp(3), Timepoint: intp(1)},
		},
		stops: []models.Stop{
			{StopID: "S", StopName: "Southport"},
			{StopID: "M", StopName: "Marshall"},
			{StopID: "X", StopName: "Crossing"},
		},
	}
}

func TestProjectRepeatedTerminusGetsDistinctTimes(t *testing.T) {
	proj := NewProjector(outAndBackFixture())

	export, err := proj.Project(context.Background(), 1, "R1", "")
	require.NoError(t, err)

	// first trip's main stops, terminus twice, non-main Crossing excluded
	assert.Equal(t, []string{"Southport", "Marshall", "Southport"}, export.StopNames)
	assert.Equal(t, []string{"T1", "T2"}, export.TripIDs)

	require.Len(t, export.Matrix, 3)
	// positional lookup: the two Southport rows carry different times
	assert.Equal(t, []string{"Southport", "06:00", "07:00"}, export.Matrix[0])
	assert.Equal(t, []string{"Marshall", "06:15", "07:15"}, export.Matrix[1])
	assert.Equal(t, []string{"Southport", "06:30", "07:30"}, export.Matrix[2])
}

func TestProjectServiceFilter(t *testing.T) {
	proj := NewProjector(outAndBackFixture())

	export, err := proj.Project(context.Background(), 1, "R1", "SAT")
	require.NoError(t, err)

	assert.Equal(t, []string{"T2"}, export.TripIDs)
	require.Len(t, export.Matrix, 3)
	for _, row := range export.Matrix {
		assert.Len(t, row, 2) // stop name + one trip column
	}
}

func TestProjectShorterTripPadsWithDash(t *testing.T) {
	ds := outAndBackFixture()
	// drop T2's last main stop so it is shorter than the reference trip
	kept := make([]models.StopTiming, 0)
	for _, st := range ds.timings {
		if st.TripID == "T2" && st.SequenceOrZero() == 3 {
			continue
		}
		kept = append(kept, st)
	}
	ds.timings = kept
	proj := NewProjector(ds)

	export, err := proj.Project(context.Background(), 1, "R1", "")
	require.NoError(t, err)

	require.Len(t, export.Matrix, 3)
	assert.Equal(t, "-", export.Matrix[2][2]) // T2 has no third main stop
}

func TestProjectNoTripsReturnsEmpty(t *testing.T) {
	proj := NewProjector(outAndBackFixture())

	export, err := proj.Project(context.Background(), 1, "R99", "")
	require.NoError(t, err)
	assert.Empty(t, export.StopNames)
	assert.Empty(t, export.TripIDs)
	assert.Empty(t, export.Matrix)
}

func TestProjectMatrixShapeInvariant(t *testing.T) {
	proj := NewProjector(outAndBackFixture())

	export, err := proj.Project(context.Background(), 1, "R1", "")
	require.NoError(t, err)

	for i, row := range export.Matrix {
		assert.Len(t, row, len(export.TripIDs)+1, "row %d", i)
	}
}
