package runcut

import (
	"context"

	"github.com/yourorg/runcutweb/internal/models"
)

// Projector builds the fixed main-stop export matrix for one route. Unlike
// the full report it does no date expansion or day-type filtering.
type Projector struct {
	ds DataSource
}

// NewProjector builds a projector.
func NewProjector(ds DataSource) *Projector {
	return &Projector{ds: ds}
}

// Project returns the main-stop matrix: rows are the first trip's
// timepoint-1 stops in sequence order, columns are trips in trip id order.
// Row identity is positional, not by stop id, so an out-and-back terminus
// appears as two rows with its outbound and inbound times. No matching
// trips yields an empty result, not an error.
func (p *Projector) Project(ctx context.Context, dataSetID int64, routeID, serviceID string) (*models.FilteredExport, error) {
	trips, err := p.ds.TripsByRoute(ctx, dataSetID, routeID, nil, serviceID)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return &models.FilteredExport{
			StopNames: []string{},
			TripIDs:   []string{},
			Matrix:    [][]string{},
		}, nil
	}

	tripIDs := make([]string, len(trips))
	for i, t := range trips {
		tripIDs[i] = t.TripID
	}

	timings, err := p.ds.StopTimingsForTrips(ctx, dataSetID, tripIDs, true)
	if err != nil {
		return nil, err
	}

	// Row order comes from the first trip's main stops in sequence order;
	// the same stop may appear twice (start and end of an out-and-back).
	firstTripID := tripIDs[0]
	orderedStopIDs := make([]string, 0)
	for _, st := range timings {
		if st.TripID == firstTripID {
			orderedStopIDs = append(orderedStopIDs, st.StopID)
		}
	}

	stops, err := p.stopsByID(ctx, dataSetID, orderedStopIDs)
	if err != nil {
		return nil, err
	}

	stopNames := make([]string, len(orderedStopIDs))
	for i, sid := range orderedStopIDs {
		stopNames[i] = stopNameOr(stops, sid)
	}

	// Times are keyed by (trip, position in the trip's own main-stop
	// sequence), never by stop id, so repeated stops keep distinct times.
	timesByTrip := make(map[string][]string)
	for _, st := range timings {
		timesByTrip[st.TripID] = append(timesByTrip[st.TripID], displayTime(st))
	}

	matrix := make([][]string, 0, len(orderedStopIDs))
	for i, sid := range orderedStopIDs {
		row := make([]string, len(tripIDs)+1)
		row[0] = stopNameOr(stops, sid)
		for j, tripID := range tripIDs {
			row[j+1] = "-"
			if times := timesByTrip[tripID]; i < len(times) {
				row[j+1] = times[i]
			}
		}
		matrix = append(matrix, row)
	}

	return &models.FilteredExport{StopNames: stopNames, TripIDs: tripIDs, Matrix: matrix}, nil
}

func (p *Projector) stopsByID(ctx context.Context, dataSetID int64, stopIDs []string) (map[string]models.Stop, error) {
	seen := make(map[string]bool)
	distinct := make([]string, 0, len(stopIDs))
	for _, sid := range stopIDs {
		if !seen[sid] {
			seen[sid] = true
			distinct = append(distinct, sid)
		}
	}
	stopMap := make(map[string]models.Stop, len(distinct))
	if len(distinct) == 0 {
		return stopMap, nil
	}
	stops, err := p.ds.StopsByIDs(ctx, dataSetID, distinct)
	if err != nil {
		return nil, err
	}
	for _, s := range stops {
		stopMap[s.StopID] = s
	}
	return stopMap, nil
}
