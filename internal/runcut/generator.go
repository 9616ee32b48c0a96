// Package runcut turns normalized schedule rows into run-cut reports:
// flat trip rows expanded across service dates, filtered by day type, and
// pivoted into a stop-by-trip time matrix.
package runcut

import (
	"context"
	"sort"

	"github.com/yourorg/runcutweb/internal/models"
)

// DataSource is the read surface the report engine needs. *store.Store
// satisfies it.
type DataSource interface {
	RouteByID(ctx context.Context, dataSetID int64, routeID string) (*models.Route, error)
	TripsByRoute(ctx context.Context, dataSetID int64, routeID string, directionID *int, serviceID string) ([]models.Trip, error)
	StopTimingsForTrips(ctx context.Context, dataSetID int64, tripIDs []string, mainOnly bool) ([]models.StopTiming, error)
	StopsByIDs(ctx context.Context, dataSetID int64, stopIDs []string) ([]models.Stop, error)
	ServiceDatesAdded(ctx context.Context, dataSetID int64, serviceIDs []string) (map[string][]string, error)
	DayNames(ctx context.Context) (map[int]string, error)
}

// Generator builds run-cut reports from a data source.
type Generator struct {
	ds DataSource
}

// NewGenerator builds a generator.
func NewGenerator(ds DataSource) *Generator {
	return &Generator{ds: ds}
}

// Generate produces the run-cut report for one route of a dataset. When no
// trips match the filters the result is empty, not an error. The same
// inputs against unmodified data always produce identical output.
func (g *Generator) Generate(ctx context.Context, dataSetID int64, opts models.RunCutOptions) (*models.RunCutResult, error) {
	trips, err := g.ds.TripsByRoute(ctx, dataSetID, opts.RouteID, opts.DirectionID, opts.ServiceID)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return emptyResult(), nil
	}

	route, err := g.ds.RouteByID(ctx, dataSetID, opts.RouteID)
	if err != nil {
		return nil, err
	}

	tripIDs := make([]string, len(trips))
	for i, t := range trips {
		tripIDs[i] = t.TripID
	}
	timings, err := g.ds.StopTimingsForTrips(ctx, dataSetID, tripIDs, false)
	if err != nil {
		return nil, err
	}

	stopMap, err := g.stopsFor(ctx, dataSetID, timings)
	if err != nil {
		return nil, err
	}

	tripLevel := buildTripLevelRows(trips, timings, stopMap, route)

	serviceIDs := distinctServiceIDs(tripLevel)
	serviceDates, err := g.ds.ServiceDatesAdded(ctx, dataSetID, serviceIDs)
	if err != nil {
		return nil, err
	}
	dayNames, err := g.ds.DayNames(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []models.OutputRow
	if opts.OneRowPerTrip {
		filtered = selectOneRowPerTrip(tripLevel, serviceDates, dayNames, opts)
	} else {
		filtered = expandAndFilter(tripLevel, serviceDates, dayNames, opts)
	}

	var data []models.OutputRow
	switch {
	case opts.OneRowPerTrip, !opts.GroupByDate:
		data = withTripCount(filtered)
	default:
		data = groupByServiceDate(filtered)
	}

	display := preferDirectionOne(filtered)
	stopNames, rows := buildMatrix(display, trips, timings, stopMap)

	return &models.RunCutResult{StopNames: stopNames, Rows: rows, Data: data}, nil
}

func emptyResult() *models.RunCutResult {
	return &models.RunCutResult{
		StopNames: []string{},
		Rows:      [][]string{},
		Data:      []models.OutputRow{},
	}
}

func (g *Generator) stopsFor(ctx context.Context, dataSetID int64, timings []models.StopTiming) (map[string]models.Stop, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, st := range timings {
		if !seen[st.StopID] {
			seen[st.StopID] = true
			ids = append(ids, st.StopID)
		}
	}
	stopMap := make(map[string]models.Stop, len(ids))
	if len(ids) == 0 {
		return stopMap, nil
	}
	stops, err := g.ds.StopsByIDs(ctx, dataSetID, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range stops {
		stopMap[s.StopID] = s
	}
	return stopMap, nil
}

// buildTripLevelRows collapses each trip's ordered stop timings into one
// row carrying route metadata, the first and last stop with their times,
// and the stop count. Trips with no timings are dropped. Timings must
// arrive ordered by trip then stop sequence.
func buildTripLevelRows(trips []models.Trip, timings []models.StopTiming, stops map[string]models.Stop, route *models.Route) []models.TripLevelRow {
	byTrip := make(map[string][]models.StopTiming)
	for _, st := range timings {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	rows := make([]models.TripLevelRow, 0, len(trips))
	for _, trip := range trips {
		tts := byTrip[trip.TripID]
		if len(tts) == 0 {
			continue
		}
		first, last := tts[0], tts[len(tts)-1]

		row := models.TripLevelRow{
			RouteID:       trip.RouteID,
			ServiceID:     trip.ServiceID,
			TripID:        trip.TripID,
			TripHeadsign:  trip.TripHeadsign,
			DirectionID:   trip.DirectionID,
			ShapeID:       trip.ShapeID,
			FirstStopID:   first.StopID,
			FirstStopName: stops[first.StopID].StopName,
			StartTime:     preferTime(first.DepartureTime, first.ArrivalTime),
			LastStopID:    last.StopID,
			LastStopName:  stops[last.StopID].StopName,
			EndTime:       preferTime(last.ArrivalTime, last.DepartureTime),
			StopCount:     len(tts),
		}
		if route != nil {
			row.RouteID = route.RouteID
			row.RouteShortName = route.RouteShortName
			row.RouteLongName = route.RouteLongName
			row.RouteType = route.RouteType
			row.AgencyID = route.AgencyID
		}
		rows = append(rows, row)
	}
	return rows
}

func preferTime(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func distinctServiceIDs(rows []models.TripLevelRow) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, r := range rows {
		if !seen[r.ServiceID] {
			seen[r.ServiceID] = true
			ids = append(ids, r.ServiceID)
		}
	}
	return ids
}

// expandAndFilter emits one row per (trip, service date), ordered by date
// then trip id, then drops rows whose weekday fails the day-type selection.
// A trip with no resolved dates keeps a single row with a blank date, and
// blank-day rows always pass the filter.
func expandAndFilter(rows []models.TripLevelRow, serviceDates map[string][]string, dayNames map[int]string, opts models.RunCutOptions) []models.OutputRow {
	expanded := make([]models.OutputRow, 0, len(rows))
	for _, row := range rows {
		dates := serviceDates[row.ServiceID]
		if len(dates) == 0 {
			expanded = append(expanded, makeOutputRow(row, "", dayNames))
			continue
		}
		for _, date := range dates {
			expanded = append(expanded, makeOutputRow(row, date, dayNames))
		}
	}

	sort.SliceStable(expanded, func(i, j int) bool {
		if expanded[i].ServiceDate != expanded[j].ServiceDate {
			return expanded[i].ServiceDate < expanded[j].ServiceDate
		}
		return expanded[i].TripID < expanded[j].TripID
	})

	filtered := make([]models.OutputRow, 0, len(expanded))
	for _, row := range expanded {
		if row.DayOfWeekName == "" || matchesDayType(row.DayOfWeekName, opts) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// selectOneRowPerTrip keeps one row per trip with no date expansion. A trip
// with no resolved dates keeps a blank-date row; otherwise the first
// ascending date passing the day-type selection becomes the row's date, and
// trips with dates but no passing date are dropped. Output is ordered by
// trip id.
func selectOneRowPerTrip(rows []models.TripLevelRow, serviceDates map[string][]string, dayNames map[int]string, opts models.RunCutOptions) []models.OutputRow {
	out := make([]models.OutputRow, 0, len(rows))
	for _, row := range rows {
		dates := serviceDates[row.ServiceID]
		if len(dates) == 0 {
			out = append(out, makeOutputRow(row, "", dayNames))
			continue
		}
		if date := firstMatchingDate(dates, dayNames, opts); date != "" {
			out = append(out, makeOutputRow(row, date, dayNames))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TripID < out[j].TripID })
	return out
}

func makeOutputRow(row models.TripLevelRow, serviceDate string, dayNames map[int]string) models.OutputRow {
	return models.OutputRow{
		TripLevelRow:  row,
		ServiceDate:   serviceDate,
		DayOfWeekName: dayName(serviceDate, dayNames),
	}
}

func withTripCount(rows []models.OutputRow) []models.OutputRow {
	out := make([]models.OutputRow, len(rows))
	for i, row := range rows {
		row.TripCount = 1
		out[i] = row
	}
	return out
}

// groupByServiceDate collapses rows sharing a service date into one row
// keeping the first row's descriptive fields, blanking the trip id, and
// counting the collapsed trips. Output is ordered by service date.
func groupByServiceDate(rows []models.OutputRow) []models.OutputRow {
	order := make([]string, 0)
	groups := make(map[string][]models.OutputRow)
	for _, row := range rows {
		if _, ok := groups[row.ServiceDate]; !ok {
			order = append(order, row.ServiceDate)
		}
		groups[row.ServiceDate] = append(groups[row.ServiceDate], row)
	}
	sort.Strings(order)

	out := make([]models.OutputRow, 0, len(order))
	for _, date := range order {
		group := groups[date]
		row := group[0]
		row.TripID = ""
		row.TripCount = len(group)
		out = append(out, row)
	}
	return out
}

// preferDirectionOne picks the rows that feed the matrix: the subset with
// direction 1 when non-empty, otherwise all filtered rows.
func preferDirectionOne(rows []models.OutputRow) []models.OutputRow {
	dir1 := make([]models.OutputRow, 0, len(rows))
	for _, row := range rows {
		if row.DirectionID != nil && *row.DirectionID == 1 {
			dir1 = append(dir1, row)
		}
	}
	if len(dir1) > 0 {
		return dir1
	}
	return rows
}

// buildMatrix pivots display rows into the stop-by-trip time matrix. Column
// order comes from the main-stop (timepoint 1) sequence of the first
// display row's trip, falling back to the first fetched trip. Cells are
// keyed by (trip, stop) and truncated to HH:MM, "-" where the trip has no
// main-stop timing for that column.
func buildMatrix(display []models.OutputRow, trips []models.Trip, timings []models.StopTiming, stops map[string]models.Stop) ([]string, [][]string) {
	refTripID := trips[0].TripID
	if len(display) > 0 && display[0].TripID != "" {
		for _, t := range trips {
			if t.TripID == display[0].TripID {
				refTripID = t.TripID
				break
			}
		}
	}

	orderedStopIDs := make([]string, 0)
	for _, st := range timings {
		if st.TripID == refTripID && st.Timepoint != nil && *st.Timepoint == 1 {
			orderedStopIDs = append(orderedStopIDs, st.StopID)
		}
	}

	stopNames := make([]string, len(orderedStopIDs))
	for i, sid := range orderedStopIDs {
		stopNames[i] = stopNameOr(stops, sid)
	}

	timeLookup := make(map[string]map[string]string)
	for _, st := range timings {
		if st.Timepoint == nil || *st.Timepoint != 1 {
			continue
		}
		byStop := timeLookup[st.TripID]
		if byStop == nil {
			byStop = make(map[string]string)
			timeLookup[st.TripID] = byStop
		}
		byStop[st.StopID] = displayTime(st)
	}

	rows := make([][]string, 0, len(display))
	for _, row := range display {
		cells := make([]string, len(orderedStopIDs))
		for i, sid := range orderedStopIDs {
			cells[i] = "-"
			if t, ok := timeLookup[row.TripID][sid]; ok {
				cells[i] = t
			}
		}
		rows = append(rows, cells)
	}
	return stopNames, rows
}

func stopNameOr(stops map[string]models.Stop, stopID string) string {
	if s, ok := stops[stopID]; ok && s.StopName != "" {
		return s.StopName
	}
	return stopID
}

// displayTime picks departure over arrival and truncates HH:MM:SS to HH:MM.
func displayTime(st models.StopTiming) string {
	t := st.DepartureTime
	if t == "" {
		t = st.ArrivalTime
	}
	if t == "" {
		return "-"
	}
	if len(t) > 5 {
		t = t[:5]
	}
	return t
}
