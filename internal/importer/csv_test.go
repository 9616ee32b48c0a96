package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderIndexNormalizesCase(t *testing.T) {
	idx := headerIndex([]string{"Route_ID", " agency_id ", "ROUTE_TYPE"})
	assert.Equal(t, 0, idx["route_id"])
	assert.Equal(t, 1, idx["agency_id"])
	assert.Equal(t, 2, idx["route_type"])
}

func TestResolveFieldAbbreviatedHeaders(t *testing.T) {
	// truncated export headers as produced by some agency tooling
	idx := headerIndex([]string{"route_id", "route_sho", "route_long", "route_col"})
	record := []string{"R1", "10", "Crosstown", "FF0000"}

	assert.Equal(t, "R1", resolveField(record, idx, "route_id"))
	assert.Equal(t, "10", resolveField(record, idx, "route_short_name"))
	assert.Equal(t, "Crosstown", resolveField(record, idx, "route_long_name"))
	assert.Equal(t, "FF0000", resolveField(record, idx, "route_color"))
	assert.Equal(t, "", resolveField(record, idx, "route_desc"))
}

func TestResolveFieldShortRecord(t *testing.T) {
	idx := headerIndex([]string{"trip_id", "service_id", "block_id"})
	// ragged row with fewer fields than headers
	record := []string{"T1", "WKD"}

	assert.Equal(t, "WKD", resolveField(record, idx, "service_id"))
	assert.Equal(t, "", resolveField(record, idx, "block_id"))
}

func TestParseIntPtr(t *testing.T) {
	require.NotNil(t, parseIntPtr("3"))
	assert.Equal(t, 3, *parseIntPtr("3"))
	assert.Equal(t, 1, *parseIntPtr(" 1 "))
	assert.Nil(t, parseIntPtr(""))
	assert.Nil(t, parseIntPtr("abc"))
	assert.Nil(t, parseIntPtr("1.5"))
}

func TestParseFloatPtr(t *testing.T) {
	require.NotNil(t, parseFloatPtr("-33.45"))
	assert.InDelta(t, -33.45, *parseFloatPtr("-33.45"), 1e-9)
	assert.Nil(t, parseFloatPtr(""))
	assert.Nil(t, parseFloatPtr("north"))
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "20250106", parseDate("20250106"))
	assert.Equal(t, "20250106", parseDate("2025-01-06"))
	assert.Equal(t, "20250106", parseDate("2025/01/06"))
	assert.Equal(t, "20250106", parseDate("01/06/2025"))
	assert.Equal(t, "", parseDate(""))
	assert.Equal(t, "", parseDate("yesterday"))
	assert.Equal(t, "", parseDate("20251340"))
}

func TestNewCSVReaderToleratesRaggedRows(t *testing.T) {
	r := newCSVReader(strings.NewReader("a,b,c\n1,2\n1,2,3,4\n"))

	header, err := r.Read()
	require.NoError(t, err)
	assert.Len(t, header, 3)

	short, err := r.Read()
	require.NoError(t, err)
	assert.Len(t, short, 2)

	long, err := r.Read()
	require.NoError(t, err)
	assert.Len(t, long, 4)
}
