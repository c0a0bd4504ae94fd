package evacuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

const lonStep = 0.0045 // ~500m at the equator

// eastRoad builds a bidirectional west-east road from (0,0) with the
// given number of 500m segments. Node IDs run 0..segments.
func eastRoad(t *testing.T, segments int, edgeTags map[string]string) *network.FilteredGraph {
	t.Helper()

	var nodes []network.Node
	for i := 0; i <= segments; i++ {
		nodes = append(nodes, network.Node{
			ID:    int64(i),
			Point: geo.Point{Latitude: 0, Longitude: float64(i) * lonStep},
		})
	}

	var edges []network.Edge
	for i := 0; i < segments; i++ {
		edges = append(edges,
			network.Edge{From: int64(i), To: int64(i + 1), LengthMeters: 500, Highway: "primary", Tags: edgeTags},
			network.Edge{From: int64(i + 1), To: int64(i), LengthMeters: 500, Highway: "primary", Tags: edgeTags},
		)
	}

	zone := geo.Zone{Center: geo.Point{Latitude: 0, Longitude: 0}, RadiusMeters: 1000}
	fg, err := network.Filter(network.NewGraph(nodes, edges), zone, nil)
	require.NoError(t, err)
	return fg
}

// nodesAt builds a filtered graph from explicit node longitudes (degrees
// east of the zone center at the origin), no edges.
func nodesAt(t *testing.T, zone geo.Zone, lons ...float64) *network.FilteredGraph {
	t.Helper()

	var nodes []network.Node
	for i, lon := range lons {
		nodes = append(nodes, network.Node{
			ID:    int64(i),
			Point: geo.Point{Latitude: 0, Longitude: lon},
		})
	}
	fg, err := network.Filter(network.NewGraph(nodes, nil), zone, nil)
	require.NoError(t, err)
	return fg
}

func TestSelectExits_BoundaryBand(t *testing.T) {
	fg := eastRoad(t, 5, nil)

	exits, err := SelectExits(fg, 0, SelectorOptions{})
	require.NoError(t, err)
	require.Len(t, exits, 1)

	// Node 2 sits ~1001m from center: just past the boundary, inside the
	// 100m buffer. Nodes 3..5 are beyond the band.
	assert.Equal(t, int64(2), exits[0].NodeID)
	assert.Equal(t, 1, exits[0].Rank)
	assert.Greater(t, exits[0].BorderDistanceMeters, 0.0)
	assert.LessOrEqual(t, exits[0].BorderDistanceMeters, 100.0)
}

func TestSelectExits_RanksByStartDistance(t *testing.T) {
	zone := geo.Zone{Center: geo.Point{}, RadiusMeters: 1000}
	// Start node inside the zone, two candidates in the band at ~1030m
	// and ~1070m from center.
	fg := nodesAt(t, zone, 0, 0.00927, 0.00963)

	exits, err := SelectExits(fg, 0, SelectorOptions{})
	require.NoError(t, err)
	require.Len(t, exits, 2)
	assert.Equal(t, int64(1), exits[0].NodeID)
	assert.Equal(t, int64(2), exits[1].NodeID)
	assert.Equal(t, []int{1, 2}, []int{exits[0].Rank, exits[1].Rank})
	assert.Less(t, exits[0].StartDistanceMeters, exits[1].StartDistanceMeters)
}

func TestSelectExits_MaxCandidates(t *testing.T) {
	zone := geo.Zone{Center: geo.Point{}, RadiusMeters: 1000}
	// Eleven nodes spread through the buffer band.
	lons := []float64{0}
	for i := 0; i < 11; i++ {
		lons = append(lons, 0.00905+float64(i)*0.00007)
	}
	fg := nodesAt(t, zone, lons...)

	exits, err := SelectExits(fg, 0, SelectorOptions{})
	require.NoError(t, err)
	assert.Len(t, exits, DefaultMaxCandidates)

	exits, err = SelectExits(fg, 0, SelectorOptions{MaxCandidates: 3})
	require.NoError(t, err)
	assert.Len(t, exits, 3)
}

func TestSelectExits_WidensBuffer(t *testing.T) {
	zone := geo.Zone{Center: geo.Point{}, RadiusMeters: 1000}
	// Nearest qualifying node sits ~300m beyond the boundary: outside
	// the configured 100m buffer, found after widening to 400m.
	fg := nodesAt(t, zone, 0, 0.0117)

	exits, err := SelectExits(fg, 0, SelectorOptions{BufferMeters: 100})
	require.NoError(t, err)
	require.Len(t, exits, 1)
	assert.Equal(t, int64(1), exits[0].NodeID)
	assert.InDelta(t, 300, exits[0].BorderDistanceMeters, 10)
}

func TestSelectExits_WideningTerminates(t *testing.T) {
	zone := geo.Zone{Center: geo.Point{}, RadiusMeters: 1000}
	// Only node beyond the boundary is ~1000m past it, outside even the
	// 5x widened buffer (500m).
	fg := nodesAt(t, zone, 0, 0.018)

	_, err := SelectExits(fg, 0, SelectorOptions{BufferMeters: 100})
	assert.ErrorIs(t, err, ErrNoExitFound)
}

func TestSelectExits_SkipsWaterNodes(t *testing.T) {
	zone := geo.Zone{Center: geo.Point{}, RadiusMeters: 1000}
	nodes := []network.Node{
		{ID: 0, Point: geo.Point{Latitude: 0, Longitude: 0}},
		{ID: 1, Point: geo.Point{Latitude: 0, Longitude: 0.0093}, Tags: map[string]string{"natural": "water"}},
		{ID: 2, Point: geo.Point{Latitude: 0, Longitude: 0.0095}},
	}
	fg, err := network.Filter(network.NewGraph(nodes, nil), zone, nil)
	require.NoError(t, err)

	exits, err := SelectExits(fg, 0, SelectorOptions{})
	require.NoError(t, err)
	require.Len(t, exits, 1)
	assert.Equal(t, int64(2), exits[0].NodeID)
}

func TestSelectExits_UnknownStart(t *testing.T) {
	fg := eastRoad(t, 5, nil)

	_, err := SelectExits(fg, 999, SelectorOptions{})
	assert.ErrorIs(t, err, ErrNoExitFound)
}
