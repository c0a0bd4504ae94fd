package services

import (
	"context"
	"testing"

	"github.com/dpup/prefab/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/cache"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/config"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/evacuation"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

const lonStep = 0.0045 // ~500m at the equator

// eastRoadGraph builds a bidirectional west-east road of 500m segments
// starting at (0,0).
func eastRoadGraph(segments int, edgeTags map[string]string) *network.Graph {
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

	return network.NewGraph(nodes, edges)
}

func newService(cfg config.RoutingConfig) *EvacuationService {
	return NewEvacuationService(cache.New(), cfg, config.NetworkConfig{})
}

func testZone() geo.Zone {
	return geo.Zone{Center: geo.Point{Latitude: 0, Longitude: 0}, RadiusMeters: 1000}
}

func TestComputeRoutes_PersonInDanger(t *testing.T) {
	svc := newService(config.RoutingConfig{})
	g := eastRoadGraph(5, nil)

	people := []evacuation.Person{{ID: "p1", Point: geo.Point{Latitude: 0, Longitude: 0}}}
	results, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "p1", r.PersonID)
	assert.Equal(t, evacuation.StatusInDanger, r.Status)
	assert.Empty(t, r.FailureReason)
	require.NotNil(t, r.Route)
	assert.GreaterOrEqual(t, r.Route.TotalLengthMeters, 1000.0)
	assert.False(t, r.Route.CrossesWater)
}

func TestComputeRoutes_PersonSafe(t *testing.T) {
	svc := newService(config.RoutingConfig{})
	g := eastRoadGraph(5, nil)

	// ~2.2km east of the zone center
	people := []evacuation.Person{{ID: "p1", Point: geo.Point{Latitude: 0, Longitude: 0.02}}}
	results, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, evacuation.StatusSafe, results[0].Status)
	assert.Nil(t, results[0].Route)
	assert.Empty(t, results[0].FailureReason)
}

func TestComputeRoutes_EmptyNetwork(t *testing.T) {
	svc := newService(config.RoutingConfig{})

	_, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), nil, []geo.Zone{testZone()}, nil)
	assert.ErrorIs(t, err, network.ErrEmptyNetwork)

	_, err = svc.ComputeRoutes(logging.EnsureLogger(context.Background()), nil, []geo.Zone{testZone()}, network.NewGraph(nil, nil))
	assert.ErrorIs(t, err, network.ErrEmptyNetwork)
}

func TestComputeRoutes_RadiusValidation(t *testing.T) {
	svc := newService(config.RoutingConfig{})
	g := eastRoadGraph(5, nil)

	zone := geo.Zone{Center: geo.Point{}, RadiusMeters: 50} // below the 100m floor
	_, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), nil, []geo.Zone{zone}, g)
	assert.ErrorIs(t, err, ErrRadiusOutOfRange)

	zone.RadiusMeters = 9000 // above the 5000m ceiling
	_, err = svc.ComputeRoutes(logging.EnsureLogger(context.Background()), nil, []geo.Zone{zone}, g)
	assert.ErrorIs(t, err, ErrRadiusOutOfRange)

	bad := geo.Zone{Center: geo.Point{Latitude: 200}, RadiusMeters: 1000}
	_, err = svc.ComputeRoutes(logging.EnsureLogger(context.Background()), nil, []geo.Zone{bad}, g)
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestComputeRoutes_PerPersonFailuresDoNotAbortBatch(t *testing.T) {
	svc := newService(config.RoutingConfig{})
	// Road fully tagged as water: routing fails per person, but the
	// batch itself succeeds.
	g := eastRoadGraph(5, map[string]string{"waterway": "river"})

	people := []evacuation.Person{
		{ID: "stuck", Point: geo.Point{Latitude: 0, Longitude: 0}},
		{ID: "fine", Point: geo.Point{Latitude: 0, Longitude: 0.02}},
	}
	results, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Default config falls back across water and flags the route
	require.NotNil(t, results[0].Route)
	assert.True(t, results[0].Route.CrossesWater)
	assert.Equal(t, evacuation.StatusSafe, results[1].Status)
}

func TestComputeRoutes_WaterFallbackDisabled(t *testing.T) {
	svc := newService(config.RoutingConfig{})
	svc.cfg.DisableWaterFallback = true
	g := eastRoadGraph(5, map[string]string{"waterway": "river"})

	people := []evacuation.Person{{ID: "stuck", Point: geo.Point{Latitude: 0, Longitude: 0}}}
	results, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Nil(t, results[0].Route)
	assert.Equal(t, FailureNoRoute, results[0].FailureReason)
}

func TestComputeRoutes_Idempotent(t *testing.T) {
	svc := newService(config.RoutingConfig{})
	g := eastRoadGraph(5, nil)
	people := []evacuation.Person{{ID: "p1", Point: geo.Point{Latitude: 0, Longitude: 0}}}
	zones := []geo.Zone{testZone()}

	first, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, zones, g)
	require.NoError(t, err)
	second, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, zones, g)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must yield identical routes")
}

func TestComputeRoutes_CachesFilteredGraphPerZone(t *testing.T) {
	zoneCache := cache.New()
	svc := NewEvacuationService(zoneCache, config.RoutingConfig{}, config.NetworkConfig{})
	g := eastRoadGraph(5, nil)
	people := []evacuation.Person{{ID: "p1", Point: geo.Point{Latitude: 0, Longitude: 0}}}

	_, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	assert.Equal(t, 1, zoneCache.Len())

	// Same zone again: no new entry
	_, err = svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	assert.Equal(t, 1, zoneCache.Len())

	// Resized zone: new snapshot
	resized := geo.Zone{Center: geo.Point{}, RadiusMeters: 1500}
	_, err = svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{resized}, g)
	require.NoError(t, err)
	assert.Equal(t, 2, zoneCache.Len())
}

func TestComputeRoutes_SearchTimeout(t *testing.T) {
	svc := newService(config.RoutingConfig{MaxSearchSteps: 1})
	g := eastRoadGraph(5, nil)

	people := []evacuation.Person{{ID: "p1", Point: geo.Point{Latitude: 0, Longitude: 0}}}
	results, err := svc.ComputeRoutes(logging.EnsureLogger(context.Background()), people, []geo.Zone{testZone()}, g)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, FailureSearchTimeout, results[0].FailureReason)
}
