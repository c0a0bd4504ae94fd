package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/cache"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/config"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/evacuation"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

// Invalid input fails the whole batch.
var (
	// ErrRadiusOutOfRange indicates a zone radius outside the supported
	// bounds.
	ErrRadiusOutOfRange = errors.New("services: zone radius out of range")

	// ErrInvalidZone indicates a zone center with out-of-range
	// coordinates.
	ErrInvalidZone = errors.New("services: invalid zone center")
)

const (
	defaultMinZoneRadius = 100.0
	defaultMaxZoneRadius = 5000.0
	defaultZoneCacheTTL  = 5 * time.Minute
)

// Failure reasons attached to per-person results.
const (
	FailureNoStartNode   = "no_start_node"
	FailureNoExitFound   = "no_exit_found"
	FailureNoRoute       = "no_route"
	FailureSearchTimeout = "search_timeout"
)

// EvacuationService is the routing facade: it classifies each person
// against the disaster zones, filters the road network per zone, selects
// exit candidates and runs the route search, collecting one result per
// person. Filtered graphs are cached per zone; snapshots are immutable,
// so recomputation with unchanged inputs yields identical routes.
type EvacuationService struct {
	cache      *cache.Cache
	cfg        config.RoutingConfig
	classifier network.WaterClassifier
}

// NewEvacuationService creates the facade. The network config's tag
// tables override the default OSM water vocabulary when present.
func NewEvacuationService(zoneCache *cache.Cache, cfg config.RoutingConfig, netCfg config.NetworkConfig) *EvacuationService {
	classifier := network.DefaultWaterClassifier()
	if len(netCfg.WaterNodeTags) > 0 {
		classifier.NodeRules = netCfg.WaterNodeTags
	}
	if len(netCfg.WaterEdgeTags) > 0 {
		classifier.EdgeRules = netCfg.WaterEdgeTags
	}

	return &EvacuationService{
		cache:      zoneCache,
		cfg:        cfg,
		classifier: classifier,
	}
}

// ComputeRoutes computes an evacuation route for every person in danger.
// Per-person failures never abort the batch; only an empty network or an
// invalid zone does.
func (s *EvacuationService) ComputeRoutes(ctx context.Context, people []evacuation.Person, zones []geo.Zone, g *network.Graph) ([]evacuation.PersonResult, error) {
	if g == nil || g.NodeCount() == 0 {
		return nil, network.ErrEmptyNetwork
	}
	if err := s.validateZones(zones); err != nil {
		return nil, err
	}

	logging.Infow(ctx, "Computing evacuation routes",
		"people", len(people), "zones", len(zones), "nodes", g.NodeCount())

	results := make([]evacuation.PersonResult, 0, len(people))
	for _, person := range people {
		results = append(results, s.routePerson(ctx, person, zones, g))
	}
	return results, nil
}

// routePerson produces the result for a single person.
func (s *EvacuationService) routePerson(ctx context.Context, person evacuation.Person, zones []geo.Zone, g *network.Graph) evacuation.PersonResult {
	zone, inDanger := containingZone(person.Point, zones)
	if !inDanger {
		return evacuation.PersonResult{PersonID: person.ID, Status: evacuation.StatusSafe}
	}

	result := evacuation.PersonResult{PersonID: person.ID, Status: evacuation.StatusInDanger}

	fg, err := s.filteredGraph(ctx, zone, g)
	if err != nil {
		// Graph was validated non-empty above; classify defensively anyway
		result.FailureReason = FailureNoRoute
		return result
	}

	start, err := fg.NearestNode(person.Point)
	if err != nil {
		logging.Warnw(ctx, "No start node for person", "person", person.ID, "error", err)
		result.FailureReason = FailureNoStartNode
		return result
	}

	exits, err := evacuation.SelectExits(fg, start, s.selectorOptions())
	if err != nil {
		logging.Warnw(ctx, "No exit candidates for person", "person", person.ID, "error", err)
		result.FailureReason = FailureNoExitFound
		return result
	}

	route, err := evacuation.FindRoute(ctx, fg, start, exits, s.searchOptions(false))
	if errors.Is(err, evacuation.ErrNoRoute) && !s.cfg.DisableWaterFallback {
		// No water-free path exists; retry with water edges priced in.
		// Any route found this way carries CrossesWater.
		logging.Infow(ctx, "Retrying route search over water edges", "person", person.ID)
		route, err = evacuation.FindRoute(ctx, fg, start, exits, s.searchOptions(true))
	}
	if err != nil {
		result.FailureReason = failureReason(err)
		return result
	}

	result.Route = route
	return result
}

// filteredGraph returns the per-zone network snapshot, building and
// caching it on first use.
func (s *EvacuationService) filteredGraph(ctx context.Context, zone geo.Zone, g *network.Graph) (*network.FilteredGraph, error) {
	key := cache.ZoneKey(zone)
	if v, ok := s.cache.Get(key); ok {
		if fg, ok := v.(*network.FilteredGraph); ok {
			return fg, nil
		}
	}

	fg, err := network.Filter(g, zone, s.classifier)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.ZoneCacheTTL
	if ttl <= 0 {
		ttl = defaultZoneCacheTTL
	}
	s.cache.Set(key, fg, ttl)
	logging.Infow(ctx, "Cached filtered network for zone", "key", key, "ttl", ttl)
	return fg, nil
}

func (s *EvacuationService) validateZones(zones []geo.Zone) error {
	min := s.cfg.MinZoneRadiusMeters
	if min <= 0 {
		min = defaultMinZoneRadius
	}
	max := s.cfg.MaxZoneRadiusMeters
	if max <= 0 {
		max = defaultMaxZoneRadius
	}

	for _, zone := range zones {
		if zone.RadiusMeters < min || zone.RadiusMeters > max {
			return fmt.Errorf("%w: %.0fm not in [%.0f, %.0f]", ErrRadiusOutOfRange, zone.RadiusMeters, min, max)
		}
		if !geo.IsValidCoordinate(zone.Center) {
			return fmt.Errorf("%w: (%f, %f)", ErrInvalidZone, zone.Center.Latitude, zone.Center.Longitude)
		}
	}
	return nil
}

func (s *EvacuationService) selectorOptions() evacuation.SelectorOptions {
	return evacuation.SelectorOptions{
		BufferMeters:  s.cfg.ExitBufferMeters,
		MaxCandidates: s.cfg.MaxExitCandidates,
	}
}

func (s *EvacuationService) searchOptions(allowWater bool) evacuation.SearchOptions {
	return evacuation.SearchOptions{
		WaterPenaltyFactor: s.cfg.WaterPenaltyFactor,
		MinorRoadFactor:    s.cfg.MinorRoadFactor,
		MaxSteps:           s.cfg.MaxSearchSteps,
		AllowWaterEdges:    allowWater,
	}
}

// containingZone returns the first zone containing the point, in input
// order.
func containingZone(p geo.Point, zones []geo.Zone) (geo.Zone, bool) {
	for _, zone := range zones {
		if geo.InZone(p, zone) {
			return zone, true
		}
	}
	return geo.Zone{}, false
}

// failureReason maps search errors to the per-person failure taxonomy.
func failureReason(err error) string {
	switch {
	case errors.Is(err, evacuation.ErrSearchTimeout):
		return FailureSearchTimeout
	default:
		return FailureNoRoute
	}
}
