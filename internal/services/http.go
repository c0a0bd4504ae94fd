package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/cache"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/config"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/evacuation"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/export"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

const (
	// minFetchRadiusMeters matches the smallest road-network download
	// area; small zones still need surrounding roads to route through.
	minFetchRadiusMeters = 5000.0

	defaultFetchRadiusMultiple = 1.5

	graphCacheTTL = 15 * time.Minute
)

// NetworkFetcher acquires a road network around a center point. Fetching
// completes before routing starts; the routing core never blocks on I/O.
type NetworkFetcher interface {
	FetchRoadNetwork(ctx context.Context, center geo.Point, radiusMeters float64) (*network.Graph, error)
}

// ComputeRoutesRequest is the JSON body of the routing endpoint.
type ComputeRoutesRequest struct {
	People []evacuation.Person `json:"people"`
	Zones  []geo.Zone          `json:"zones"`
}

// ComputeRoutesResponse is the JSON reply of the routing endpoint.
type ComputeRoutesResponse struct {
	Results    []evacuation.PersonResult `json:"results"`
	ComputedAt time.Time                 `json:"computed_at"`
}

// RoutesHandler serves the evacuation-routing endpoint: it acquires the
// road network for the requested area (cached), delegates to the
// facade, and renders JSON or KML.
type RoutesHandler struct {
	svc        *EvacuationService
	fetcher    NetworkFetcher
	overpass   config.OverpassConfig
	graphCache *cache.Cache
}

// NewRoutesHandler creates the handler.
func NewRoutesHandler(svc *EvacuationService, fetcher NetworkFetcher, overpass config.OverpassConfig, graphCache *cache.Cache) *RoutesHandler {
	return &RoutesHandler{
		svc:        svc,
		fetcher:    fetcher,
		overpass:   overpass,
		graphCache: graphCache,
	}
}

// Handle implements POST /api/v1/evacuation/routes. Append ?format=kml
// for a KML document instead of JSON.
func (h *RoutesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ComputeRoutesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Zones) == 0 {
		http.Error(w, "at least one disaster zone is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	g, err := h.roadNetwork(ctx, req.Zones)
	if err != nil {
		logging.Errorw(ctx, "Failed to acquire road network", "error", err)
		http.Error(w, "failed to acquire road network: "+err.Error(), http.StatusBadGateway)
		return
	}

	results, err := h.svc.ComputeRoutes(ctx, req.People, req.Zones, g)
	switch {
	case errors.Is(err, ErrRadiusOutOfRange), errors.Is(err, ErrInvalidZone):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, network.ErrEmptyNetwork):
		http.Error(w, "no road network in the requested area", http.StatusBadGateway)
		return
	case err != nil:
		logging.Errorw(ctx, "Routing batch failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "kml" {
		w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
		if err := export.RenderKML(w, req.Zones, results); err != nil {
			logging.Errorw(ctx, "Failed to render KML", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := ComputeRoutesResponse{Results: results, ComputedAt: time.Now().UTC()}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Errorw(ctx, "Failed to write response", "error", err)
	}
}

// roadNetwork fetches (or reuses) the road graph covering all requested
// zones. The download is centered on the first zone and sized to the
// largest zone radius.
func (h *RoutesHandler) roadNetwork(ctx context.Context, zones []geo.Zone) (*network.Graph, error) {
	center := zones[0].Center
	radius := h.fetchRadius(zones)

	key := fmt.Sprintf("graph:%.4f:%.4f:%.0f", center.Latitude, center.Longitude, radius)
	if v, ok := h.graphCache.Get(key); ok {
		if g, ok := v.(*network.Graph); ok {
			return g, nil
		}
	}

	g, err := h.fetcher.FetchRoadNetwork(ctx, center, radius)
	if err != nil {
		return nil, err
	}

	h.graphCache.Set(key, g, graphCacheTTL)
	logging.Infow(ctx, "Fetched road network",
		"nodes", g.NodeCount(), "edges", g.EdgeCount(), "radius_m", radius)
	return g, nil
}

func (h *RoutesHandler) fetchRadius(zones []geo.Zone) float64 {
	multiple := h.overpass.FetchRadiusMultiple
	if multiple <= 0 {
		multiple = defaultFetchRadiusMultiple
	}

	var maxRadius float64
	for _, zone := range zones {
		if zone.RadiusMeters > maxRadius {
			maxRadius = zone.RadiusMeters
		}
	}

	radius := maxRadius * multiple
	if radius < minFetchRadiusMeters {
		radius = minFetchRadiusMeters
	}
	return radius
}
