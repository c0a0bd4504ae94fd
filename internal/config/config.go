package config

import "time"

// Config represents the complete server configuration. Sections are
// unmarshalled from prefab's config system (prefab.yaml plus PF__
// environment variables).
type Config struct {
	Routing  RoutingConfig  `yaml:"routing"`
	Network  NetworkConfig  `yaml:"network"`
	Overpass OverpassConfig `yaml:"overpass"`
}

// RoutingConfig holds tunables for exit selection and route search.
// Zero values fall back to the library defaults.
type RoutingConfig struct {
	ExitBufferMeters     float64       `yaml:"exit_buffer_meters"`
	MaxExitCandidates    int           `yaml:"max_exit_candidates"`
	WaterPenaltyFactor   float64       `yaml:"water_penalty_factor"`
	MinorRoadFactor      float64       `yaml:"minor_road_factor"`
	MaxSearchSteps       int           `yaml:"max_search_steps"`
	DisableWaterFallback bool          `yaml:"disable_water_fallback"`
	MinZoneRadiusMeters  float64       `yaml:"min_zone_radius_meters"`
	MaxZoneRadiusMeters  float64       `yaml:"max_zone_radius_meters"`
	ZoneCacheTTL         time.Duration `yaml:"zone_cache_ttl"`
}

// NetworkConfig holds the water-classification tag tables. Empty tables
// fall back to the default OSM vocabulary.
type NetworkConfig struct {
	WaterNodeTags map[string][]string `yaml:"water_node_tags"`
	WaterEdgeTags map[string][]string `yaml:"water_edge_tags"`
}

// OverpassConfig holds road-network acquisition settings.
type OverpassConfig struct {
	Endpoint            string        `yaml:"endpoint"`
	Timeout             time.Duration `yaml:"timeout"`
	FetchRadiusMultiple float64       `yaml:"fetch_radius_multiple"`
}
