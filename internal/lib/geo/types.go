package geo

// Point represents a geographic coordinate in WGS84 degrees
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Zone represents a circular disaster zone: every point within
// RadiusMeters of Center is considered in danger.
type Zone struct {
	Center       Point   `json:"center"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Contains reports whether p lies inside the zone (boundary inclusive).
func (z Zone) Contains(p Point) bool {
	return Distance(p, z.Center) <= z.RadiusMeters
}
