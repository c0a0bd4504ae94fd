package evacuation

import (
	"errors"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
)

// Sentinel errors returned by the evacuation package.
var (
	// ErrNoExitFound indicates the exit selector exhausted its widening
	// policy without finding a node outside the zone boundary.
	ErrNoExitFound = errors.New("evacuation: no exit nodes found outside zone boundary")

	// ErrNoRoute indicates the search frontier was exhausted before any
	// exit candidate was reached.
	ErrNoRoute = errors.New("evacuation: no route to any exit node")

	// ErrSearchTimeout indicates the search exceeded its step budget or
	// deadline before completing. Distinct from ErrNoRoute so callers can
	// tell "unreachable" from "too expensive to determine".
	ErrSearchTimeout = errors.New("evacuation: search budget exceeded")
)

// Status classifies a person against the active disaster zones.
type Status string

const (
	StatusSafe     Status = "safe"
	StatusInDanger Status = "in_danger"
)

// Person is someone to route out of danger.
type Person struct {
	ID    string    `json:"id"`
	Point geo.Point `json:"point"`
}

// ExitCandidate is a node just outside the disaster-zone boundary,
// ranked as an evacuation target. Valid only for the zone it was
// computed against.
type ExitCandidate struct {
	NodeID               int64   `json:"node_id"`
	BorderDistanceMeters float64 `json:"border_distance_m"`
	StartDistanceMeters  float64 `json:"start_distance_m"`
	Rank                 int     `json:"rank"`
}

// Route is an ordered evacuation path from a person's start node to an
// exit node. Routes are replaced on recomputation, never mutated.
type Route struct {
	NodeIDs           []int64     `json:"node_ids"`
	Points            []geo.Point `json:"points"`
	EncodedPolyline   string      `json:"encoded_polyline"`
	TotalLengthMeters float64     `json:"total_length_m"`
	CrossesWater      bool        `json:"crosses_water"`
}

// PersonResult is the per-person outcome of a routing batch. Route is
// nil for safe people and for failures; FailureReason is empty unless
// routing failed.
type PersonResult struct {
	PersonID      string `json:"person_id"`
	Status        Status `json:"status"`
	Route         *Route `json:"route,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}
