package network

import (
	"math"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
)

// ClassifiedEdge is an edge annotated with its per-zone water
// classification.
type ClassifiedEdge struct {
	Edge
	Water bool
}

// FilteredGraph is an immutable per-zone view of the road network. All
// nodes are retained; water edges stay present but are excluded from the
// traversable edge set rather than deleted, so the search can still fall
// back to them when nothing else connects.
type FilteredGraph struct {
	graph          *Graph
	zone           geo.Zone
	waterNodes     map[int64]bool
	adjacency      map[int64][]ClassifiedEdge
	traversable    map[int64][]ClassifiedEdge
	distFromCenter map[int64]float64
}

// Filter classifies the raw graph against a disaster zone. Water
// detection is delegated to the supplied classifier; passing nil uses
// DefaultWaterClassifier. Returns ErrEmptyNetwork when the graph has no
// nodes.
func Filter(g *Graph, zone geo.Zone, classifier WaterClassifier) (*FilteredGraph, error) {
	if g == nil || g.NodeCount() == 0 {
		return nil, ErrEmptyNetwork
	}
	if classifier == nil {
		classifier = DefaultWaterClassifier()
	}

	fg := &FilteredGraph{
		graph:          g,
		zone:           zone,
		waterNodes:     make(map[int64]bool, g.NodeCount()),
		adjacency:      make(map[int64][]ClassifiedEdge, g.NodeCount()),
		traversable:    make(map[int64][]ClassifiedEdge, g.NodeCount()),
		distFromCenter: make(map[int64]float64, g.NodeCount()),
	}

	for id, n := range g.Nodes() {
		fg.waterNodes[id] = classifier.WaterNode(n)
		fg.distFromCenter[id] = geo.Distance(n.Point, zone.Center)
	}

	for id := range g.Nodes() {
		for _, e := range g.Edges(id) {
			ce := ClassifiedEdge{
				Edge:  e,
				Water: classifier.WaterEdge(e, fg.waterNodes[e.From], fg.waterNodes[e.To]),
			}
			fg.adjacency[id] = append(fg.adjacency[id], ce)
			if !ce.Water {
				fg.traversable[id] = append(fg.traversable[id], ce)
			}
		}
	}

	return fg, nil
}

// Zone returns the disaster zone this view was computed against.
func (fg *FilteredGraph) Zone() geo.Zone {
	return fg.zone
}

// Node returns the underlying node.
func (fg *FilteredGraph) Node(id int64) (Node, bool) {
	return fg.graph.Node(id)
}

// NodeCount returns the number of nodes. Filtering never drops nodes.
func (fg *FilteredGraph) NodeCount() int {
	return fg.graph.NodeCount()
}

// NodeIDs returns all node IDs, in map order.
func (fg *FilteredGraph) NodeIDs() []int64 {
	ids := make([]int64, 0, fg.graph.NodeCount())
	for id := range fg.graph.Nodes() {
		ids = append(ids, id)
	}
	return ids
}

// Traversable returns the outgoing water-free edges of a node.
func (fg *FilteredGraph) Traversable(from int64) []ClassifiedEdge {
	return fg.traversable[from]
}

// Neighbors returns all outgoing edges of a node, water included.
func (fg *FilteredGraph) Neighbors(from int64) []ClassifiedEdge {
	return fg.adjacency[from]
}

// IsWaterNode reports whether the node was classified as water.
func (fg *FilteredGraph) IsWaterNode(id int64) bool {
	return fg.waterNodes[id]
}

// DistanceFromCenter returns the node's great-circle distance from the
// zone center in meters.
func (fg *FilteredGraph) DistanceFromCenter(id int64) float64 {
	return fg.distFromCenter[id]
}

// InDanger reports whether the node lies inside the disaster zone.
func (fg *FilteredGraph) InDanger(id int64) bool {
	return fg.distFromCenter[id] <= fg.zone.RadiusMeters
}

// NearestNode finds the non-water node closest to the given point.
// Returns ErrNoNodes when every node is water.
func (fg *FilteredGraph) NearestNode(p geo.Point) (int64, error) {
	minDistance := math.Inf(1)
	var nearest int64
	found := false

	for id, n := range fg.graph.Nodes() {
		if fg.waterNodes[id] {
			continue
		}
		d := geo.Distance(p, n.Point)
		if d < minDistance || (d == minDistance && found && id < nearest) {
			minDistance = d
			nearest = id
			found = true
		}
	}

	if !found {
		return 0, ErrNoNodes
	}
	return nearest, nil
}
