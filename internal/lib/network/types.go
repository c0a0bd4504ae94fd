package network

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
)

// Sentinel errors returned by the network package.
var (
	// ErrEmptyNetwork indicates the supplied road graph has zero nodes.
	// No routing is possible for anyone, so callers should abort the batch.
	ErrEmptyNetwork = errors.New("network: road graph has no nodes")

	// ErrNoNodes indicates a nearest-node lookup found no usable node.
	ErrNoNodes = errors.New("network: no usable nodes for lookup")
)

// Node is a road-network junction. Immutable once the graph is loaded;
// per-zone classification (water, in-danger) lives on FilteredGraph.
type Node struct {
	ID    int64             `json:"id"`
	Point geo.Point         `json:"point"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// Edge is a directed road segment between two nodes. Undirected source
// ways are materialized as two edges, costed independently.
type Edge struct {
	From         int64             `json:"from_id"`
	To           int64             `json:"to_id"`
	LengthMeters float64           `json:"length_m"`
	Highway      string            `json:"highway,omitempty"`
	Geometry     orb.LineString    `json:"-"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// Graph is the raw road network: nodes plus a directed adjacency list.
type Graph struct {
	nodes     map[int64]Node
	adjacency map[int64][]Edge
	edgeCount int
}

// NewGraph builds a graph from node and edge lists. Edges referencing
// unknown endpoints are dropped; edges without a length are measured
// from their geometry, falling back to the straight line between
// endpoints.
func NewGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:     make(map[int64]Node, len(nodes)),
		adjacency: make(map[int64][]Edge, len(nodes)),
	}

	for _, n := range nodes {
		g.nodes[n.ID] = n
	}

	for _, e := range edges {
		from, okFrom := g.nodes[e.From]
		to, okTo := g.nodes[e.To]
		if !okFrom || !okTo {
			continue
		}
		if e.LengthMeters <= 0 {
			e.LengthMeters = measureEdge(e, from, to)
		}
		g.adjacency[e.From] = append(g.adjacency[e.From], e)
		g.edgeCount++
	}

	return g
}

// measureEdge derives an edge length from its geometry, or the
// straight-line distance between endpoints when no geometry is present.
func measureEdge(e Edge, from, to Node) float64 {
	if len(e.Geometry) < 2 {
		return geo.Distance(from.Point, to.Point)
	}
	var total float64
	for i := 0; i < len(e.Geometry)-1; i++ {
		a, b := e.Geometry[i], e.Geometry[i+1]
		// orb points are (lon, lat)
		total += geo.DistanceFromCoords(a[1], a[0], b[1], b[0])
	}
	return total
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int64) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the node map. Callers must treat it as read-only.
func (g *Graph) Nodes() map[int64]Node {
	return g.nodes
}

// Edges returns the outgoing edges of a node.
func (g *Graph) Edges(from int64) []Edge {
	return g.adjacency[from]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of directed edges in the graph.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}
