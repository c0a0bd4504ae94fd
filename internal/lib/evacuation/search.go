package evacuation

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

const (
	// DefaultWaterPenaltyFactor multiplies the cost of water-crossing
	// edges. Soft exclusion: a water edge can still be taken when no
	// water-free path exists, and the resulting route is flagged.
	DefaultWaterPenaltyFactor = 10000.0

	// DefaultMinorRoadFactor is the cost multiplier applied to edges
	// whose highway class is not a major road.
	DefaultMinorRoadFactor = 1.25

	// DefaultMaxSteps bounds how many nodes the search may expand before
	// giving up with ErrSearchTimeout.
	DefaultMaxSteps = 500000

	// ctxCheckInterval is how many expansions pass between context
	// deadline checks.
	ctxCheckInterval = 1024
)

// majorHighways are the OSM highway classes that carry no minor-road
// cost penalty.
var majorHighways = map[string]bool{
	"motorway":  true,
	"trunk":     true,
	"primary":   true,
	"secondary": true,
	"tertiary":  true,
}

// SearchOptions configures the route search.
type SearchOptions struct {
	// WaterPenaltyFactor multiplies water-edge cost. Defaults to
	// DefaultWaterPenaltyFactor when zero.
	WaterPenaltyFactor float64

	// MinorRoadFactor multiplies non-major-road edge cost. Defaults to
	// DefaultMinorRoadFactor when zero; values below 1 are rejected.
	MinorRoadFactor float64

	// MaxSteps bounds node expansions. Defaults to DefaultMaxSteps when
	// zero.
	MaxSteps int

	// AllowWaterEdges lets the search explore water-crossing edges at
	// WaterPenaltyFactor times their length. Off by default: the normal
	// pass sees only the water-free edge set, and callers opt into this
	// fallback once that pass has proven no water-free path exists.
	AllowWaterEdges bool
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.WaterPenaltyFactor <= 0 {
		o.WaterPenaltyFactor = DefaultWaterPenaltyFactor
	}
	if o.MinorRoadFactor < 1 {
		o.MinorRoadFactor = DefaultMinorRoadFactor
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	return o
}

// FindRoute runs a multi-target A* search from start toward the exit
// candidates, sharing one frontier with every exit as a goal. The first
// goal expanded is optimal under the cost function
//
//	cost(e) = length(e) * waterPenalty(e) * roadClassFactor(e)
//
// with an admissible straight-line heuristic that ignores water. Water
// nodes are never entered. By default only water-free edges are
// explored; with AllowWaterEdges set, water edges are priced rather
// than forbidden and a route over water can be returned as a last
// resort with CrossesWater set. Exceeding the step budget or the
// context deadline returns ErrSearchTimeout; an exhausted frontier
// returns ErrNoRoute.
func FindRoute(ctx context.Context, fg *network.FilteredGraph, start int64, exits []ExitCandidate, opts SearchOptions) (*Route, error) {
	opts = opts.withDefaults()

	if _, ok := fg.Node(start); !ok {
		return nil, fmt.Errorf("%w: start node %d not in graph", ErrNoRoute, start)
	}
	if len(exits) == 0 {
		return nil, fmt.Errorf("%w: no exit candidates supplied", ErrNoRoute)
	}

	goals := make(map[int64]bool, len(exits))
	exitPoints := make([]geo.Point, 0, len(exits))
	for _, exit := range exits {
		node, ok := fg.Node(exit.NodeID)
		if !ok {
			continue
		}
		goals[exit.NodeID] = true
		exitPoints = append(exitPoints, node.Point)
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("%w: no exit candidates in graph", ErrNoRoute)
	}

	// h(n) = straight-line distance to the nearest exit. Never exceeds
	// true remaining road distance, so the first goal popped is optimal.
	heuristic := func(id int64) float64 {
		node, _ := fg.Node(id)
		best := math.Inf(1)
		for _, p := range exitPoints {
			if d := geo.Distance(node.Point, p); d < best {
				best = d
			}
		}
		return best
	}

	gScore := map[int64]float64{start: 0}
	cameFrom := make(map[int64]int64)
	cameFromEdge := make(map[int64]network.ClassifiedEdge)
	closed := make(map[int64]bool)

	pq := &frontier{}
	heap.Init(pq)
	seq := 0
	push := func(id int64, g float64) {
		h := heuristic(id)
		heap.Push(pq, &frontierItem{node: id, f: g + h, h: h, seq: seq})
		seq++
	}
	push(start, 0)

	steps := 0
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*frontierItem)
		current := item.node
		if closed[current] {
			continue
		}
		closed[current] = true

		if goals[current] {
			return reconstructRoute(fg, start, current, cameFrom, cameFromEdge), nil
		}

		steps++
		if steps > opts.MaxSteps {
			return nil, fmt.Errorf("%w: %d steps", ErrSearchTimeout, opts.MaxSteps)
		}
		if steps%ctxCheckInterval == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, ctx.Err())
		}

		edges := fg.Traversable(current)
		if opts.AllowWaterEdges {
			edges = fg.Neighbors(current)
		}
		for _, e := range edges {
			neighbor := e.To
			if fg.IsWaterNode(neighbor) {
				continue
			}

			cost := e.LengthMeters
			if e.Water {
				cost *= opts.WaterPenaltyFactor
			}
			if !majorHighways[e.Highway] {
				cost *= opts.MinorRoadFactor
			}

			tentative := gScore[current] + cost
			if old, ok := gScore[neighbor]; !ok || tentative < old {
				cameFrom[neighbor] = current
				cameFromEdge[neighbor] = e
				gScore[neighbor] = tentative
				push(neighbor, tentative)
			}
		}
	}

	return nil, fmt.Errorf("%w: frontier exhausted after %d steps", ErrNoRoute, steps)
}

// reconstructRoute walks the predecessor maps back from goal to start
// and assembles the route, summing real (unpenalized) edge lengths.
func reconstructRoute(fg *network.FilteredGraph, start, goal int64, cameFrom map[int64]int64, cameFromEdge map[int64]network.ClassifiedEdge) *Route {
	var ids []int64
	current := goal
	for current != start {
		ids = append([]int64{current}, ids...)
		current = cameFrom[current]
	}
	ids = append([]int64{start}, ids...)

	route := &Route{NodeIDs: ids}
	for _, id := range ids {
		node, _ := fg.Node(id)
		route.Points = append(route.Points, node.Point)
	}
	for _, id := range ids[1:] {
		e := cameFromEdge[id]
		route.TotalLengthMeters += e.LengthMeters
		if e.Water {
			route.CrossesWater = true
		}
	}
	route.EncodedPolyline = geo.EncodePath(route.Points)
	return route
}

// frontierItem is a priority-queue entry. Ties on f prefer the node with
// more progress (smaller h); exact ties fall back to insertion order so
// repeated searches are reproducible.
type frontierItem struct {
	node int64
	f    float64
	h    float64
	seq  int
}

type frontier []*frontierItem

func (pq frontier) Len() int { return len(pq) }

func (pq frontier) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	if pq[i].h != pq[j].h {
		return pq[i].h < pq[j].h
	}
	return pq[i].seq < pq[j].seq
}

func (pq frontier) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *frontier) Push(x any) {
	*pq = append(*pq, x.(*frontierItem))
}

func (pq *frontier) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
