package evacuation

import (
	"fmt"
	"sort"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

const (
	// DefaultBufferMeters is how far beyond the zone boundary the exit
	// band extends.
	DefaultBufferMeters = 100.0

	// DefaultMaxCandidates bounds how many exit candidates are returned.
	DefaultMaxCandidates = 10

	// bufferCeilingFactor caps buffer widening at this multiple of the
	// configured buffer.
	bufferCeilingFactor = 5
)

// SelectorOptions configures exit-candidate selection.
type SelectorOptions struct {
	// BufferMeters is the initial width of the band outside the zone
	// boundary in which exit nodes are sought. Defaults to
	// DefaultBufferMeters when zero.
	BufferMeters float64

	// MaxCandidates bounds the number of returned candidates. Defaults
	// to DefaultMaxCandidates when zero.
	MaxCandidates int
}

func (o SelectorOptions) withDefaults() SelectorOptions {
	if o.BufferMeters <= 0 {
		o.BufferMeters = DefaultBufferMeters
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	return o
}

// SelectExits scans the filtered graph for non-water nodes lying just
// outside the zone boundary and ranks them by straight-line distance
// from the start node. When the configured band holds no nodes the
// buffer is doubled, up to bufferCeilingFactor times its configured
// width; real road networks do not guarantee coverage of a fixed band.
// Returns ErrNoExitFound once the widened band is exhausted.
func SelectExits(fg *network.FilteredGraph, start int64, opts SelectorOptions) ([]ExitCandidate, error) {
	opts = opts.withDefaults()

	startNode, ok := fg.Node(start)
	if !ok {
		return nil, fmt.Errorf("%w: start node %d not in graph", ErrNoExitFound, start)
	}

	ceiling := opts.BufferMeters * bufferCeilingFactor
	buffer := opts.BufferMeters
	for {
		candidates := exitsWithinBand(fg, startNode.Point, buffer)
		if len(candidates) > 0 {
			return rankCandidates(candidates, opts.MaxCandidates), nil
		}
		if buffer >= ceiling {
			return nil, fmt.Errorf("%w: widened buffer to %.0fm", ErrNoExitFound, ceiling)
		}
		buffer *= 2
		if buffer > ceiling {
			buffer = ceiling
		}
	}
}

// exitsWithinBand collects non-water nodes with
// radius < distance(node, center) <= radius + buffer.
func exitsWithinBand(fg *network.FilteredGraph, from geo.Point, buffer float64) []ExitCandidate {
	radius := fg.Zone().RadiusMeters

	var candidates []ExitCandidate
	for _, id := range fg.NodeIDs() {
		if fg.IsWaterNode(id) {
			continue
		}
		d := fg.DistanceFromCenter(id)
		if d <= radius || d > radius+buffer {
			continue
		}
		node, _ := fg.Node(id)
		candidates = append(candidates, ExitCandidate{
			NodeID:               id,
			BorderDistanceMeters: d - radius,
			StartDistanceMeters:  geo.Distance(from, node.Point),
		})
	}
	return candidates
}

// rankCandidates orders candidates by ascending straight-line distance
// from the start, node ID as the stable tie-break, and keeps the top max.
func rankCandidates(candidates []ExitCandidate, max int) []ExitCandidate {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StartDistanceMeters != candidates[j].StartDistanceMeters {
			return candidates[i].StartDistanceMeters < candidates[j].StartDistanceMeters
		}
		return candidates[i].NodeID < candidates[j].NodeID
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}
