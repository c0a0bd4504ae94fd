package overpass

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

// element is a single entry of an Overpass JSON response.
type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

// response is the top-level Overpass JSON document.
type response struct {
	Elements []element `json:"elements"`
}

// ParseRoadNetwork decodes an Overpass JSON payload into a road graph.
// Each way becomes one directed edge per consecutive node pair; ways
// without a oneway restriction are materialized in both directions.
func ParseRoadNetwork(data []byte) (*network.Graph, error) {
	var doc response
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode Overpass response: %w", err)
	}

	var nodes []network.Node
	points := make(map[int64]geo.Point)
	for _, el := range doc.Elements {
		if el.Type != "node" {
			continue
		}
		p := geo.Point{Latitude: el.Lat, Longitude: el.Lon}
		if !geo.IsValidCoordinate(p) {
			continue
		}
		nodes = append(nodes, network.Node{ID: el.ID, Point: p, Tags: el.Tags})
		points[el.ID] = p
	}

	var edges []network.Edge
	for _, el := range doc.Elements {
		if el.Type != "way" || len(el.Nodes) < 2 {
			continue
		}
		edges = append(edges, wayEdges(el, points)...)
	}

	return network.NewGraph(nodes, edges), nil
}

// wayEdges splits a way into per-segment edges, honoring oneway tags.
func wayEdges(way element, points map[int64]geo.Point) []network.Edge {
	highway := way.Tags["highway"]
	forward, backward := wayDirections(way.Tags)

	var edges []network.Edge
	for i := 0; i < len(way.Nodes)-1; i++ {
		from, to := way.Nodes[i], way.Nodes[i+1]
		pFrom, okFrom := points[from]
		pTo, okTo := points[to]
		if !okFrom || !okTo {
			continue
		}

		geometry := orb.LineString{
			{pFrom.Longitude, pFrom.Latitude},
			{pTo.Longitude, pTo.Latitude},
		}
		if forward {
			edges = append(edges, network.Edge{
				From:     from,
				To:       to,
				Highway:  highway,
				Geometry: geometry,
				Tags:     way.Tags,
			})
		}
		if backward {
			edges = append(edges, network.Edge{
				From:     to,
				To:       from,
				Highway:  highway,
				Geometry: orb.LineString{geometry[1], geometry[0]},
				Tags:     way.Tags,
			})
		}
	}
	return edges
}

// wayDirections interprets the oneway tag: "yes"/"true"/"1" is forward
// only, "-1" is backward only, anything else is bidirectional.
func wayDirections(tags map[string]string) (forward, backward bool) {
	switch tags["oneway"] {
	case "yes", "true", "1":
		return true, false
	case "-1":
		return false, true
	default:
		return true, true
	}
}
