package network

// WaterClassifier decides which nodes and edges of the raw graph count as
// water. Injected into Filter so the core stays independent of any one
// data provider's tag vocabulary.
type WaterClassifier interface {
	// WaterNode reports whether the node itself sits in or on water.
	WaterNode(n Node) bool

	// WaterEdge reports whether traversing the edge crosses or touches
	// water, given the classification of its endpoints.
	WaterEdge(e Edge, fromIsWater, toIsWater bool) bool
}

// TagRules maps a tag key to the set of values that match the rule.
// An empty value list matches the mere presence of the key.
type TagRules map[string][]string

// Match reports whether any rule matches the given tag map.
func (r TagRules) Match(tags map[string]string) bool {
	if len(tags) == 0 {
		return false
	}
	for key, values := range r {
		value, ok := tags[key]
		if !ok {
			continue
		}
		if len(values) == 0 {
			return true
		}
		for _, v := range values {
			if v == value {
				return true
			}
		}
	}
	return false
}

// TagClassifier is the standard WaterClassifier: tag-rule tables for
// nodes and edges, with an exemption for bridges (a bridge over a river
// is a legitimate crossing).
type TagClassifier struct {
	NodeRules TagRules
	EdgeRules TagRules
}

// DefaultWaterClassifier returns a TagClassifier covering the OSM water
// vocabulary: natural/waterway/landuse values plus bare water-related keys.
func DefaultWaterClassifier() *TagClassifier {
	return &TagClassifier{
		NodeRules: TagRules{
			"natural":  {"water", "coastline", "wetland", "bay", "beach", "marsh"},
			"waterway": {"river", "canal", "stream", "ditch", "dock", "riverbank"},
			"landuse":  {"reservoir", "basin", "water"},
			"water":    {},
			"harbour":  {},
			"dock":     {},
		},
		EdgeRules: TagRules{
			"waterway": {},
			"water":    {},
			"natural":  {},
		},
	}
}

// WaterNode implements WaterClassifier.
func (c *TagClassifier) WaterNode(n Node) bool {
	return c.NodeRules.Match(n.Tags)
}

// WaterEdge implements WaterClassifier. An edge crosses water when one of
// its endpoints is in water or its own tags match, unless it is a bridge.
func (c *TagClassifier) WaterEdge(e Edge, fromIsWater, toIsWater bool) bool {
	if isBridge(e.Tags) {
		return false
	}
	if fromIsWater || toIsWater {
		return true
	}
	return c.EdgeRules.Match(e.Tags)
}

func isBridge(tags map[string]string) bool {
	v, ok := tags["bridge"]
	if !ok {
		return false
	}
	return v != "no" && v != "false" && v != "0"
}
