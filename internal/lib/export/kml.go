package export

import (
	"fmt"
	"image/color"
	"io"
	"math"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/evacuation"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
)

// circleSegments is the number of points used to approximate a zone
// boundary ring.
const circleSegments = 64

// RenderKML writes disaster zones and computed evacuation routes as a
// KML document for the map-rendering collaborator. Routes that cross
// water get their own style so they render visibly different.
func RenderKML(w io.Writer, zones []geo.Zone, results []evacuation.PersonResult) error {
	children := []kml.Element{
		kml.Name("Smart Evacuation Router"),
		kml.SharedStyle("zone",
			kml.LineStyle(kml.Color(color.RGBA{R: 0xff, A: 0xff}), kml.Width(2)),
			kml.PolyStyle(kml.Color(color.RGBA{R: 0xff, A: 0x40})),
		),
		kml.SharedStyle("route-dry",
			kml.LineStyle(kml.Color(color.RGBA{G: 0xff, A: 0xff}), kml.Width(4)),
		),
		kml.SharedStyle("route-water",
			kml.LineStyle(kml.Color(color.RGBA{R: 0xff, G: 0xa5, A: 0xff}), kml.Width(4)),
		),
	}

	for i, zone := range zones {
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("Disaster zone %d (radius %.0fm)", i+1, zone.RadiusMeters)),
			kml.StyleURL("#zone"),
			kml.Polygon(
				kml.OuterBoundaryIs(
					kml.LinearRing(
						kml.Coordinates(zoneRing(zone)...),
					),
				),
			),
		))
	}

	for _, result := range results {
		if result.Route == nil {
			continue
		}
		style := "#route-dry"
		if result.Route.CrossesWater {
			style = "#route-water"
		}
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("Evacuation route for %s", result.PersonID)),
			kml.Description(fmt.Sprintf("%.0fm, crosses water: %t", result.Route.TotalLengthMeters, result.Route.CrossesWater)),
			kml.StyleURL(style),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(routeCoordinates(result.Route)...),
			),
		))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}

// zoneRing approximates the zone boundary as a closed ring of
// circleSegments points.
func zoneRing(zone geo.Zone) []kml.Coordinate {
	const metersPerDegree = 2 * math.Pi * geo.EarthRadiusMeters / 360

	latRadius := zone.RadiusMeters / metersPerDegree
	lonScale := math.Cos(zone.Center.Latitude * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01
	}
	lonRadius := latRadius / lonScale

	coords := make([]kml.Coordinate, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		theta := 2 * math.Pi * float64(i) / circleSegments
		coords = append(coords, kml.Coordinate{
			Lon: zone.Center.Longitude + lonRadius*math.Sin(theta),
			Lat: zone.Center.Latitude + latRadius*math.Cos(theta),
		})
	}
	return coords
}

func routeCoordinates(route *evacuation.Route) []kml.Coordinate {
	coords := make([]kml.Coordinate, len(route.Points))
	for i, p := range route.Points {
		coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}
	return coords
}
