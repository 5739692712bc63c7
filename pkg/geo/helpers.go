package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

// containsPoint checks if a geometry contains a point.
func containsPoint(geom orb.Geometry, point orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		for _, poly := range g {
			if planar.PolygonContains(poly, point) {
				return true
			}
		}
	}
	return false
}

// ToWKT renders geom as Well-Known Text.
func ToWKT(geom orb.Geometry) string {
	return wkt.MarshalString(geom)
}

// multiLine builds a multi-line string from raw paths, dropping paths with
// fewer than two points.
func multiLine(paths [][]orb.Point) orb.MultiLineString {
	var out orb.MultiLineString
	for _, p := range paths {
		if len(p) < 2 {
			continue
		}
		out = append(out, orb.LineString(p))
	}
	return out
}
