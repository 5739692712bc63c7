package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"witcherkg/pkg/kgerrors"
)

const maxSplitDepth = 16

var (
	errTooFewPoints = errors.New("ring has fewer than 4 points")
	errDegenerate   = errors.New("ring encloses no area")
)

// ParsePolygons turns raw rings into valid polygons, one per ring. Rings with
// fewer than four points are dropped; self-intersecting, unclosed or
// mis-wound rings are repaired, and a self-intersecting ring may yield several
// polygons. Every dropped ring is reported as a MalformedGeometry error.
func ParsePolygons(rings [][]orb.Point) ([]orb.Polygon, []error) {
	var (
		out  []orb.Polygon
		errs []error
	)
	for i, r := range rings {
		src := fmt.Sprintf("ring %d", i)
		if len(r) < 4 {
			errs = append(errs, kgerrors.New(kgerrors.KindMalformedGeometry, stage, src, errTooFewPoints))
			continue
		}
		loops, err := RepairRing(orb.Ring(r))
		if err != nil {
			errs = append(errs, kgerrors.New(kgerrors.KindMalformedGeometry, stage, src, err))
			continue
		}
		for _, l := range loops {
			out = append(out, orb.Polygon{l})
		}
	}
	return out, errs
}

// RepairRing is a zero-buffer style fix-up: the ring is closed, repeated and
// spike vertices are removed, it is split into simple loops at every
// self-intersection and each loop is wound counter-clockwise.
func RepairRing(r orb.Ring) ([]orb.Ring, error) {
	r = cleanRing(r)
	if len(r) < 4 {
		return nil, errTooFewPoints
	}
	var loops []orb.Ring
	if err := splitRing(r, 0, &loops); err != nil {
		return nil, err
	}
	if len(loops) == 0 {
		return nil, errDegenerate
	}
	return loops, nil
}

// cleanRing closes r and drops consecutive duplicates and spikes.
func cleanRing(r orb.Ring) orb.Ring {
	pts := make([]orb.Point, 0, len(r)+1)
	for _, p := range r {
		if n := len(pts); n > 0 && pts[n-1].Equal(p) {
			continue
		}
		pts = append(pts, p)
	}
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}

	// Remove spikes (a vertex whose neighbours are collinear with it and on
	// the same side) until stable; each removal can expose a new one.
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		for i := 0; i < len(pts) && len(pts) >= 3; i++ {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if prev.Equal(pts[i]) || prev.Equal(next) || isSpike(prev, pts[i], next) {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				i--
			}
		}
	}
	if len(pts) < 3 {
		return orb.Ring(pts)
	}
	return append(orb.Ring(pts), pts[0])
}

func isSpike(a, b, c orb.Point) bool {
	if cross(a, b, c) != 0 {
		return false
	}
	return (b[0]-a[0])*(c[0]-b[0])+(b[1]-a[1])*(c[1]-b[1]) < 0
}

func splitRing(r orb.Ring, depth int, out *[]orb.Ring) error {
	if depth > maxSplitDepth {
		return errors.New("self-intersections too deep to repair")
	}
	if a, b, ok := repeatedVertex(r); ok {
		first := append(append(orb.Ring{}, r[:a+1]...), r[b+1:]...)
		second := append(orb.Ring{}, r[a:b+1]...)
		return splitBoth(first, second, depth, out)
	}
	if i, j, p, ok := firstCrossing(r); ok {
		first := append(append(append(orb.Ring{}, r[:i+1]...), p), r[j+1:]...)
		second := append(append(orb.Ring{p}, r[i+1:j+1]...), p)
		return splitBoth(first, second, depth, out)
	}

	if math.Abs(planar.Area(orb.Polygon{r})) == 0 {
		return nil
	}
	if r.Orientation() != orb.CCW {
		r.Reverse()
	}
	*out = append(*out, r)
	return nil
}

func splitBoth(first, second orb.Ring, depth int, out *[]orb.Ring) error {
	for _, part := range []orb.Ring{first, second} {
		part = cleanRing(part)
		if len(part) < 4 {
			continue
		}
		if err := splitRing(part, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// repeatedVertex finds a vertex visited twice in a closed ring, ignoring the
// closing point.
func repeatedVertex(r orb.Ring) (int, int, bool) {
	n := len(r) - 1
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			if r[a].Equal(r[b]) {
				return a, b, true
			}
		}
	}
	return 0, 0, false
}

// firstCrossing finds the first pair of non-adjacent edges (i, i+1) and
// (j, j+1) of a closed ring that cross at an interior point p.
func firstCrossing(r orb.Ring) (int, int, orb.Point, bool) {
	n := len(r) - 1
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if p, ok := properIntersection(r[i], r[i+1], r[j], r[j+1]); ok {
				return i, j, p, true
			}
		}
	}
	return 0, 0, orb.Point{}, false
}

func properIntersection(a, b, c, d orb.Point) (orb.Point, bool) {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	if !(((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))) {
		return orb.Point{}, false
	}
	t := d1 / (d1 - d2)
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}, true
}

// cross is the z component of (b-a) x (c-a).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
