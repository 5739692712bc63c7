package geo

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type cityPolygon struct {
	name  string
	poly  orb.Polygon
	bound orb.Bound
	area  float64
}

// CityRegistry holds named city polygons in registration order. It only
// grows.
type CityRegistry struct {
	polygons []cityPolygon
	names    []string
	known    map[string]bool
}

// NewCityRegistry creates an empty registry.
func NewCityRegistry() *CityRegistry {
	return &CityRegistry{known: make(map[string]bool)}
}

// Register records polygons under name. Names compare case-insensitively;
// the first spelling seen is the one returned.
func (c *CityRegistry) Register(name string, polys []orb.Polygon) {
	name = strings.TrimSpace(name)
	if name == "" || len(polys) == 0 {
		return
	}
	key := strings.ToLower(name)
	if !c.known[key] {
		c.known[key] = true
		c.names = append(c.names, name)
	}
	for _, p := range polys {
		c.polygons = append(c.polygons, cityPolygon{
			name:  c.display(key),
			poly:  p,
			bound: p.Bound(),
			area:  planar.Area(p),
		})
	}
}

func (c *CityRegistry) display(key string) string {
	for _, n := range c.names {
		if strings.ToLower(n) == key {
			return n
		}
	}
	return key
}

// Names returns the registered city names in registration order.
func (c *CityRegistry) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of registered polygons.
func (c *CityRegistry) Len() int {
	return len(c.polygons)
}

// Containing returns the city whose polygon contains pt. When polygons
// overlap, the one with the smallest area wins and ties go to the earliest
// registered.
func (c *CityRegistry) Containing(pt orb.Point) (string, bool) {
	if c == nil {
		return "", false
	}
	best := -1
	for i, cp := range c.polygons {
		// Fast bounding box check
		if !cp.bound.Contains(pt) {
			continue
		}
		if !containsPoint(cp.poly, pt) {
			continue
		}
		if best < 0 || cp.area < c.polygons[best].area {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return c.polygons[best].name, true
}
