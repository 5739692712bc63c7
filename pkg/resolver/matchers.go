package resolver

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"witcherkg/pkg/emit"
	"witcherkg/pkg/model"
	"witcherkg/pkg/rdf"
)

// Tier names a resolution strategy.
type Tier string

const (
	TierCoordDedup        Tier = "coord_dedup"
	TierSpatialContextual Tier = "spatial_contextual"
	TierDirectLabel       Tier = "direct_label"
	TierCreateNew         Tier = "create_new"
)

// Context carries the per-pin state matchers share.
type Context struct {
	World *World
	// Point is the pin position in GIS coordinates.
	Point orb.Point
	// City is set when the pin fell inside a registered city polygon.
	City string
	// Ambiguous is set when the pin was inside a city but no composite
	// label matched.
	Ambiguous bool
}

// Matcher is one resolution tier.
type Matcher interface {
	Tier() Tier
	TryResolve(pin *model.Pin, ctx *Context) (rdf.Term, bool)
}

// CityLocator finds the city containing a GIS point.
type CityLocator interface {
	Containing(pt orb.Point) (string, bool)
}

// GenericNames is the set of lowercase names shared by many locations.
type GenericNames map[string]bool

// NewGenericNames builds the set from names, case-insensitively.
func NewGenericNames(names []string) GenericNames {
	g := make(GenericNames, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			g[n] = true
		}
	}
	return g
}

// Has reports whether name is generic.
func (g GenericNames) Has(name string) bool {
	return g[strings.ToLower(strings.TrimSpace(name))]
}

// CoordDedup reuses the entity already resolved at the same world and source
// coordinate.
type CoordDedup struct {
	Coords *CoordIndex
}

func (m CoordDedup) Tier() Tier { return TierCoordDedup }

func (m CoordDedup) TryResolve(pin *model.Pin, ctx *Context) (rdf.Term, bool) {
	return m.Coords.Get(pin.WorldCode, pin.Position.X, pin.Position.Y)
}

// SpatialContextual resolves generic names through the city of the pin's own
// map that contains it: "Blacksmith" inside Oxenfurt matches the label
// "Blacksmith (Oxenfurt)". Only exact label hits are accepted.
type SpatialContextual struct {
	Labels  LabelIndex
	Generic GenericNames
}

func (m SpatialContextual) Tier() Tier { return TierSpatialContextual }

func (m SpatialContextual) TryResolve(pin *model.Pin, ctx *Context) (rdf.Term, bool) {
	if ctx.World == nil || ctx.World.Cities == nil || !m.Generic.Has(pin.Name) {
		return rdf.Term{}, false
	}
	city, ok := ctx.World.Cities.Containing(ctx.Point)
	if !ok {
		return rdf.Term{}, false
	}
	ctx.City = city
	if t, ok := m.Labels.Lookup(pin.Name + " (" + city + ")"); ok {
		return t, true
	}
	ctx.Ambiguous = true
	return rdf.Term{}, false
}

// DirectLabel matches non-generic names against existing labels.
type DirectLabel struct {
	Labels  LabelIndex
	Generic GenericNames
}

func (m DirectLabel) Tier() Tier { return TierDirectLabel }

func (m DirectLabel) TryResolve(pin *model.Pin, ctx *Context) (rdf.Term, bool) {
	if m.Generic.Has(pin.Name) {
		return rdf.Term{}, false
	}
	return m.Labels.Lookup(pin.Name)
}

// CreateNew mints an entity from the world code, name and source coordinate.
// It always succeeds.
type CreateNew struct {
	Resource rdf.Namespace
}

func (m CreateNew) Tier() Tier { return TierCreateNew }

func (m CreateNew) TryResolve(pin *model.Pin, ctx *Context) (rdf.Term, bool) {
	local := emit.Sanitize(strings.Join([]string{
		pin.WorldCode, pin.Name, coordToken(pin.Position.X), coordToken(pin.Position.Y),
	}, "_"))
	return m.Resource.Term(local), true
}

func pointOf(p model.Pin) orb.Point {
	return orb.Point{p.Position.X, p.Position.Y}
}

// coordToken renders a coordinate for use inside an IRI. The sign and the
// decimal point are spelled out so that sanitizing cannot merge -5 with 5 or
// (5.5, 1) with (5, 5.1).
func coordToken(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return strings.NewReplacer("-", "m", ".", "p").Replace(s)
}
