// Package resolver decides, for every map pin, whether it refers to an entity
// already in the graph or needs a new one, and attaches the pin's types,
// geometry and source coordinates to the result.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"witcherkg/pkg/calibrate"
	"witcherkg/pkg/emit"
	"witcherkg/pkg/geo"
	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/logging"
	"witcherkg/pkg/model"
	"witcherkg/pkg/rdf"
)

const stage = "resolver"

// ErrNoMap is returned for pins of a world without a calibrated map.
var ErrNoMap = errors.New("world has no calibrated map")

// World is a calibrated map context. Cities holds the city polygons ingested
// for this map only; it may be nil.
type World struct {
	Code      string
	Map       rdf.Term
	Transform calibrate.Affine
	Cities    CityLocator
}

// Options configures a Session.
type Options struct {
	Namespaces   rdf.Namespaces
	GenericNames []string
	// Keywords maps a lowercase name fragment to the local name of the class
	// it implies.
	Keywords map[string]string
	Logger   *slog.Logger
}

// Result is the outcome of resolving one pin.
type Result struct {
	Entity  rdf.Term
	Tier    Tier
	Created bool
	// Ambiguous is set when a generic pin was inside a city without a
	// matching composite label.
	Ambiguous bool
}

// Stats counts resolutions by tier and skips by reason.
type Stats struct {
	Resolved  map[Tier]int
	Skipped   map[string]int
	Ambiguous int
}

// Skip reasons reported in Stats.
const (
	SkipIncomplete = "incomplete"
	SkipNoMap      = "no_map"
)

type keyword struct {
	fragment string
	class    rdf.Term
}

// Session owns all resolution state for one run. Pins must be resolved in
// source order.
type Session struct {
	graph    *rdf.Graph
	ns       rdf.Namespaces
	labels   LabelIndex
	coords   *CoordIndex
	worlds   map[string]*World
	keywords []keyword
	matchers []Matcher
	logger   *slog.Logger
	stats    Stats
}

// NewSession snapshots the graph's labels and sets up the tiers in order:
// coordinate dedup, spatial-contextual, direct label, create new.
func NewSession(g *rdf.Graph, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		graph:  g,
		ns:     opts.Namespaces,
		labels: SnapshotLabels(g),
		coords: NewCoordIndex(),
		worlds: make(map[string]*World),
		logger: logger,
		stats:  Stats{Resolved: make(map[Tier]int), Skipped: make(map[string]int)},
	}

	frags := make([]string, 0, len(opts.Keywords))
	for k := range opts.Keywords {
		frags = append(frags, k)
	}
	sort.Strings(frags)
	for _, k := range frags {
		local := emit.Sanitize(opts.Keywords[k])
		if strings.TrimSpace(k) == "" || local == "" {
			continue
		}
		s.keywords = append(s.keywords, keyword{fragment: strings.ToLower(k), class: s.ns.Ontology.Term(local)})
	}

	generic := NewGenericNames(opts.GenericNames)
	s.matchers = []Matcher{
		CoordDedup{Coords: s.coords},
		SpatialContextual{Labels: s.labels, Generic: generic},
		DirectLabel{Labels: s.labels, Generic: generic},
		CreateNew{Resource: s.ns.Resource},
	}
	return s
}

// AddWorld registers the calibrated map for a world code.
func (s *Session) AddWorld(w World) {
	s.worlds[w.Code] = &w
}

// Labels returns the label snapshot taken when the session was created.
func (s *Session) Labels() LabelIndex {
	return s.labels
}

// Stats returns the counts accumulated so far.
func (s *Session) Stats() Stats {
	return s.stats
}

// Resolve resolves pin and writes its augmentation into the graph.
// Incomplete pins return an UnresolvedPin error and pins of unknown worlds
// ErrNoMap; neither touches the graph.
func (s *Session) Resolve(pin model.Pin) (Result, error) {
	if !pin.Complete() {
		s.stats.Skipped[SkipIncomplete]++
		return Result{}, kgerrors.Newf(kgerrors.KindUnresolvedPin, stage, pin.Source(),
			"pin is missing its name, type or position")
	}
	w, ok := s.worlds[pin.WorldCode]
	if !ok {
		s.stats.Skipped[SkipNoMap]++
		return Result{}, fmt.Errorf("%s: %w", pin.Source(), ErrNoMap)
	}

	ctx := &Context{
		World: w,
		Point: w.Transform.Transform(pointOf(pin)),
	}
	var res Result
	for _, m := range s.matchers {
		if entity, ok := m.TryResolve(&pin, ctx); ok {
			res = Result{Entity: entity, Tier: m.Tier(), Created: m.Tier() == TierCreateNew}
			break
		}
		logging.Trace(s.logger, "Tier missed", "pin", pin.Source(), "tier", string(m.Tier()), "city", ctx.City)
	}
	res.Ambiguous = ctx.Ambiguous
	if ctx.Ambiguous {
		s.stats.Ambiguous++
		s.logger.Debug("No composite label for generic pin inside city",
			"pin", pin.Source(), "name", pin.Name, "city", ctx.City,
			"error", kgerrors.New(kgerrors.KindAmbiguousContextualMatch, stage, pin.Source(), nil))
	}

	s.coords.Put(pin.WorldCode, pin.Position.X, pin.Position.Y, res.Entity)
	s.augment(&pin, ctx, res)
	s.stats.Resolved[res.Tier]++

	s.logger.Debug("Pin resolved",
		"pin", pin.Source(),
		"name", pin.Name,
		"tier", string(res.Tier),
		"entity", res.Entity.Value)
	return res, nil
}

// ResolveAll resolves pins in order. Skipped pins are counted, not
// returned; only context cancellation stops the loop.
func (s *Session) ResolveAll(ctx context.Context, pins []model.Pin) (Stats, error) {
	for _, p := range pins {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}
		if _, err := s.Resolve(p); err != nil {
			if errors.Is(err, ErrNoMap) {
				s.logger.Debug("Skipping pin without calibrated map", "pin", p.Source())
			}
			continue
		}
	}
	return s.stats, nil
}

func (s *Session) augment(pin *model.Pin, ctx *Context, res Result) {
	src := pin.Source()
	e := res.Entity
	add := func(p, o rdf.Term) { s.graph.AddFrom(src, rdf.T(e, p, o)) }

	if res.Created {
		s.graph.SetLabel(src, e, pin.Name)
	}
	add(rdf.TypePredicate, rdf.FeatureClass)
	if local := emit.Sanitize(pin.Type); local != "" {
		add(rdf.TypePredicate, s.ns.Ontology.Term(local))
	}
	for _, c := range s.inferClasses(pin.Name) {
		add(rdf.TypePredicate, c)
	}

	g := rdf.IRI(e.Value + "_pin_" + emit.Sanitize(strings.Join([]string{
		pin.WorldCode, coordToken(pin.Position.X), coordToken(pin.Position.Y),
	}, "_")))
	add(rdf.HasGeometry, g)
	s.graph.AddFrom(src, rdf.T(g, rdf.TypePredicate, rdf.GeometryClass))
	s.graph.AddFrom(src, rdf.T(g, rdf.AsWKT, rdf.WKT(geo.ToWKT(ctx.Point))))

	if !ctx.World.Map.IsZero() {
		add(s.ns.Ontology.Term("isPartOf"), ctx.World.Map)
	}
	add(s.ns.Ontology.Term("gameX"), rdf.Double(pin.Position.X))
	add(s.ns.Ontology.Term("gameY"), rdf.Double(pin.Position.Y))
	if pin.InternalName != "" {
		add(s.ns.Ontology.Term("hasInternalName"), rdf.Literal(pin.InternalName))
	}
	if w := pin.World(); w != "" {
		add(s.ns.Ontology.Term("locatedInWorld"), rdf.Literal(w))
	}
}

// inferClasses returns the classes whose keyword occurs in name.
func (s *Session) inferClasses(name string) []rdf.Term {
	lower := strings.ToLower(name)
	var out []rdf.Term
	for _, k := range s.keywords {
		if strings.Contains(lower, k.fragment) {
			out = append(out, k.class)
		}
	}
	return out
}
