package geo

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/paulmach/orb"

	"witcherkg/pkg/emit"
	"witcherkg/pkg/rdf"
)

// LayerSpec says how one layer's features become entities.
type LayerSpec struct {
	// Class is the local name of the ontology class every feature gets.
	Class string
	// NameAttribute names the attribute holding a feature's display name.
	// When empty the layer is anonymous and features are named by OBJECTID.
	NameAttribute string
	// URIPrefix is prepended to anonymous feature names.
	URIPrefix string
}

// IngestStats summarizes one layer.
type IngestStats struct {
	Features   int
	Geometries int
	Dropped    map[string]int
}

func (s *IngestStats) drop(reason string) {
	if s.Dropped == nil {
		s.Dropped = make(map[string]int)
	}
	s.Dropped[reason]++
}

// Drop reasons reported in IngestStats.
const (
	DropNoSubject  = "no_subject"
	DropNoGeometry = "no_geometry"
	DropBadRing    = "malformed_ring"
)

// Ingestor writes layer features into the graph and records named polygons
// in the city registry.
type Ingestor struct {
	graph  *rdf.Graph
	ns     rdf.Namespaces
	cities *CityRegistry
	logger *slog.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(g *rdf.Graph, ns rdf.Namespaces, cities *CityRegistry, logger *slog.Logger) *Ingestor {
	if cities == nil {
		cities = NewCityRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{graph: g, ns: ns, cities: cities, logger: logger}
}

// Cities returns the registry fed by named polygon layers.
func (in *Ingestor) Cities() *CityRegistry {
	return in.cities
}

func (in *Ingestor) isPartOf() rdf.Term    { return in.ns.Ontology.Term("isPartOf") }
func (in *Ingestor) shapeArea() rdf.Term   { return in.ns.Ontology.Term("shapeArea") }
func (in *Ingestor) shapeLength() rdf.Term { return in.ns.Ontology.Term("shapeLength") }

// IngestLayer emits every usable feature of layer as a geo:Feature of the
// layer's class, part of mapCtx.
func (in *Ingestor) IngestLayer(layer *Layer, spec LayerSpec, mapCtx rdf.Term) IngestStats {
	var st IngestStats
	class := in.ns.Ontology.Term(emit.Sanitize(spec.Class))

	for i, f := range layer.Features {
		source := fmt.Sprintf("%s#%d", layer.Path, i)

		subject, name, ok := in.subject(f, spec)
		if !ok {
			in.logger.Warn("Could not determine a URI for feature, skipping", "layer", layer.Path, "index", i)
			st.drop(DropNoSubject)
			continue
		}

		polys, errs := ParsePolygons(f.Rings)
		for _, err := range slices.Concat(f.Malformed, errs) {
			in.logger.Warn("Dropping malformed ring", "feature", subject.Value, "error", err)
			st.drop(DropBadRing)
		}
		lines := multiLine(f.Paths)

		var geoms []rdf.Term
		switch {
		case len(polys) == 1:
			g := rdf.IRI(subject.Value + "_geometry")
			in.geometry(source, g, polys[0])
			in.shapeStats(source, g, f)
			geoms = append(geoms, g)
		case len(polys) > 1:
			for n, p := range polys {
				g := rdf.IRI(subject.Value + "_geometry_part_" + strconv.Itoa(n+1))
				in.geometry(source, g, p)
				geoms = append(geoms, g)
			}
			in.shapeStats(source, subject, f)
		case len(lines) > 0:
			g := rdf.IRI(subject.Value + "_geometry")
			in.geometry(source, g, lines)
			in.shapeStats(source, g, f)
			geoms = append(geoms, g)
		default:
			in.logger.Warn("No valid geometry found, skipping", "feature", subject.Value)
			st.drop(DropNoGeometry)
			continue
		}

		in.graph.AddFrom(source, rdf.T(subject, rdf.TypePredicate, rdf.FeatureClass))
		in.graph.AddFrom(source, rdf.T(subject, rdf.TypePredicate, class))
		for _, g := range geoms {
			in.graph.AddFrom(source, rdf.T(subject, rdf.HasGeometry, g))
		}
		if !mapCtx.IsZero() {
			in.graph.AddFrom(source, rdf.T(subject, in.isPartOf(), mapCtx))
		}

		if name != "" && len(polys) > 0 {
			in.cities.Register(name, polys)
		}
		st.Features++
		st.Geometries += len(geoms)
	}

	in.logger.Debug("Layer ingested",
		"layer", layer.Path,
		"class", spec.Class,
		"features", st.Features,
		"geometries", st.Geometries)
	return st
}

// subject derives the feature IRI: the sanitized display name for named
// layers, prefix_Class_OBJECTID for anonymous ones.
func (in *Ingestor) subject(f Feature, spec LayerSpec) (rdf.Term, string, bool) {
	if spec.NameAttribute != "" {
		name, ok := f.Attr(spec.NameAttribute)
		if !ok {
			return rdf.Term{}, "", false
		}
		local := emit.Sanitize(name)
		if local == "" {
			return rdf.Term{}, "", false
		}
		return in.ns.Resource.Term(local), name, true
	}

	id, ok := f.Attr("OBJECTID")
	if !ok {
		return rdf.Term{}, "", false
	}
	base := spec.Class + "_" + id
	if spec.URIPrefix != "" {
		base = spec.URIPrefix + "_" + base
	}
	local := emit.Sanitize(base)
	if local == "" {
		return rdf.Term{}, "", false
	}
	return in.ns.Resource.Term(local), "", true
}

func (in *Ingestor) geometry(source string, g rdf.Term, geom orb.Geometry) {
	in.graph.AddFrom(source, rdf.T(g, rdf.TypePredicate, rdf.GeometryClass))
	in.graph.AddFrom(source, rdf.T(g, rdf.AsWKT, rdf.WKT(ToWKT(geom))))
}

func (in *Ingestor) shapeStats(source string, target rdf.Term, f Feature) {
	if v, ok := f.Number("Shape__Area"); ok {
		in.graph.AddFrom(source, rdf.T(target, in.shapeArea(), rdf.Double(v)))
	}
	if v, ok := f.Number("Shape__Length"); ok {
		in.graph.AddFrom(source, rdf.T(target, in.shapeLength(), rdf.Double(v)))
	}
}

// IngestBorder attaches the first polygon of layer to the map entity itself.
// It returns false when the layer has no usable polygon.
func (in *Ingestor) IngestBorder(layer *Layer, mapCtx rdf.Term) bool {
	source := layer.Path + "#border"
	for _, f := range layer.Features {
		polys, errs := ParsePolygons(f.Rings)
		for _, err := range slices.Concat(f.Malformed, errs) {
			in.logger.Warn("Dropping malformed border ring", "layer", layer.Path, "error", err)
		}
		if len(polys) == 0 {
			continue
		}
		g := rdf.IRI(mapCtx.Value + "_geometry")
		in.graph.AddFrom(source, rdf.T(mapCtx, rdf.TypePredicate, in.ns.Ontology.Term("Map")))
		in.graph.AddFrom(source, rdf.T(mapCtx, rdf.TypePredicate, rdf.FeatureClass))
		in.graph.AddFrom(source, rdf.T(mapCtx, rdf.HasGeometry, g))
		in.geometry(source, g, polys[0])
		return true
	}
	in.logger.Warn("Border layer has no usable polygon", "layer", layer.Path)
	return false
}
