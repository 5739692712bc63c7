package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"

	"witcherkg/pkg/calibrate"
	"witcherkg/pkg/emit"
	"witcherkg/pkg/geo"
	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/logging"
	"witcherkg/pkg/metrics"
	"witcherkg/pkg/ontology"
	"witcherkg/pkg/rdf"
	"witcherkg/pkg/resolver"
	"witcherkg/pkg/wikitext"
)

// OntologyStage loads the class hierarchy. A missing file leaves every page
// untyped but does not stop the build.
type OntologyStage struct{}

func (OntologyStage) Name() string { return "ontology" }

func (OntologyStage) Execute(ctx context.Context, rc *RunContext) error {
	classes, err := ontology.Load(ctx, rc.Config.Input.Classes, rc.Graph, rc.Namespaces,
		logging.Component(rc.Logger, "ontology"))
	rc.Classes = classes
	if err != nil {
		if kgerrors.KindOf(err) == kgerrors.KindMissingFile {
			rc.record("ontology", err)
			return nil
		}
		return err
	}
	rc.Logger.Info("Ontology loaded", "classes", classes.Size())
	return nil
}

// WikiStage streams the dump and emits one entity per page.
type WikiStage struct{}

func (WikiStage) Name() string { return "wiki" }

func (WikiStage) Execute(ctx context.Context, rc *RunContext) error {
	path := rc.Config.Input.Dump
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rc.record("wiki", kgerrors.New(kgerrors.KindMissingFile, "wiki", path, err))
			return nil
		}
		return fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	emitter := emit.NewEmitter(rc.Graph, rc.Classes, rc.Namespaces, logging.Component(rc.Logger, "emit"))
	reader := wikitext.NewPageReader(f)
	var total emit.PageStats
	for {
		page, ok := reader.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		st := emitter.EmitPage(page)
		total.Types += st.Types
		total.Properties += st.Properties
		total.Links += st.Links
		total.Literals += st.Literals
		rc.Report.Pages++
		rc.Metrics.PagesProcessed.Inc()
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("read dump %s: %w", path, err)
	}

	rc.Logger.Info("Wiki pages processed",
		"pages", rc.Report.Pages,
		"types", total.Types,
		"properties", total.Properties,
		"links", total.Links,
		"literals", total.Literals)
	return nil
}

// GeoStage creates each map entity and ingests its border and layers.
type GeoStage struct{}

func (GeoStage) Name() string { return "geo" }

func (GeoStage) Execute(ctx context.Context, rc *RunContext) error {
	logger := logging.Component(rc.Logger, "geo")
	isPartOf := rc.Namespaces.Ontology.Term("isPartOf")

	for _, m := range rc.Config.Maps {
		cities := geo.NewCityRegistry()
		rc.Cities[m.Code] = cities
		ingestor := geo.NewIngestor(rc.Graph, rc.Namespaces, cities, logger)

		mapCtx := rc.Namespaces.Resource.Term(emit.Sanitize(m.Name))
		rc.Maps[m.Code] = mapCtx
		source := "config:maps/" + m.Code
		rc.Graph.AddFrom(source, rdf.T(mapCtx, rdf.TypePredicate, rc.Namespaces.Ontology.Term("Map")))
		rc.Graph.SetLabel(source, mapCtx, m.Label)
		for _, member := range m.Members {
			rc.Graph.AddFrom(source, rdf.T(rc.Namespaces.Resource.Term(emit.Sanitize(member)), isPartOf, mapCtx))
		}

		if m.Border != "" {
			for _, layer := range loadLayers(rc, m.Border) {
				ingestor.IngestBorder(layer, mapCtx)
			}
		}

		for _, lc := range m.Layers {
			spec := geo.LayerSpec{Class: lc.Class, NameAttribute: lc.NameAttribute, URIPrefix: lc.URIPrefix}
			for _, layer := range loadLayers(rc, lc.Path) {
				if err := ctx.Err(); err != nil {
					return err
				}
				st := ingestor.IngestLayer(layer, spec, mapCtx)
				rc.Report.Features[lc.Class] += st.Features
				rc.Metrics.FeaturesIngested.WithLabelValues(lc.Class).Add(float64(st.Features))
				for reason, n := range st.Dropped {
					rc.Report.Dropped[reason] += n
				}
				metrics.AddCounts(rc.Metrics.FeaturesDropped, st.Dropped)
				rc.Logger.Info("Layer ingested",
					"map", m.Code,
					"layer", filepath.Base(layer.Path),
					"class", lc.Class,
					"features", st.Features,
					"geometries", st.Geometries)
			}
		}
		rc.Logger.Info("City registry ready", "map", m.Code, "cities", len(cities.Names()), "polygons", cities.Len())
	}
	return nil
}

// loadLayers expands pattern and loads every match. Missing and unreadable
// layers are recorded and skipped.
func loadLayers(rc *RunContext, pattern string) []*geo.Layer {
	paths, err := geo.ExpandPaths(pattern)
	if err != nil {
		rc.record("geo", err)
		return nil
	}
	if len(paths) == 0 {
		rc.record("geo", kgerrors.Newf(kgerrors.KindMissingFile, "geo", pattern, "no layer matches pattern"))
		return nil
	}
	var layers []*geo.Layer
	for _, p := range paths {
		layer, err := geo.LoadLayer(p)
		if err != nil {
			rc.record("geo", err)
			continue
		}
		layers = append(layers, layer)
	}
	return layers
}

// CalibrateStage fits the game-to-GIS transform of every map. A failed fit is
// fatal for that map only: its pins are left unresolved.
type CalibrateStage struct{}

func (CalibrateStage) Name() string { return "calibrate" }

func (CalibrateStage) Execute(ctx context.Context, rc *RunContext) error {
	for _, m := range rc.Config.Maps {
		pairs := make([]calibrate.ControlPair, 0, len(m.ControlPoints))
		for _, cp := range m.ControlPoints {
			pairs = append(pairs, calibrate.ControlPair{
				Game: orb.Point{cp.Game[0], cp.Game[1]},
				GIS:  orb.Point{cp.GIS[0], cp.GIS[1]},
			})
		}

		affine, err := calibrate.Fit(pairs)
		if err != nil {
			var kerr *kgerrors.Error
			switch {
			case !errors.As(err, &kerr):
				err = kgerrors.New(kgerrors.KindCalibrationFailure, "calibrate", m.Code, err)
			case kerr.Source == "":
				kerr.Source = m.Code
			}
			rc.record("calibrate", err)
			continue
		}

		w := resolver.World{
			Code:      m.Code,
			Map:       rc.Maps[m.Code],
			Transform: affine,
		}
		if cities, ok := rc.Cities[m.Code]; ok {
			w.Cities = cities
		}
		rc.Worlds = append(rc.Worlds, w)
		rc.Logger.Info("Map calibrated",
			"map", m.Code,
			"control_points", len(pairs),
			"max_residual", affine.Residual(pairs))
	}
	return nil
}
