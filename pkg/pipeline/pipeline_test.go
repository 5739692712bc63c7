package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"witcherkg/pkg/config"
	"witcherkg/pkg/db"
	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/rdf"
	"witcherkg/pkg/resolver"
	"witcherkg/pkg/store"
)

const classesTTL = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix witcher: <http://cgi.di.uoa.gr/witcher/ontology#> .

witcher:Characters a owl:Class .
witcher:Witchers a owl:Class ;
    rdfs:subClassOf witcher:Characters .
`

const dumpXML = `<mediawiki>
  <page>
    <title>Vesemir</title>
    <text>[[Category:Witchers]]
{{Infobox character
| name = Vesemir
| home = [[Kaer Morhen]]
}}</text>
  </page>
  <page>
    <title>Blacksmith (Oxenfurt)</title>
    <text>[[Category:Characters]]
{{Infobox character
| name = Blacksmith
}}</text>
  </page>
</mediawiki>
`

const citiesJSON = `{"features": [
  {"attributes": {"OBJECTID": 1, "name": "Oxenfurt", "Shape__Area": 1600},
   "geometry": {"rings": [[[80, 30], [80, 70], [120, 70], [120, 30], [80, 30]]]}}
]}`

const roadsJSON = `{"features": [
  {"attributes": {"OBJECTID": 3},
   "geometry": {"paths": [[[0, 0], [10, 10]]]}}
]}`

const borderJSON = `{"features": [
  {"attributes": {},
   "geometry": {"rings": [[[0, 0], [0, 200], [200, 200], [200, 0], [0, 0]]]}}
]}`

const pinsXML = `<mappins>
  <world name="No Man's Land" code="NO">
    <mappin type="Blacksmith">
      <name>Blacksmith</name>
      <internalname>oxenfurt_blacksmith</internalname>
      <position x="100" y="50" />
    </mappin>
    <mappin type="Landmark">
      <name>Ancient Oak</name>
      <position x="5" y="5" />
    </mappin>
    <mappin type="Landmark">
      <name>Ancient Oak</name>
      <position x="5" y="5" />
    </mappin>
    <mappin type="Landmark">
      <position x="6" y="6" />
    </mappin>
  </world>
  <world name="Kaer Morhen" code="KM">
    <mappin type="Landmark">
      <name>Keep</name>
      <position x="1" y="1" />
    </mappin>
  </world>
</mappins>`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// testConfig lays out a complete input tree with an identity calibration.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Input = config.InputConfig{
		Dump:    writeFixture(t, dir, "dump.xml", dumpXML),
		Classes: writeFixture(t, dir, "Classes.ttl", classesTTL),
		MapPins: writeFixture(t, dir, "MapPins.xml", pinsXML),
	}
	writeFixture(t, dir, "InfoFiles/novigrad_cities.json", citiesJSON)
	writeFixture(t, dir, "InfoFiles/novigrad_roads.json", roadsJSON)
	cfg.Output.Path = filepath.Join(dir, "RDF", "main_linked.ttl")
	cfg.Log.Path = ""
	cfg.Metrics.Textfile = filepath.Join(dir, "metrics", "witcherkg.prom")
	cfg.DB.Path = filepath.Join(dir, "data", "witcherkg.db")

	m := &cfg.Maps[0]
	m.Border = writeFixture(t, dir, "InfoFiles/novigrad_borders.json", borderJSON)
	m.ControlPoints = []config.ControlPoint{
		{Game: [2]float64{0, 0}, GIS: [2]float64{0, 0}},
		{Game: [2]float64{100, 0}, GIS: [2]float64{100, 0}},
		{Game: [2]float64{0, 100}, GIS: [2]float64{0, 100}},
	}
	m.Layers = []config.LayerConfig{
		{Path: filepath.Join(dir, "InfoFiles", "novigrad_cities.json"), Class: "City", NameAttribute: "name"},
		{Path: filepath.Join(dir, "InfoFiles", "novigrad_r*.json"), Class: "Road", URIPrefix: "Novigrad"},
		{Path: filepath.Join(dir, "InfoFiles", "novigrad_lakes.json"), Class: "Lake", URIPrefix: "Novigrad"},
	}
	return cfg
}

func parseOutput(t *testing.T, path string) *rdf.Graph {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	g := rdf.NewGraph(nil)
	require.NoError(t, rdf.ParseTurtle(bytes.NewReader(data), func(tr rdf.Triple) { g.Add(tr) }))
	return g
}

func TestPipeline_EndToEnd(t *testing.T) {
	cfg := testConfig(t)

	report, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.Fatal())

	ont := rdf.Namespace(cfg.Namespaces.Ontology)
	res := rdf.Namespace(cfg.Namespaces.Resource)
	g := parseOutput(t, cfg.Output.Path)
	assert.Equal(t, report.Triples, g.Len(), "output holds every triple")

	mapIRI := res.Term("Novigrad_And_Velen_Map")
	assert.True(t, g.Has(rdf.T(mapIRI, rdf.TypePredicate, ont.Term("Map"))))
	assert.True(t, g.Has(rdf.T(res.Term("Novigrad"), ont.Term("isPartOf"), mapIRI)))
	assert.Len(t, g.Objects(rdf.IRI(mapIRI.Value+"_geometry"), rdf.AsWKT), 1, "border geometry")

	// Textual entities
	assert.True(t, g.Has(rdf.T(res.Term("Vesemir"), rdf.TypePredicate, ont.Term("Witchers"))))
	assert.True(t, g.Has(rdf.T(res.Term("Vesemir"), ont.Term("home"), res.Term("Kaer_Morhen"))))

	// Geometry
	assert.True(t, g.Has(rdf.T(res.Term("Oxenfurt"), rdf.TypePredicate, ont.Term("City"))))
	assert.True(t, g.Has(rdf.T(res.Term("Novigrad_Road_3"), rdf.TypePredicate, ont.Term("Road"))))

	// Scenario A: the generic pin inside Oxenfurt reuses the wiki entity.
	blacksmith := res.Term("Blacksmith_Oxenfurt")
	assert.True(t, g.Has(rdf.T(blacksmith, rdf.TypePredicate, rdf.FeatureClass)))
	assert.True(t, g.Has(rdf.T(blacksmith, ont.Term("isPartOf"), mapIRI)))
	assert.True(t, g.Has(rdf.T(blacksmith, ont.Term("hasInternalName"), rdf.Literal("oxenfurt_blacksmith"))))

	// Scenario B: no match mints a coordinate-derived entity, once.
	oak := res.Term("NO_Ancient_Oak_5_5")
	assert.True(t, g.Has(rdf.T(oak, rdf.TypePredicate, ont.Term("Landmark"))))
	assert.Len(t, g.Objects(oak, rdf.HasGeometry), 1)

	assert.Equal(t, 1, report.Pins.Resolved[resolver.TierSpatialContextual])
	assert.Equal(t, 1, report.Pins.Resolved[resolver.TierCreateNew])
	assert.Equal(t, 1, report.Pins.Resolved[resolver.TierCoordDedup])
	assert.Equal(t, 1, report.Pins.Skipped[resolver.SkipIncomplete])
	assert.Equal(t, 1, report.Pins.Skipped[resolver.SkipNoMap])
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 1, report.Features["City"])

	// The lakes layer is missing: a warning, not a failure.
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, kgerrors.KindMissingFile, kgerrors.KindOf(report.Warnings[0]))

	// Snapshot and metrics side outputs
	d, err := db.Init(cfg.DB.Path)
	require.NoError(t, err)
	s := store.NewSQLiteStore(d)
	defer s.Close()
	n, err := s.CountTriples(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Triples, n)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `witcherkg_pins_resolved_total{tier="spatial_contextual"} 1`)
	assert.Contains(t, string(prom), `witcherkg_pages_processed_total 2`)
}

func TestPipeline_MapNameIsSanitized(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Path = ""
	cfg.Metrics.Textfile = ""
	cfg.Maps[0].Name = "Novigrad and Velen Map"

	_, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	ont := rdf.Namespace(cfg.Namespaces.Ontology)
	res := rdf.Namespace(cfg.Namespaces.Resource)
	g := parseOutput(t, cfg.Output.Path)

	mapIRI := res.Term("Novigrad_and_Velen_Map")
	assert.True(t, g.Has(rdf.T(mapIRI, rdf.TypePredicate, ont.Term("Map"))))
	assert.True(t, g.Has(rdf.T(res.Term("Oxenfurt"), ont.Term("isPartOf"), mapIRI)))
	assert.Empty(t, g.Objects(res.Term("Novigrad and Velen Map"), rdf.TypePredicate))
}

func TestPipeline_Deterministic(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Path = ""
	cfg.Metrics.Textfile = ""

	_, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)

	_, err = New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestPipeline_CalibrationFailureIsFatalButWritesGraph(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maps[0].ControlPoints = cfg.Maps[0].ControlPoints[:2]

	report, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFatal))
	assert.True(t, errors.Is(err, kgerrors.ErrCalibration))
	assert.True(t, report.Fatal())

	g := parseOutput(t, cfg.Output.Path)
	res := rdf.Namespace(cfg.Namespaces.Resource)
	assert.True(t, g.Has(rdf.T(res.Term("Vesemir"), rdf.LabelPredicate, rdf.Literal("Vesemir"))),
		"textual entities are still written")
	assert.Empty(t, g.Objects(res.Term("NO_Ancient_Oak_5_5"), rdf.TypePredicate), "no pins for the failed map")
	assert.Equal(t, 4, report.Pins.Skipped[resolver.SkipNoMap])
}

func TestPipeline_MissingInputsDegrade(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.Classes = filepath.Join(t.TempDir(), "absent.ttl")
	cfg.Input.MapPins = filepath.Join(t.TempDir(), "absent.xml")
	cfg.DB.Path = ""

	report, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	kinds := map[kgerrors.Kind]int{}
	for _, w := range report.Warnings {
		kinds[kgerrors.KindOf(w)]++
	}
	assert.Equal(t, 3, kinds[kgerrors.KindMissingFile], "classes, pins and lakes")

	g := parseOutput(t, cfg.Output.Path)
	res := rdf.Namespace(cfg.Namespaces.Resource)
	label, ok := g.Label(res.Term("Vesemir"))
	assert.True(t, ok, "infobox pages keep their label without an ontology")
	assert.Equal(t, "Vesemir", label)
}

type failingStage struct{}

func (failingStage) Name() string { return "boom" }
func (failingStage) Execute(context.Context, *RunContext) error {
	return errors.New("disk on fire")
}

func TestPipeline_StageErrorAborts(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg, nil, OntologyStage{}, failingStage{}, WriteStage{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "stage boom failed"))
	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr), "later stages do not run")
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testConfig(t), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
