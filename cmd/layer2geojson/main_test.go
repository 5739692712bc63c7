package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const esriLayer = `{"features": [
  {"attributes": {"OBJECTID": 1, "name": "Oxenfurt"},
   "geometry": {"rings": [[[80, 30], [80, 70], [120, 70], [120, 30], [80, 30]]]}},
  {"attributes": {"OBJECTID": 2},
   "geometry": {"paths": [[[0, 0], [10, 10]], [[10, 10], [20, 0]]]}}
]}`

func readCollection(t *testing.T, path string) *geojson.FeatureCollection {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc := geojson.NewFeatureCollection()
	require.NoError(t, json.Unmarshal(data, fc))
	return fc
}

func TestRun_SingleLayer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cities.json")
	require.NoError(t, os.WriteFile(in, []byte(esriLayer), 0o644))
	out := filepath.Join(dir, "cities.geojson")

	require.NoError(t, run(in, out))

	fc := readCollection(t, out)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "Oxenfurt", fc.Features[0].Properties["name"])
	assert.Equal(t, "MultiLineString", fc.Features[1].Geometry.GeoJSONType())
}

func TestRun_Pattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"novigrad_lakes.json", "novigrad_roads.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(esriLayer), 0o644))
	}
	outDir := filepath.Join(dir, "out")

	require.NoError(t, run(filepath.Join(dir, "novigrad_*.json"), outDir))

	for _, name := range []string{"novigrad_lakes.geojson", "novigrad_roads.geojson"} {
		assert.Len(t, readCollection(t, filepath.Join(outDir, name)).Features, 2)
	}
}

func TestRun_NoMatch(t *testing.T) {
	dir := t.TempDir()
	err := run(filepath.Join(dir, "*.shp"), filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "no layer matches")
}
