package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"novigrad_lakes.json", "novigrad_cities.json", "sub/novigrad_roads.json", "skellige_cities.json"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	}

	got, err := ExpandPaths(filepath.Join(dir, "novigrad_*.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "novigrad_cities.json"),
		filepath.Join(dir, "novigrad_lakes.json"),
	}, got)

	got, err = ExpandPaths(filepath.Join(dir, "**", "novigrad_roads.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sub", "novigrad_roads.json")}, got)

	missing := filepath.Join(dir, "absent.json")
	got, err = ExpandPaths(missing)
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, got, "plain paths pass through")

	got, err = ExpandPaths(filepath.Join(dir, "*.shp"))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ExpandPaths(filepath.Join(dir, "[.json"))
	assert.Error(t, err)
}
