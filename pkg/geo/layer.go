// Package geo loads map layers, repairs their polygons and turns features into
// GeoSPARQL triples. It also keeps the registry of named city polygons used
// for contextual pin resolution.
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"witcherkg/pkg/kgerrors"
)

const stage = "geo"

// Feature is one layer record: its attributes plus raw polygon rings or
// polyline paths.
type Feature struct {
	Attributes map[string]any
	Rings      [][]orb.Point
	Paths      [][]orb.Point
	// Malformed holds the rings or paths that could not be decoded.
	Malformed []error
}

// Layer is a decoded feature collection.
type Layer struct {
	Path     string
	Features []Feature
}

// LoadLayer decodes the file at path. The format follows the extension:
// .json is Esri JSON, .geojson is GeoJSON and .shp is an ESRI Shapefile.
func LoadLayer(path string) (*Layer, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, kgerrors.New(kgerrors.KindMissingFile, stage, path, err)
		}
		return nil, fmt.Errorf("stat layer %s: %w", path, err)
	}

	var (
		features []Feature
		err      error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		features, err = loadGeoJSON(path)
	case ".shp":
		features, err = loadShapefile(path)
	default:
		features, err = loadEsriJSON(path)
	}
	if err != nil {
		return nil, err
	}
	return &Layer{Path: path, Features: features}, nil
}

type esriEnvelope struct {
	Features []struct {
		Attributes map[string]any `json:"attributes"`
		Geometry   struct {
			Rings json.RawMessage `json:"rings"`
			Paths json.RawMessage `json:"paths"`
		} `json:"geometry"`
	} `json:"features"`
}

func loadEsriJSON(path string) ([]Feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer %s: %w", path, err)
	}
	data, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layer %s: %w", path, err)
	}

	var env esriEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse esri json %s: %w", path, err)
	}

	out := make([]Feature, 0, len(env.Features))
	for i, f := range env.Features {
		feat := Feature{Attributes: f.Attributes}
		if feat.Attributes == nil {
			feat.Attributes = map[string]any{}
		}
		src := fmt.Sprintf("%s#%d", path, i)
		var ringErrs, pathErrs []error
		feat.Rings, ringErrs = decodeRings(f.Geometry.Rings, src+" rings")
		feat.Paths, pathErrs = decodeRings(f.Geometry.Paths, src+" paths")
		feat.Malformed = slices.Concat(ringErrs, pathErrs)
		out = append(out, feat)
	}
	return out, nil
}

// decodeText returns raw as UTF-8. A UTF-8 or UTF-16 BOM selects the
// encoding; without one, a NUL byte in the first pair marks UTF-16 and
// little-endian is assumed unless the NUL comes first.
func decodeText(raw []byte) ([]byte, error) {
	hasBOM := bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) ||
		bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if !hasBOM {
		if len(raw) < 2 || (raw[0] != 0 && raw[1] != 0) {
			return raw, nil
		}
		endian := unicode.LittleEndian
		if raw[0] == 0 {
			endian = unicode.BigEndian
		}
		out, _, err := transform.Bytes(unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder(), raw)
		return out, err
	}
	dec := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	return out, err
}

// decodeRings decodes a list of coordinate rings. Nesting is decided per
// element: a ring wrapped in one redundant level is flattened. Elements that
// are not rings of numeric pairs are reported as MalformedGeometry and the
// rest are kept.
func decodeRings(raw json.RawMessage, source string) ([][]orb.Point, []error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, []error{kgerrors.New(kgerrors.KindMalformedGeometry, stage, source, err)}
	}

	var (
		rings [][][]float64
		errs  []error
	)
	for n, e := range elems {
		var ring [][]float64
		if err := json.Unmarshal(e, &ring); err == nil {
			rings = append(rings, ring)
			continue
		}
		var group [][][]float64
		if err := json.Unmarshal(e, &group); err != nil {
			errs = append(errs, kgerrors.New(kgerrors.KindMalformedGeometry, stage,
				fmt.Sprintf("%s[%d]", source, n), err))
			continue
		}
		rings = append(rings, group...)
	}
	return toPoints(rings), errs
}

func toPoints(rings [][][]float64) [][]orb.Point {
	out := make([][]orb.Point, 0, len(rings))
	for _, r := range rings {
		pts := make([]orb.Point, 0, len(r))
		for _, c := range r {
			if len(c) < 2 {
				continue
			}
			pts = append(pts, orb.Point{c[0], c[1]})
		}
		out = append(out, pts)
	}
	return out
}

func loadGeoJSON(path string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}

	out := make([]Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		feat := Feature{Attributes: map[string]any(f.Properties)}
		if feat.Attributes == nil {
			feat.Attributes = map[string]any{}
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			feat.Rings = exteriorRings(orb.MultiPolygon{g})
		case orb.MultiPolygon:
			feat.Rings = exteriorRings(g)
		case orb.LineString:
			feat.Paths = [][]orb.Point{g}
		case orb.MultiLineString:
			for _, ls := range g {
				feat.Paths = append(feat.Paths, ls)
			}
		default:
			continue
		}
		out = append(out, feat)
	}
	return out, nil
}

// exteriorRings keeps the outer ring of every polygon; each one becomes an
// independent polygon, the same as Esri rings.
func exteriorRings(mp orb.MultiPolygon) [][]orb.Point {
	var out [][]orb.Point
	for _, p := range mp {
		if len(p) > 0 {
			out = append(out, p[0])
		}
	}
	return out
}

func loadShapefile(path string) ([]Feature, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}

	var out []Feature
	for shape.Next() {
		n, p := shape.Shape()

		feat := Feature{Attributes: make(map[string]any, len(names))}
		switch s := p.(type) {
		case *shp.Polygon:
			feat.Rings = shapeParts(s.Parts, s.Points)
		case *shp.PolyLine:
			feat.Paths = shapeParts(s.Parts, s.Points)
		default:
			continue
		}
		for i, name := range names {
			feat.Attributes[name] = strings.TrimSpace(strings.Trim(shape.ReadAttribute(n, i), "\x00"))
		}
		out = append(out, feat)
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shapes: %w", err)
	}
	return out, nil
}

func shapeParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i < len(parts)-1 {
			end = parts[i+1]
		}
		ring := make([]orb.Point, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{points[j].X, points[j].Y})
		}
		out = append(out, ring)
	}
	return out
}

// ToFeatureCollection renders the layer as GeoJSON: rings become one polygon
// each and paths one multi-line string.
func (l *Layer) ToFeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.Features {
		var g orb.Geometry
		switch {
		case len(f.Rings) == 1:
			g = orb.Polygon{orb.Ring(f.Rings[0])}
		case len(f.Rings) > 1:
			mp := make(orb.MultiPolygon, 0, len(f.Rings))
			for _, r := range f.Rings {
				mp = append(mp, orb.Polygon{orb.Ring(r)})
			}
			g = mp
		case len(f.Paths) > 0:
			mls := make(orb.MultiLineString, 0, len(f.Paths))
			for _, p := range f.Paths {
				mls = append(mls, orb.LineString(p))
			}
			g = mls
		default:
			continue
		}
		gf := geojson.NewFeature(g)
		for k, v := range f.Attributes {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	return fc
}

// Attr returns an attribute rendered as a string. Whole numbers print
// without a fractional part.
func (f Feature) Attr(key string) (string, bool) {
	v, ok := f.Attributes[key]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return fmt.Sprint(v), true
}

// Number returns a numeric attribute.
func (f Feature) Number(key string) (float64, bool) {
	v, ok := f.Attributes[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		n, err := x.Float64()
		return n, err == nil
	case int:
		return float64(x), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return n, err == nil
	}
	return 0, false
}
