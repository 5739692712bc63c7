// Command layer2geojson converts map layers (Esri JSON, GeoJSON or
// shapefile) to GeoJSON so they can be inspected in any GIS viewer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"witcherkg/pkg/geo"
)

func main() {
	inputPath := flag.String("input", "", "Layer file or glob pattern")
	outputPath := flag.String("output", "", "Output .geojson file, or directory when the input matches several layers")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		log.Fatal("Input and output paths are required")
	}

	if err := run(*inputPath, *outputPath); err != nil {
		log.Fatal(err)
	}
}

func run(inputPath, outputPath string) error {
	paths, err := geo.ExpandPaths(inputPath)
	if err != nil {
		return err
	}
	switch len(paths) {
	case 0:
		return fmt.Errorf("no layer matches %s", inputPath)
	case 1:
		return convert(paths[0], outputPath)
	}

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, p := range paths {
		if err := convert(p, filepath.Join(outputPath, outputName(p))); err != nil {
			return err
		}
	}
	return nil
}

func convert(inputPath, outputPath string) error {
	layer, err := geo.LoadLayer(inputPath)
	if err != nil {
		return err
	}
	fc := layer.ToFeatureCollection()

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Converted %d of %d features from %s to %s\n",
		len(fc.Features), len(layer.Features), inputPath, outputPath)
	return nil
}

// outputName swaps the layer's extension for .geojson.
func outputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".geojson"
}
