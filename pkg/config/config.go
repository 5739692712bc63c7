package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override input and output paths.
const (
	EnvDump    = "WITCHERKG_DUMP"
	EnvClasses = "WITCHERKG_CLASSES"
	EnvMapPins = "WITCHERKG_MAPPINS"
	EnvOutput  = "WITCHERKG_OUTPUT"
)

// DefaultPath is where the CLI looks for its configuration.
const DefaultPath = "configs/witcherkg.yaml"

// Config holds the build configuration.
type Config struct {
	Input      InputConfig     `yaml:"input"`
	Output     OutputConfig    `yaml:"output"`
	Namespaces NamespaceConfig `yaml:"namespaces"`
	Maps       []MapConfig     `yaml:"maps"`
	Resolver   ResolverConfig  `yaml:"resolver"`
	Log        LogConfig       `yaml:"log"`
	DB         DBConfig        `yaml:"db"`
	Metrics    MetricsConfig   `yaml:"metrics"`
}

// InputConfig holds the paths of the source files.
type InputConfig struct {
	Dump    string `yaml:"dump"`     // main-namespace wiki XML dump
	Classes string `yaml:"classes"`  // Turtle file of owl:Class definitions
	MapPins string `yaml:"map_pins"` // MapPins.xml
}

// OutputConfig holds the graph destination.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// NamespaceConfig holds the ontology and resource bases.
type NamespaceConfig struct {
	Ontology string `yaml:"ontology"`
	Resource string `yaml:"resource"`
}

// MapConfig describes one calibrated game map.
type MapConfig struct {
	Code  string `yaml:"code"` // world code used by map pins, e.g. "NO"
	Name  string `yaml:"name"` // sanitized into the local name of the map entity
	Label string `yaml:"label"`
	// Border is the layer holding the map's outer boundary.
	Border string `yaml:"border"`
	// Members are resource local names asserted isPartOf the map.
	Members       []string       `yaml:"members"`
	ControlPoints []ControlPoint `yaml:"control_points"`
	Layers        []LayerConfig  `yaml:"layers"`
}

// ControlPoint pairs a game coordinate with its GIS counterpart.
type ControlPoint struct {
	Game [2]float64 `yaml:"game,flow"`
	GIS  [2]float64 `yaml:"gis,flow"`
}

// LayerConfig describes one feature layer. Path may be a glob.
type LayerConfig struct {
	Path          string `yaml:"path"`
	Class         string `yaml:"class"`
	NameAttribute string `yaml:"name_attribute,omitempty"`
	URIPrefix     string `yaml:"uri_prefix,omitempty"`
}

// ResolverConfig holds the pin resolution tables.
type ResolverConfig struct {
	GenericNames []string `yaml:"generic_names"`
	// Keywords maps a lowercase name fragment to the class it implies.
	Keywords map[string]string `yaml:"keywords"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
	Trace bool   `yaml:"trace"`
}

// DBConfig holds the optional snapshot database. An empty path disables it.
type DBConfig struct {
	Path string `yaml:"path"`
	// KeepRuns is how many snapshots survive pruning; 0 keeps all.
	KeepRuns int `yaml:"keep_runs"`
}

// MetricsConfig holds the optional Prometheus textfile destination.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Dump:    "./Wiki_Dump_Namespaces/namespace_0_main.xml",
			Classes: "./RDF/Classes.ttl",
			MapPins: "./InfoFiles/MapPins.xml",
		},
		Output: OutputConfig{
			Path:   "./RDF/main_linked.ttl",
			Format: "turtle",
		},
		Namespaces: NamespaceConfig{
			Ontology: "http://cgi.di.uoa.gr/witcher/ontology#",
			Resource: "http://cgi.di.uoa.gr/witcher/resource/",
		},
		Maps: []MapConfig{
			{
				Code:    "NO",
				Name:    "Novigrad_And_Velen_Map",
				Label:   "Novigrad and Velen Map",
				Border:  "./InfoFiles/novigrad_borders.json",
				Members: []string{"Novigrad", "Velen"},
				ControlPoints: []ControlPoint{
					{Game: [2]float64{-890.57, -1424.50}, GIS: [2]float64{21.0036502117724, -677.368416076594}},
					{Game: [2]float64{2763.86, 2585.09}, GIS: [2]float64{615.670143636147, -21.0036501982966}},
					{Game: [2]float64{-890.57, 2585.09}, GIS: [2]float64{21.0036502117724, -21.0036501982966}},
					{Game: [2]float64{2763.86, -1424.50}, GIS: [2]float64{615.670143636147, -677.368416076594}},
				},
				Layers: []LayerConfig{
					{Path: "./InfoFiles/novigrad_cities.json", Class: "City", NameAttribute: "name"},
					{Path: "./InfoFiles/novigrad_swamps.json", Class: "Swamp", URIPrefix: "Novigrad"},
					{Path: "./InfoFiles/novigrad_lakes.json", Class: "Lake", URIPrefix: "Novigrad"},
					{Path: "./InfoFiles/novigrad_terrain.json", Class: "Terrain", URIPrefix: "Novigrad"},
					{Path: "./InfoFiles/novigrad_roads.json", Class: "Road", URIPrefix: "Novigrad"},
				},
			},
		},
		Resolver: ResolverConfig{
			GenericNames: []string{
				"Blacksmith", "Armorer", "Merchant", "Herbalist", "Alchemist",
				"Innkeep", "Shopkeeper", "Whetstone", "Armorer's Table",
				"Notice Board", "Gwent Player", "Harbor", "Signpost", "Barber",
			},
			Keywords: map[string]string{
				"alchemist":  "Alchemist",
				"armorer":    "Armorer",
				"barber":     "Barber",
				"blacksmith": "Blacksmith",
				"gwent":      "GwentPlayer",
				"herbalist":  "Herbalist",
				"innkeep":    "Innkeep",
				"merchant":   "Merchant",
				"shopkeeper": "Shopkeeper",
				"smith":      "Blacksmith",
			},
		},
		Log: LogConfig{
			Path:  "./logs/witcherkg.log",
			Level: "INFO",
		},
		DB: DBConfig{
			KeepRuns: 5,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it is merged over the defaults but not written back.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		EnvDump:    &c.Input.Dump,
		EnvClasses: &c.Input.Classes,
		EnvMapPins: &c.Input.MapPins,
		EnvOutput:  &c.Output.Path,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

var (
	mapCode = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	// A map name becomes an IRI local name; it needs one letter or digit.
	mapName = regexp.MustCompile(`[\pL\pN]`)
)

// Validate checks required fields, the output format and map codes.
func (c *Config) Validate() error {
	var errs []error
	if c.Input.Dump == "" {
		errs = append(errs, errors.New("input.dump is required"))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	switch c.Output.Format {
	case "turtle", "ntriples":
	default:
		errs = append(errs, fmt.Errorf("output.format %q must be 'turtle' or 'ntriples'", c.Output.Format))
	}
	if c.Namespaces.Ontology == "" || c.Namespaces.Resource == "" {
		errs = append(errs, errors.New("namespaces.ontology and namespaces.resource are required"))
	}

	seen := make(map[string]bool)
	for i, m := range c.Maps {
		switch {
		case !mapCode.MatchString(m.Code):
			errs = append(errs, fmt.Errorf("maps[%d]: invalid code %q", i, m.Code))
		case seen[m.Code]:
			errs = append(errs, fmt.Errorf("maps[%d]: duplicate code %q", i, m.Code))
		}
		seen[m.Code] = true
		switch {
		case m.Name == "":
			errs = append(errs, fmt.Errorf("maps[%d]: name is required", i))
		case !mapName.MatchString(m.Name):
			errs = append(errs, fmt.Errorf("maps[%d]: name %q has no letters or digits", i, m.Name))
		}
		for j, l := range m.Layers {
			if l.Path == "" || l.Class == "" {
				errs = append(errs, fmt.Errorf("maps[%d].layers[%d]: path and class are required", i, j))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# witcherkg Configuration
# ---------------------
# Input paths can be overridden with WITCHERKG_DUMP, WITCHERKG_CLASSES,
# WITCHERKG_MAPPINS and WITCHERKG_OUTPUT (also read from .env).
# Layer paths may contain glob patterns such as ./InfoFiles/novigrad_*.json.

`)
	data = append(header, data...)

	reFormat := regexp.MustCompile(`(?m)^(\s+)format:`)
	data = reFormat.ReplaceAll(data, []byte("${1}# Options: turtle, ntriples\n${1}format:"))

	reDB := regexp.MustCompile(`(?m)^db:`)
	data = reDB.ReplaceAll(data, []byte("# Optional SQLite snapshot of the final graph (empty disables)\ndb:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
