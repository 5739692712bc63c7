// Package pipeline runs the build stages in order over one shared graph.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"witcherkg/pkg/config"
	"witcherkg/pkg/geo"
	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/logging"
	"witcherkg/pkg/metrics"
	"witcherkg/pkg/ontology"
	"witcherkg/pkg/rdf"
	"witcherkg/pkg/resolver"
)

// ErrFatal is matched by the error Run returns when a stage recorded a fatal
// problem, such as a failed calibration. The graph is still written.
var ErrFatal = errors.New("build finished with fatal errors")

// Stage represents a step in the build pipeline.
type Stage interface {
	Name() string
	Execute(ctx context.Context, rc *RunContext) error
}

// RunContext carries state through the pipeline stages.
type RunContext struct {
	RunID      uuid.UUID
	Config     *config.Config
	Namespaces rdf.Namespaces
	Graph      *rdf.Graph
	Metrics    *metrics.Run
	Logger     *slog.Logger
	Report     *Report

	// Set by the ontology stage
	Classes *ontology.Resolver

	// Set by the geo stage
	Cities map[string]*geo.CityRegistry // map code -> that map's cities
	Maps   map[string]rdf.Term           // map code -> map entity

	// Set by the calibrate stage
	Worlds []resolver.World
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Triples  int
	Pages    int
	Features map[string]int // by layer class
	Dropped  map[string]int
	Pins     resolver.Stats
	Output   string
	Duration time.Duration

	// Warnings are recoverable problems: missing inputs, dropped geometry.
	Warnings []error
	// Errors are fatal for part of the build; the graph is still written.
	Errors []error
}

// Fatal reports whether any stage recorded a fatal error.
func (r *Report) Fatal() bool {
	return len(r.Errors) > 0
}

// record files err as a warning or an error according to its kind.
func (rc *RunContext) record(stage string, err error) {
	if kgerrors.IsFatal(err) {
		rc.Logger.Error("Stage failed", "stage", stage, "error", err)
		rc.Report.Errors = append(rc.Report.Errors, err)
		return
	}
	rc.Logger.Warn("Stage degraded", "stage", stage, "error", err)
	rc.Report.Warnings = append(rc.Report.Warnings, err)
}

// Pipeline orchestrates the build stages.
type Pipeline struct {
	cfg    *config.Config
	stages []Stage
	logger *slog.Logger
}

// New creates a pipeline. With no stages given, DefaultStages is used.
func New(cfg *config.Config, logger *slog.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	return &Pipeline{cfg: cfg, stages: stages, logger: logger}
}

// DefaultStages returns the full build in order.
func DefaultStages() []Stage {
	return []Stage{
		OntologyStage{},
		WikiStage{},
		GeoStage{},
		CalibrateStage{},
		ResolveStage{},
		WriteStage{},
		SnapshotStage{},
		MetricsStage{},
	}
}

// Run executes every stage. A stage error aborts the run; recoverable and
// fatal domain problems are collected in the report instead, and a report
// with fatal errors is returned together with an error matching ErrFatal.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.New()
	logger := p.logger.With("run_id", runID.String())

	m, err := metrics.NewRun()
	if err != nil {
		return nil, err
	}

	rc := &RunContext{
		RunID:  runID,
		Config: p.cfg,
		Namespaces: rdf.Namespaces{
			Ontology: rdf.Namespace(p.cfg.Namespaces.Ontology),
			Resource: rdf.Namespace(p.cfg.Namespaces.Resource),
		},
		Graph:   rdf.NewGraph(logging.Component(logger, "graph")),
		Metrics: m,
		Logger:  logger,
		Report: &Report{
			RunID:    runID.String(),
			Features: make(map[string]int),
			Dropped:  make(map[string]int),
		},
		Classes: ontology.New(),
		Cities:  make(map[string]*geo.CityRegistry),
		Maps:    make(map[string]rdf.Term),
	}

	logger.Info("Build started", "stages", len(p.stages))

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return rc.Report, err
		}

		logger.Debug("Stage started", "stage", stage.Name())
		stageStart := time.Now()
		before := rc.Graph.Len()

		if err := stage.Execute(ctx, rc); err != nil {
			return rc.Report, fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}

		added := rc.Graph.Len() - before
		elapsed := time.Since(stageStart)
		rc.Metrics.TriplesAdded.WithLabelValues(stage.Name()).Add(float64(added))
		rc.Metrics.ObserveStage(stage.Name(), elapsed)
		logger.Info("Stage completed",
			"stage", stage.Name(),
			"triples_added", added,
			"duration", elapsed.Round(time.Millisecond))
	}

	rc.Report.Triples = rc.Graph.Len()
	rc.Report.Duration = time.Since(start)
	logger.Info("Build completed",
		"triples", rc.Report.Triples,
		"warnings", len(rc.Report.Warnings),
		"errors", len(rc.Report.Errors),
		"duration", rc.Report.Duration.Round(time.Millisecond))

	if rc.Report.Fatal() {
		return rc.Report, fmt.Errorf("%w: %w", ErrFatal, errors.Join(rc.Report.Errors...))
	}
	return rc.Report, nil
}
