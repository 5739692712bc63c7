package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"witcherkg/pkg/db"
	"witcherkg/pkg/db/maintenance"
	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/logging"
	"witcherkg/pkg/mappin"
	"witcherkg/pkg/metrics"
	"witcherkg/pkg/rdf"
	"witcherkg/pkg/resolver"
	"witcherkg/pkg/store"
)

// ResolveStage reads the map pins and resolves them against the graph. The
// label snapshot is taken here, after every textual and geometric entity
// exists.
type ResolveStage struct{}

func (ResolveStage) Name() string { return "resolve" }

func (ResolveStage) Execute(ctx context.Context, rc *RunContext) error {
	pins, err := mappin.ReadFile(rc.Config.Input.MapPins)
	if err != nil {
		if kgerrors.KindOf(err) == kgerrors.KindMissingFile {
			rc.record("resolve", err)
			return nil
		}
		return err
	}

	session := resolver.NewSession(rc.Graph, resolver.Options{
		Namespaces:   rc.Namespaces,
		GenericNames: rc.Config.Resolver.GenericNames,
		Keywords:     rc.Config.Resolver.Keywords,
		Logger:       logging.Component(rc.Logger, "resolver"),
	})
	for _, w := range rc.Worlds {
		session.AddWorld(w)
	}

	st, err := session.ResolveAll(ctx, pins)
	if err != nil {
		return err
	}
	rc.Report.Pins = st
	metrics.AddCounts(rc.Metrics.PinsResolved, st.Resolved)
	metrics.AddCounts(rc.Metrics.PinsSkipped, st.Skipped)

	resolved := 0
	for _, n := range st.Resolved {
		resolved += n
	}
	rc.Logger.Info("Map pins resolved",
		"pins", len(pins),
		"resolved", resolved,
		"created", st.Resolved[resolver.TierCreateNew],
		"deduplicated", st.Resolved[resolver.TierCoordDedup],
		"contextual", st.Resolved[resolver.TierSpatialContextual],
		"direct", st.Resolved[resolver.TierDirectLabel],
		"ambiguous", st.Ambiguous,
		"skipped_incomplete", st.Skipped[resolver.SkipIncomplete],
		"skipped_no_map", st.Skipped[resolver.SkipNoMap])
	return nil
}

// WriteStage serializes the graph once. The file is written next to its
// destination and renamed into place, so a failed write leaves any previous
// output intact.
type WriteStage struct{}

func (WriteStage) Name() string { return "write" }

func (WriteStage) Execute(ctx context.Context, rc *RunContext) error {
	path := rc.Config.Output.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".witcherkg-*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := rdf.Write(tmp, rc.Graph, rdf.Format(rc.Config.Output.Format), rc.Namespaces.Prefixes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}

	rc.Report.Output = path
	rc.Logger.Info("Graph written", "path", path, "format", rc.Config.Output.Format, "triples", rc.Graph.Len())
	return nil
}

// SnapshotStage stores the final graph in SQLite when a database is
// configured, then prunes old snapshots.
type SnapshotStage struct{}

func (SnapshotStage) Name() string { return "snapshot" }

func (SnapshotStage) Execute(ctx context.Context, rc *RunContext) error {
	if rc.Config.DB.Path == "" {
		return nil
	}
	d, err := db.Init(rc.Config.DB.Path)
	if err != nil {
		return err
	}
	s := store.NewSQLiteStore(d)
	defer s.Close()

	if err := s.SaveGraph(ctx, rc.RunID.String(), rc.Graph.Triples()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	n, err := s.CountTriples(ctx, rc.RunID.String())
	if err != nil {
		return fmt.Errorf("verify snapshot: %w", err)
	}
	rc.Logger.Info("Snapshot stored", "path", rc.Config.DB.Path, "triples", n)

	maintenance.Run(ctx, s, rc.Config.DB.KeepRuns)
	return nil
}

// MetricsStage writes the run counters as a Prometheus textfile when one is
// configured.
type MetricsStage struct{}

func (MetricsStage) Name() string { return "metrics" }

func (MetricsStage) Execute(ctx context.Context, rc *RunContext) error {
	path := rc.Config.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	return rc.Metrics.WriteTextfile(path)
}
