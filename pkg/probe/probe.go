package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"witcherkg/pkg/config"
	"witcherkg/pkg/geo"
)

// CheckFunc is a function that performs a startup check.
// It returns nil if the check passes, or an error if it fails.
type CheckFunc func(ctx context.Context) error

// Probe represents a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // If true, a failure here prevents the build from starting.
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes a list of probes and returns their results.
// Each check gets its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		start := time.Now()

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// AnalyzeResults logs the results and returns a combined error if critical
// probes failed. Non-critical failures are logged as warnings.
func AnalyzeResults(logger *slog.Logger, results []Result) error {
	if logger == nil {
		logger = slog.Default()
	}
	var criticalErrors []error

	logger.Info("Startup Checks Summary")

	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
		}

		msg := fmt.Sprintf("[%s] %-24s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		switch {
		case r.Error == nil:
			logger.Info(msg)
		case r.Probe.Critical:
			logger.Error(msg, "error", r.Error)
			criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		default:
			logger.Warn(msg, "error", r.Error)
		}
	}

	if len(criticalErrors) > 0 {
		return errors.Join(criticalErrors...)
	}

	return nil
}

// FileReadable checks that path is an existing regular file.
func FileReadable(path string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		return nil
	}
}

// LayerPresent checks that a layer path or pattern resolves to readable files.
func LayerPresent(pattern string) CheckFunc {
	return func(ctx context.Context) error {
		paths, err := geo.ExpandPaths(pattern)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no files match %s", pattern)
		}
		for _, p := range paths {
			if err := FileReadable(p)(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// DirWritable checks that a file can be created in dir, creating dir first.
func DirWritable(dir string) CheckFunc {
	return func(ctx context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".witcherkg-probe-*")
		if err != nil {
			return err
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// ForConfig builds the input and output probes of a build. Only the output
// directory is critical; missing inputs degrade the graph but do not stop it.
func ForConfig(cfg *config.Config) []Probe {
	probes := []Probe{
		{Name: "Wiki dump", Check: FileReadable(cfg.Input.Dump)},
		{Name: "Ontology classes", Check: FileReadable(cfg.Input.Classes)},
		{Name: "Map pins", Check: FileReadable(cfg.Input.MapPins)},
	}
	for _, m := range cfg.Maps {
		if m.Border != "" {
			probes = append(probes, Probe{Name: m.Code + " border", Check: LayerPresent(m.Border)})
		}
		for _, l := range m.Layers {
			probes = append(probes, Probe{Name: m.Code + " " + l.Class + " layer", Check: LayerPresent(l.Path)})
		}
	}
	probes = append(probes, Probe{
		Name:     "Output directory",
		Check:    DirWritable(filepath.Dir(cfg.Output.Path)),
		Critical: true,
	})
	return probes
}
