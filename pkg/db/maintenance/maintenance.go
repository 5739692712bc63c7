package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"witcherkg/pkg/store"
)

// Run executes all maintenance tasks. Failures are logged, not returned, so
// that a build never fails because old snapshots could not be pruned.
func Run(ctx context.Context, s store.GraphStore, keep int) {
	slog.Info("Starting database maintenance...")

	n, err := PruneRuns(ctx, s, keep)
	if err != nil {
		slog.Error("Snapshot pruning failed", "error", err)
		return
	}
	slog.Info("Snapshot pruning completed", "removed", n)
}

// PruneRuns deletes all but the newest keep snapshots and returns how many
// were removed. keep <= 0 keeps everything.
func PruneRuns(ctx context.Context, s store.GraphStore, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) <= keep {
		return 0, nil
	}

	removed := 0
	for _, r := range runs[keep:] {
		if err := s.DeleteRun(ctx, r.ID); err != nil {
			return removed, fmt.Errorf("failed to delete run %s: %w", r.ID, err)
		}
		removed++
	}
	return removed, nil
}
