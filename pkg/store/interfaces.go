package store

import (
	"context"
	"time"

	"witcherkg/pkg/rdf"
)

// Run describes one stored graph snapshot.
type Run struct {
	ID        string
	Triples   int
	CreatedAt time.Time
}

// GraphStore handles graph snapshots, one per run.
type GraphStore interface {
	SaveGraph(ctx context.Context, runID string, triples []rdf.Triple) error
	LoadGraph(ctx context.Context, runID string) ([]rdf.Triple, error)
	CountTriples(ctx context.Context, runID string) (int, error)
	ListRuns(ctx context.Context) ([]Run, error)
	DeleteRun(ctx context.Context, runID string) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
