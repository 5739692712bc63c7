package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"witcherkg/pkg/db"
	"witcherkg/pkg/rdf"
)

// StateLastRun holds the id of the most recently saved run.
const StateLastRun = "last_run_id"

// ErrRunExists is returned when a snapshot for the run id is already stored.
var ErrRunExists = errors.New("run already stored")

// Store defines the repository interface.
type Store interface {
	GraphStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Graph ---

// SaveGraph stores triples under runID in one transaction and records the
// run as the latest. A run is written once.
func (s *SQLiteStore) SaveGraph(ctx context.Context, runID string, triples []rdf.Triple) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, "SELECT count(*) FROM runs WHERE run_id = ?", runID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunExists)
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, triple_count, created_at) VALUES (?, ?, ?)",
		runID, len(triples), time.Now().UTC()); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO triples (run_id, seq, subject, predicate, object, object_kind, datatype, lang)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range triples {
		if _, err = stmt.ExecContext(ctx, runID, i,
			t.Subject.Value, t.Predicate.Value, t.Object.Value, int(t.Object.Kind),
			nullString(t.Object.Datatype), nullString(t.Object.Lang)); err != nil {
			return fmt.Errorf("failed to insert triple %d: %w", i, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`,
		StateLastRun, runID, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadGraph returns the triples of runID in their original order.
func (s *SQLiteStore) LoadGraph(ctx context.Context, runID string) ([]rdf.Triple, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, predicate, object, object_kind, datatype, lang
		 FROM triples WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rdf.Triple
	for rows.Next() {
		var subj, pred, obj string
		var kind int
		var datatype, lang sql.NullString
		if err := rows.Scan(&subj, &pred, &obj, &kind, &datatype, &lang); err != nil {
			return nil, err
		}
		o := rdf.Term{Kind: rdf.TermKind(kind), Value: obj, Datatype: datatype.String, Lang: lang.String}
		out = append(out, rdf.T(rdf.IRI(subj), rdf.IRI(pred), o))
	}
	return out, rows.Err()
}

// CountTriples returns how many triples are stored for runID.
func (s *SQLiteStore) CountTriples(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM triples WHERE run_id = ?", runID).Scan(&n)
	return n, err
}

// ListRuns returns the stored runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, triple_count, created_at FROM runs ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Triples, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its triples.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM triples WHERE run_id = ?", runID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID); err != nil {
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
