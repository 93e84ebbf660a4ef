/*
File contains the sqlite-backed store. The driver is pure Go
(modernc.org/sqlite), so there is no cgo involved and an empty path can
fall back to an in-process database. Schema is created on open; writes for
one run go through a single transaction each.

*/

package results

import (
	"database/sql"
	"fmt"

	"seqclu/core/engine"

	_ "modernc.org/sqlite"
)

// Iface hint:
var _ Store = new(SQLiteStore)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	seed       INTEGER NOT NULL,
	profile    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS assignments (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	pos          INTEGER NOT NULL,
	seq_id       TEXT NOT NULL,
	cluster_id   TEXT NOT NULL,
	tick         INTEGER NOT NULL,
	distance     REAL NOT NULL,
	approximated INTEGER NOT NULL,
	PRIMARY KEY (run_id, pos)
);
CREATE TABLE IF NOT EXISTS metrics (
	run_id TEXT NOT NULL REFERENCES runs(id),
	name   TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (run_id, name)
);
`

// SQLiteStore persists runs in a sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at the given path
// and makes sure the schema exists. An empty path gives an in-process
// database that vanishes on Close.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// The driver is single-writer; more connections just mean lock errs.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRun(run Run) error {
	const q = `INSERT INTO runs (id, seed, profile, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.Exec(q, run.ID, run.Seed, run.Profile, run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return fmt.Errorf("save run %v: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) SaveAssignments(runID string, assignments []engine.Assignment) error {
	if err := s.checkRun(runID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO assignments (run_id, pos, seq_id, cluster_id, tick, distance, approximated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i, a := range assignments {
		if _, err := tx.Exec(q, runID, i, a.SeqID, a.ClusterID, a.Tick, a.Distance, a.Approximated); err != nil {
			return fmt.Errorf("save assignment %v of run %v: %w", i, runID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveMetrics(runID string, metrics map[string]float64) error {
	if err := s.checkRun(runID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT OR REPLACE INTO metrics (run_id, name, value) VALUES (?, ?, ?)`
	for name, value := range metrics {
		if _, err := tx.Exec(q, runID, name, value); err != nil {
			return fmt.Errorf("save metric %v of run %v: %w", name, runID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Assignments(runID string) ([]engine.Assignment, error) {
	if err := s.checkRun(runID); err != nil {
		return nil, err
	}

	const q = `
		SELECT seq_id, cluster_id, tick, distance, approximated
		FROM assignments WHERE run_id = ? ORDER BY pos`
	rows, err := s.db.Query(q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []engine.Assignment
	for rows.Next() {
		var a engine.Assignment
		if err := rows.Scan(&a.SeqID, &a.ClusterID, &a.Tick, &a.Distance, &a.Approximated); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Metrics(runID string) (map[string]float64, error) {
	if err := s.checkRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT name, value FROM metrics WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		res[name] = value
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) checkRun(runID string) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrUnknownRun
	}
	return nil
}
