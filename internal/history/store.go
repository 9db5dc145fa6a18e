// Package history keeps a sqlite record of bootstrap runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded bootstrap run.
type Run struct {
	RunID       string `json:"runId"`
	Mode        string `json:"mode"`
	AlreadyDone bool   `json:"alreadyDone"`
	OK          bool   `json:"ok"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt,omitempty"`
	Steps       []Step `json:"steps,omitempty"`
}

// Step is one recorded step outcome.
type Step struct {
	Seq      int    `json:"seq"`
	Step     string `json:"step"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Artifact string `json:"artifact,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			already_done INTEGER NOT NULL DEFAULT 0,
			ok INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			step TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT,
			artifact TEXT,
			digest TEXT,
			PRIMARY KEY(run_id, seq),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a finished run and its steps in one transaction.
func (s *Store) Record(ctx context.Context, r bootstrap.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, mode, already_done, ok, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, string(r.Mode), boolInt(r.AlreadyDone), boolInt(r.OK()),
		formatTime(r.StartedAt), nullableString(formatTime(r.FinishedAt)),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	for i, o := range r.Outcomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO steps (run_id, seq, step, status, detail, artifact, digest)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, i, o.Step, string(o.Status), nullableString(stepDetail(o)),
			nullableString(o.Artifact), nullableString(o.Digest),
		); err != nil {
			return fmt.Errorf("insert step %s: %w", o.Step, err)
		}
	}
	return tx.Commit()
}

// GetRun returns one run with its steps.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, mode, already_done, ok, started_at, COALESCE(finished_at,'') FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return Run{}, err
	}
	r.Steps, err = s.steps(ctx, runID)
	return r, err
}

// ListRuns returns the most recent runs, newest first, with their steps.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, mode, already_done, ok, started_at, COALESCE(finished_at,'')
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		steps, err := s.steps(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Steps = steps
	}
	return runs, nil
}

func (s *Store) steps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, step, status, COALESCE(detail,''), COALESCE(artifact,''), COALESCE(digest,'')
		 FROM steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Seq, &st.Step, &st.Status, &st.Detail, &st.Artifact, &st.Digest); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var alreadyDone, ok int
	if err := row.Scan(&r.RunID, &r.Mode, &alreadyDone, &ok, &r.StartedAt, &r.FinishedAt); err != nil {
		return Run{}, err
	}
	r.AlreadyDone = alreadyDone != 0
	r.OK = ok != 0
	return r, nil
}

func stepDetail(o install.Outcome) string {
	if o.OK() {
		return ""
	}
	return bootstrap.Headline(o)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
