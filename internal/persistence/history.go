package persistence

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/darion/resultfetch/internal/model"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    mode        TEXT NOT NULL,
    semester    TEXT NOT NULL,
    total       INTEGER NOT NULL,
    successes   INTEGER NOT NULL,
    failures    INTEGER NOT NULL,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS run_results (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    pin    TEXT NOT NULL,
    kind   TEXT NOT NULL,
    reason TEXT,
    gpa    REAL
);
CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

type HistoryStorage interface {
	SaveRun(ctx context.Context, outcome *model.BatchOutcome, mode, semester string) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ResultsForRun(ctx context.Context, runID int64) ([]RunResult, error)
	Close() error
}

// Run is one recorded collector invocation.
type Run struct {
	ID         int64
	Mode       string
	Semester   string
	Total      int
	Successes  int
	Failures   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunResult is the per-PIN outcome kept for a recorded run. GPA is only
// meaningful when HasGPA is set.
type RunResult struct {
	RunID  int64
	PIN    string
	Kind   string
	Reason string
	GPA    float64
	HasGPA bool
}

type HistoryRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewHistoryRepository opens the history database, creating the file and
// its schema if needed.
func NewHistoryRepository(dbPath string, log *slog.Logger) (*HistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryRepository{db: db, log: log}, nil
}

func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

// SaveRun records the outcome and every per-PIN result in one transaction.
func (r *HistoryRepository) SaveRun(ctx context.Context, outcome *model.BatchOutcome, mode, semester string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (mode, semester, total, successes, failures, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mode, semester, outcome.Total, len(outcome.Successes), len(outcome.Failures),
		outcome.StartedAt, outcome.FinishedAt,
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, fr := range outcome.Results {
		var gpa any
		if fr.Record != nil && fr.Record.HasGPA {
			gpa = fr.Record.GPA
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_results (run_id, pin, kind, reason, gpa) VALUES (?, ?, ?, ?, ?)`,
			runID, fr.PIN, fr.Kind(), string(fr.Reason), gpa,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	r.log.Debug("run saved to history.", slog.Int64("run_id", runID),
		slog.Int("results", len(outcome.Results)))

	return runID, nil
}

// ListRuns returns recorded runs, newest first. A non-positive limit
// returns everything.
func (r *HistoryRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mode, semester, total, successes, failures, started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ResultsForRun returns the per-PIN results of a run in the order they
// were recorded.
func (r *HistoryRepository) ResultsForRun(ctx context.Context, runID int64) ([]RunResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, pin, kind, COALESCE(reason, ''), gpa
		 FROM run_results WHERE run_id = ? ORDER BY rowid`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunResult
	for rows.Next() {
		var rr RunResult
		var gpa sql.NullFloat64
		if err := rows.Scan(&rr.RunID, &rr.PIN, &rr.Kind, &rr.Reason, &gpa); err != nil {
			return nil, err
		}
		if gpa.Valid {
			rr.GPA = gpa.Float64
			rr.HasGPA = true
		}
		results = append(results, rr)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Mode, &run.Semester, &run.Total, &run.Successes,
		&run.Failures, &run.StartedAt, &run.FinishedAt)
	return run, err
}
