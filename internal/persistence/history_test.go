package persistence

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/darion/resultfetch/internal/model"
)

func setupTestRepo(t *testing.T) *HistoryRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")

	repo, err := NewHistoryRepository(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewHistoryRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleOutcome(started time.Time) *model.BatchOutcome {
	passed := &model.StudentRecord{PIN: "23210-CM-001", Name: "JOHN DOE", GPA: 8.5, HasGPA: true, Result: "PASS"}
	noGPA := &model.StudentRecord{PIN: "23210-CM-002", Name: "JANE ROE", Result: "FAIL"}
	return &model.BatchOutcome{
		Results: []model.FetchResult{
			{PIN: "23210-CM-001", Record: passed, Attempts: 1},
			{PIN: "23210-CM-002", Record: noGPA, Attempts: 1},
			{PIN: "23210-CM-003", Reason: model.ReasonNotFound, Attempts: 1},
		},
		Successes:  []*model.StudentRecord{passed, noGPA},
		Failures:   []model.Failure{{PIN: "23210-CM-003", Reason: model.ReasonNotFound}},
		Total:      3,
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
	}
}

func TestHistorySaveAndListRuns(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	runID, err := repo.SaveRun(ctx, sampleOutcome(time.Now()), "range", "3SEM")
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if runID == 0 {
		t.Fatal("SaveRun() returned run ID 0")
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
	}

	run := runs[0]
	if run.ID != runID {
		t.Errorf("run.ID = %d, want %d", run.ID, runID)
	}
	if run.Mode != "range" || run.Semester != "3SEM" {
		t.Errorf("run identity = %s/%s, want range/3SEM", run.Mode, run.Semester)
	}
	if run.Total != 3 || run.Successes != 2 || run.Failures != 1 {
		t.Errorf("run totals = %d/%d/%d, want 3/2/1", run.Total, run.Successes, run.Failures)
	}
	if !run.FinishedAt.After(run.StartedAt) {
		t.Errorf("run timestamps = %v..%v", run.StartedAt, run.FinishedAt)
	}
}

func TestHistoryResultsForRun(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	runID, err := repo.SaveRun(ctx, sampleOutcome(time.Now()), "range", "3SEM")
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	results, err := repo.ResultsForRun(ctx, runID)
	if err != nil {
		t.Fatalf("ResultsForRun() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("ResultsForRun() returned %d results, want 3", len(results))
	}

	if results[0].PIN != "23210-CM-001" || results[1].PIN != "23210-CM-002" || results[2].PIN != "23210-CM-003" {
		t.Errorf("results are not in submission order: %v", results)
	}
	if results[0].Kind != "success" || !results[0].HasGPA || results[0].GPA != 8.5 {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Kind != "success" || results[1].HasGPA {
		t.Errorf("second result should have no GPA: %+v", results[1])
	}
	if results[2].Kind != "not_found" || results[2].Reason != "not_found" || results[2].HasGPA {
		t.Errorf("third result = %+v", results[2])
	}
}

func TestHistoryListRunsLimit(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := repo.SaveRun(ctx, sampleOutcome(base.Add(time.Duration(i)*time.Minute)), "single", "1YEAR"); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns(2) returned %d runs, want 2", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Errorf("runs not newest first: %d then %d", runs[0].ID, runs[1].ID)
	}

	all, err := repo.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRuns(0) returned %d runs, want all 3", len(all))
	}
}

func TestNewHistoryCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "nested", "history.db")

	repo, err := NewHistoryRepository(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewHistoryRepository() error = %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("NewHistoryRepository() did not create parent directory")
	}
}
