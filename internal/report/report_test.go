package report

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testOutcome() *model.BatchOutcome {
	started := time.Now().Add(-time.Minute)
	return &model.BatchOutcome{
		Successes: []*model.StudentRecord{
			rec("123401", "CME", 8.5, "PASS", sub("MATHS", "P"), sub("ENGLISH", "P")),
			rec("123402", "ECE", 0, "FAIL"),
		},
		Failures: []model.Failure{
			{PIN: "123403", Reason: model.ReasonNotFound, Detail: "portal reported no records"},
		},
		Results:    nil,
		Total:      3,
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
	}
}

func TestWriteExcelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	outcome := testOutcome()
	sum := Summarize(outcome.Successes, 10)

	require.NoError(t, WriteExcel(path, outcome, sum))

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()

	require.ElementsMatch(t, []string{"Results", "Failures", "Summary"}, wb.GetSheetList())

	rows, err := wb.GetRows("Results")
	require.NoError(t, err)
	// header + two subject rows for the first student + one base row for
	// the student without subjects
	require.Len(t, rows, 4)
	require.Equal(t, "PIN", rows[0][0])
	require.Equal(t, "123401", rows[1][0])
	require.Equal(t, "MATHS", rows[1][6])
	require.Equal(t, "123402", rows[3][0])

	frows, err := wb.GetRows("Failures")
	require.NoError(t, err)
	require.Len(t, frows, 2)
	require.Equal(t, "123403", frows[1][0])
	require.Equal(t, "not_found", frows[1][1])
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "123401_result.pdf")
	require.NoError(t, WritePDF(path, testOutcome().Successes[0]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output is not a PDF")
}

func TestZipDir(t *testing.T) {
	dir, err := NewRunDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))

	zipPath, err := ZipDir(dir)
	require.NoError(t, err)

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
}

func TestWriteAll(t *testing.T) {
	dir, err := NewRunDir(t.TempDir())
	require.NoError(t, err)
	outcome := testOutcome()
	sum := Summarize(outcome.Successes, 10)
	cfg := &config.ReportConfig{Excel: true, Pdf: true, Zip: true, TopPerformers: 10}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	paths, err := WriteAll(dir, outcome, sum, cfg, log)
	require.NoError(t, err)
	// workbook + one marksheet per success + bundle
	require.Len(t, paths, 1+len(outcome.Successes)+1)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		require.NotZero(t, info.Size(), p)
	}
}
