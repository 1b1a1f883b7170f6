package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
)

const ExcelFileName = "results.xlsx"

// NewRunDir creates the timestamped directory one run writes into.
func NewRunDir(outputDir string) (string, error) {
	dir := filepath.Join(outputDir, "results_"+time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	return dir, nil
}

// WriteAll writes the enabled artifacts for one run into dir and returns
// the written paths. A marksheet failing is logged and skipped; the
// workbook or the bundle failing fails the report.
func WriteAll(dir string, outcome *model.BatchOutcome, sum *Summary,
	cfg *config.ReportConfig, log *slog.Logger) ([]string, error) {
	var paths []string

	if cfg.Excel {
		p := filepath.Join(dir, ExcelFileName)
		if err := WriteExcel(p, outcome, sum); err != nil {
			return paths, err
		}
		paths = append(paths, p)
		log.Info("workbook written.", slog.String("path", p))
	}

	if cfg.Pdf {
		for _, rec := range outcome.Successes {
			p := filepath.Join(dir, marksheetName(rec.PIN))
			if err := WritePDF(p, rec); err != nil {
				log.Warn("failed to write marksheet.", slog.String("pin", rec.PIN),
					slog.String("err", err.Error()))
				continue
			}
			paths = append(paths, p)
		}
		log.Info("marksheets written.", slog.Int("count", len(outcome.Successes)))
	}

	if cfg.Zip {
		p, err := ZipDir(dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
		log.Info("bundle written.", slog.String("path", p))
	}

	return paths, nil
}

// marksheetName keeps PIN-derived filenames path-safe.
func marksheetName(pin string) string {
	safe := strings.NewReplacer("/", "-", "\\", "-").Replace(pin)
	return safe + "_result.pdf"
}
