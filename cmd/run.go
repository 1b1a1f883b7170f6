package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/darion/resultfetch/internal/aws_s3"
	"github.com/darion/resultfetch/internal/batch"
	"github.com/darion/resultfetch/internal/cache"
	"github.com/darion/resultfetch/internal/fetcher"
	"github.com/darion/resultfetch/internal/model"
	"github.com/darion/resultfetch/internal/persistence"
	"github.com/darion/resultfetch/internal/pinlist"
	"github.com/darion/resultfetch/internal/portal"
	"github.com/darion/resultfetch/internal/report"
	"github.com/spf13/cobra"
)

var (
	runMode     string
	runBase     string
	runStart    string
	runCount    int
	runPin      string
	runFile     string
	runColumn   string
	runSemester string
	runWorkers  int
	runDryRun   bool
	runNoCache  bool
	runExcel    bool
	runPdf      bool
	runZip      bool
	runUpload   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch results for a PIN range, a single PIN, or a PIN file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		mustSetup()
		applyOverrides(cmd)

		pins := buildPins()
		if runDryRun {
			for _, pin := range pins {
				fmt.Println(pin)
			}
			fmt.Printf("%d identifiers\n", len(pins))
			return
		}
		runBatch(cmd.Context(), pins)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runMode, "mode", "range", "identifier source: range, single or bulk")
	f.StringVar(&runBase, "base", "", "PIN prefix for range mode, e.g. 23210-CM-0")
	f.StringVar(&runStart, "start", "01", "first numeric suffix for range mode")
	f.IntVar(&runCount, "count", 1, "how many PINs to expand in range mode")
	f.StringVar(&runPin, "pin", "", "the PIN for single mode")
	f.StringVar(&runFile, "file", "", "CSV or XLSX file with PINs for bulk mode")
	f.StringVar(&runColumn, "column", "pin", "column holding PINs in bulk mode")
	f.StringVar(&runSemester, "semester", "1YEAR", "semester code, e.g. 3SEM")
	f.IntVar(&runWorkers, "workers", 0, "override worker.max_workers")
	f.BoolVar(&runDryRun, "dry-run", false, "expand and print the PIN list without fetching")
	f.BoolVar(&runNoCache, "no-cache", false, "bypass the record cache for this run")
	f.BoolVar(&runExcel, "excel", true, "override report.excel")
	f.BoolVar(&runPdf, "pdf", true, "override report.pdf")
	f.BoolVar(&runZip, "zip", false, "override report.zip")
	f.BoolVar(&runUpload, "upload", false, "override s3.enabled")
	rootCmd.AddCommand(runCmd)
}

func applyOverrides(cmd *cobra.Command) {
	f := cmd.Flags()
	if runWorkers > 0 {
		cfg.WorkerSettings.MaxWorkers = runWorkers
	}
	if runNoCache {
		cfg.CacheSettings.Enabled = false
	}
	if f.Changed("excel") {
		cfg.ReportSettings.Excel = runExcel
	}
	if f.Changed("pdf") {
		cfg.ReportSettings.Pdf = runPdf
	}
	if f.Changed("zip") {
		cfg.ReportSettings.Zip = runZip
	}
	if f.Changed("upload") {
		cfg.S3Settings.Enabled = runUpload
	}
}

func buildPins() []string {
	var (
		pins []string
		err  error
	)
	switch runMode {
	case "range":
		pins, err = pinlist.Range(runBase, runStart, runCount, cfg.WorkerSettings.PinDigitBudget)
	case "single":
		pins, err = pinlist.Single(runPin)
	case "bulk":
		pins, err = pinlist.FromFile(runFile, runColumn)
	default:
		err = fmt.Errorf("unknown mode %q, expected range, single or bulk", runMode)
	}
	if err != nil {
		log.Error("failed to build the PIN list.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	return pins
}

func runBatch(ctx context.Context, pins []string) {
	if err := portal.NewClient(cfg.PortalSettings, log).Check(ctx); err != nil {
		log.Error("portal preflight check failed.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	pool, err := fetcher.NewPool(cfg, log)
	if err != nil {
		log.Error("failed to set up the fetch pool.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	recordCache := cache.New(cfg.CacheSettings, log)
	if recordCache != nil {
		defer recordCache.Close()
	}

	var metrics *batch.Metrics
	var metricsSrv *http.Server
	if cfg.MetricsSettings.Enabled {
		metrics = batch.NewMetrics()
		metricsSrv = serveMetrics(metrics)
	}

	opts := []batch.Option{batch.WithObserver(logProgress)}
	if recordCache != nil {
		opts = append(opts, batch.WithCache(recordCache))
	}
	if metrics != nil {
		opts = append(opts, batch.WithMetrics(metrics))
	}
	collector, err := batch.New(cfg, pool, log, opts...)
	if err != nil {
		log.Error("failed to set up the collector.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("starting batch.", slog.Int("identifiers", len(pins)),
		slog.String("semester", runSemester), slog.String("mechanism", cfg.PortalSettings.Mechanism))
	outcome, err := collector.Run(ctx, pins, runSemester)
	if err != nil {
		log.Error("batch failed.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("batch finished.", slog.Int("total", outcome.Total),
		slog.Int("successes", len(outcome.Successes)), slog.Int("failures", len(outcome.Failures)),
		slog.String("took", outcome.Duration().String()))

	dir, files := writeReports(outcome)
	saveHistory(ctx, outcome)

	if cfg.S3Settings.Enabled && dir != "" {
		uploaded, err := aws_s3.NewS3BucketClient(cfg.S3Settings, log).
			UploadFiles(ctx, files, filepath.Base(dir), logUpload)
		if err != nil {
			log.Error("upload incomplete.", slog.String("err", err.Error()))
		} else {
			log.Info("upload finished.", slog.Int("files", uploaded))
		}
	}

	if metricsSrv != nil {
		stopMetrics(metricsSrv)
	}
}

func logProgress(done, total int, pin, kind string) {
	log.Info("progress.", slog.String("pin", pin), slog.String("kind", kind),
		slog.String("done", fmt.Sprintf("%d/%d", done, total)))
}

// writeReports returns the run directory and the artifact paths, or
// empty values when no artifact is enabled.
func writeReports(outcome *model.BatchOutcome) (string, []string) {
	r := cfg.ReportSettings
	if !r.Excel && !r.Pdf && !r.Zip {
		return "", nil
	}

	sum := report.Summarize(outcome.Successes, r.TopPerformers)
	dir, err := report.NewRunDir(r.OutputDir)
	if err != nil {
		log.Error("failed to create the run directory.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	files, err := report.WriteAll(dir, outcome, sum, r, log)
	if err != nil {
		log.Error("failed to write reports.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("reports written.", slog.String("dir", dir),
		slog.Int("passed", sum.Passed), slog.Int("failed", sum.Failed))

	return dir, files
}

func saveHistory(ctx context.Context, outcome *model.BatchOutcome) {
	h := cfg.HistorySettings
	if h == nil || !h.Enabled {
		return
	}
	repo, err := persistence.NewHistoryRepository(h.Path, log)
	if err != nil {
		log.Error("failed to open the history database.", slog.String("err", err.Error()))
		return
	}
	defer repo.Close()

	runID, err := repo.SaveRun(ctx, outcome, runMode, runSemester)
	if err != nil {
		log.Error("failed to record the run.", slog.String("err", err.Error()))
		return
	}
	log.Info("run recorded.", slog.Int64("run_id", runID))
}
