package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/darion/resultfetch/internal/persistence"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs, or the per-PIN results of one run.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mustSetup()
		repo, err := persistence.NewHistoryRepository(cfg.HistorySettings.Path, log)
		if err != nil {
			log.Error("failed to open the history database.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer repo.Close()

		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				log.Error("run id must be a number.", slog.String("got", args[0]))
				os.Exit(1)
			}
			results, err := repo.ResultsForRun(cmd.Context(), id)
			if err != nil {
				log.Error("failed to read run results.", slog.String("err", err.Error()))
				os.Exit(1)
			}
			if len(results) == 0 {
				fmt.Printf("no results recorded for run %d\n", id)
				return
			}
			fmt.Printf("%-16s %-18s %-18s %s\n", "PIN", "OUTCOME", "REASON", "GPA")
			for _, rr := range results {
				gpa := "-"
				if rr.HasGPA {
					gpa = strconv.FormatFloat(rr.GPA, 'f', 2, 64)
				}
				fmt.Printf("%-16s %-18s %-18s %s\n", rr.PIN, rr.Kind, rr.Reason, gpa)
			}
			return
		}

		runs, err := repo.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			log.Error("failed to list runs.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded yet")
			return
		}
		fmt.Printf("%-6s %-8s %-10s %-6s %-6s %-6s %s\n",
			"ID", "MODE", "SEMESTER", "TOTAL", "OK", "FAIL", "STARTED")
		for _, run := range runs {
			fmt.Printf("%-6d %-8s %-10s %-6d %-6d %-6d %s\n",
				run.ID, run.Mode, run.Semester, run.Total, run.Successes, run.Failures,
				run.StartedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "how many runs to list, 0 for all")
	rootCmd.AddCommand(historyCmd)
}
