package report

import (
	"fmt"
	"time"

	"github.com/darion/resultfetch/internal/model"
	"github.com/xuri/excelize/v2"
)

var resultsHeader = []interface{}{
	"PIN", "Name", "Branch", "Semester", "GPA", "Result",
	"Subject", "External", "Internal", "Total", "Grade Points",
	"Credits Earned", "Grade", "Subject Result",
}

// WriteExcel writes the workbook: one flattened row per student and
// subject on the Results sheet, the failed identifiers on Failures and
// the computed analytics on Summary.
func WriteExcel(path string, outcome *model.BatchOutcome, sum *Summary) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", "Results"); err != nil {
		return fmt.Errorf("naming results sheet: %w", err)
	}
	if _, err := wb.NewSheet("Failures"); err != nil {
		return fmt.Errorf("creating failures sheet: %w", err)
	}
	if _, err := wb.NewSheet("Summary"); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	row := 1
	if err := writeRow(wb, "Results", row, resultsHeader); err != nil {
		return err
	}
	for _, rec := range outcome.Successes {
		base := []interface{}{rec.PIN, rec.Name, rec.Branch, rec.Semester, gpaCell(rec), rec.Result}
		if len(rec.Subjects) == 0 {
			row++
			if err := writeRow(wb, "Results", row, base); err != nil {
				return err
			}
			continue
		}
		for _, sub := range rec.Subjects {
			row++
			line := append(append([]interface{}{}, base...),
				sub.Subject, sub.External, sub.Internal, sub.Total,
				sub.GradePoints, sub.CreditsEarned, sub.Grade, sub.Result)
			if err := writeRow(wb, "Results", row, line); err != nil {
				return err
			}
		}
	}

	if err := writeRow(wb, "Failures", 1, []interface{}{"PIN", "Reason", "Detail"}); err != nil {
		return err
	}
	for i, f := range outcome.Failures {
		if err := writeRow(wb, "Failures", i+2, []interface{}{f.PIN, string(f.Reason), f.Detail}); err != nil {
			return err
		}
	}

	if err := writeSummarySheet(wb, outcome, sum); err != nil {
		return err
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(wb *excelize.File, outcome *model.BatchOutcome, sum *Summary) error {
	row := 1
	write := func(values ...interface{}) error {
		err := writeRow(wb, "Summary", row, values)
		row++
		return err
	}

	for _, line := range [][]interface{}{
		{"Fetched", outcome.Total},
		{"Records Found", sum.Total},
		{"Passed", sum.Passed},
		{"Failed", sum.Failed},
		{"Not Found / Errors", len(outcome.Failures)},
		{"Duration", outcome.Duration().Round(time.Second).String()},
	} {
		if err := write(line...); err != nil {
			return err
		}
	}

	if err := write(); err != nil {
		return err
	}
	if err := write("Branch", "Passed", "Failed", "Total", "Pass %"); err != nil {
		return err
	}
	for _, b := range sum.Branches {
		if err := write(b.Branch, b.Passed, b.Failed, b.Total, rate(b.PassRate)); err != nil {
			return err
		}
	}

	if err := write(); err != nil {
		return err
	}
	if err := write("Top Performers", "Name", "Branch", "GPA"); err != nil {
		return err
	}
	for _, rec := range sum.Top {
		if err := write(rec.PIN, rec.Name, rec.Branch, rec.GPA); err != nil {
			return err
		}
	}

	if err := write(); err != nil {
		return err
	}
	if err := write("Subject", "Passed", "Total", "Pass %"); err != nil {
		return err
	}
	for _, st := range sum.Subjects {
		if err := write(st.Subject, st.Passed, st.Total, rate(st.PassRate)); err != nil {
			return err
		}
	}

	return nil
}

func writeRow(wb *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d on %s: %w", row, sheet, err)
	}
	if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d on %s: %w", row, sheet, err)
	}
	return nil
}

func gpaCell(rec *model.StudentRecord) interface{} {
	if rec.HasGPA {
		return rec.GPA
	}
	return ""
}

func rate(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
