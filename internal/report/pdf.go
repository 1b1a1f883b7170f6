package report

import (
	"fmt"

	"github.com/darion/resultfetch/internal/model"
	"github.com/jung-kurt/gofpdf"
)

var subjectColumns = []struct {
	title string
	width float64
}{
	{"Subject", 58},
	{"Ext", 16},
	{"Int", 16},
	{"Total", 16},
	{"GP", 16},
	{"Credits", 20},
	{"Grade", 22},
	{"Result", 22},
}

// WritePDF renders a single-student marksheet.
func WritePDF(path string, rec *model.StudentRecord) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Student Result")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	gpa := ""
	if rec.HasGPA {
		gpa = fmt.Sprintf("%.2f", rec.GPA)
	}
	for _, field := range [][2]string{
		{"PIN", rec.PIN},
		{"Name", rec.Name},
		{"Branch", rec.Branch},
		{"Semester", rec.Semester},
		{"GPA", gpa},
		{"Result", rec.Result},
	} {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(30, 8, field[0])
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 8, field[1])
		pdf.Ln(8)
	}

	if len(rec.Subjects) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		for _, col := range subjectColumns {
			pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 10)
		for _, sub := range rec.Subjects {
			values := []string{sub.Subject, sub.External, sub.Internal, sub.Total,
				sub.GradePoints, sub.CreditsEarned, sub.Grade, sub.Result}
			for i, col := range subjectColumns {
				pdf.CellFormat(col.width, 7, values[i], "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	return pdf.OutputFileAndClose(path)
}
