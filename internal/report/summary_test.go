package report

import (
	"testing"

	"github.com/darion/resultfetch/internal/model"
	"github.com/stretchr/testify/require"
)

func rec(pin, branch string, gpa float64, result string, subjects ...model.SubjectResult) *model.StudentRecord {
	return &model.StudentRecord{
		PIN:      pin,
		Name:     "STUDENT " + pin,
		Branch:   branch,
		GPA:      gpa,
		HasGPA:   gpa > 0,
		Result:   result,
		Subjects: subjects,
	}
}

func sub(name, result string) model.SubjectResult {
	return model.SubjectResult{Subject: name, Result: result}
}

func TestSummarizeTotals(t *testing.T) {
	records := []*model.StudentRecord{
		rec("1", "CME", 8.5, "PASS"),
		rec("2", "CME", 5.1, "FAIL"),
		rec("3", "ECE", 9.1, "First Class with Distinction"),
	}
	s := Summarize(records, 10)

	require.Equal(t, 3, s.Total)
	require.Equal(t, 2, s.Passed)
	require.Equal(t, 1, s.Failed)
}

func TestSummarizePassMarkers(t *testing.T) {
	records := []*model.StudentRecord{
		rec("1", "CME", 6, "pass"),
		rec("2", "CME", 9, "DISTINCTION"),
		rec("3", "CME", 8, "First Class"),
		rec("4", "CME", 4, "FAIL"),
		rec("5", "CME", 0, ""),
	}
	s := Summarize(records, 0)

	require.Equal(t, 3, s.Passed)
	require.Equal(t, 2, s.Failed)
}

func TestSummarizeBranchesBestFirst(t *testing.T) {
	records := []*model.StudentRecord{
		rec("1", "CME", 8, "PASS"),
		rec("2", "CME", 5, "FAIL"),
		rec("3", "ECE", 9, "PASS"),
		rec("4", "", 7, "PASS"),
	}
	s := Summarize(records, 0)

	require.Len(t, s.Branches, 2, "blank branches are not grouped")
	require.Equal(t, "ECE", s.Branches[0].Branch)
	require.InDelta(t, 100.0, s.Branches[0].PassRate, 0.01)
	require.Equal(t, "CME", s.Branches[1].Branch)
	require.InDelta(t, 50.0, s.Branches[1].PassRate, 0.01)
}

func TestSummarizeTopPerformers(t *testing.T) {
	records := []*model.StudentRecord{
		rec("1", "CME", 7.2, "PASS"),
		rec("2", "CME", 9.4, "PASS"),
		rec("3", "ECE", 8.1, "PASS"),
		rec("4", "ECE", 0, "PASS"), // no GPA parsed, never ranked
	}
	s := Summarize(records, 2)

	require.Len(t, s.Top, 2)
	require.Equal(t, "2", s.Top[0].PIN)
	require.Equal(t, "3", s.Top[1].PIN)
}

func TestSummarizeSubjectsWeakestFirst(t *testing.T) {
	records := []*model.StudentRecord{
		rec("1", "CME", 8, "PASS", sub("MATHS", "P"), sub("ENGLISH", "P")),
		rec("2", "CME", 5, "FAIL", sub("MATHS", "F"), sub("ENGLISH", "P")),
	}
	s := Summarize(records, 0)

	require.Len(t, s.Subjects, 2)
	require.Equal(t, "MATHS", s.Subjects[0].Subject)
	require.InDelta(t, 50.0, s.Subjects[0].PassRate, 0.01)
	require.Equal(t, "ENGLISH", s.Subjects[1].Subject)
	require.InDelta(t, 100.0, s.Subjects[1].PassRate, 0.01)
}
