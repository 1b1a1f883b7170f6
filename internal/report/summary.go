// Package report turns a batch outcome into the operator-facing artifacts:
// summary analytics, an Excel workbook, per-student PDF marksheets and an
// optional zip bundle.
package report

import (
	"sort"

	"github.com/darion/resultfetch/internal/model"
)

type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Branches []BranchStat
	Top      []*model.StudentRecord
	Subjects []SubjectStat
}

type BranchStat struct {
	Branch   string
	Passed   int
	Failed   int
	Total    int
	PassRate float64
}

type SubjectStat struct {
	Subject  string
	Passed   int
	Total    int
	PassRate float64
}

// Summarize computes pass/fail totals, per-branch performance (best first),
// the top performers by GPA and per-subject pass rates (weakest first).
func Summarize(records []*model.StudentRecord, topN int) *Summary {
	s := &Summary{Total: len(records)}

	branchIdx := make(map[string]int)
	subjectIdx := make(map[string]int)
	for _, rec := range records {
		passed := rec.Passed()
		if passed {
			s.Passed++
		} else {
			s.Failed++
		}

		if rec.Branch != "" {
			i, ok := branchIdx[rec.Branch]
			if !ok {
				i = len(s.Branches)
				branchIdx[rec.Branch] = i
				s.Branches = append(s.Branches, BranchStat{Branch: rec.Branch})
			}
			b := &s.Branches[i]
			b.Total++
			if passed {
				b.Passed++
			} else {
				b.Failed++
			}
		}

		for _, sub := range rec.Subjects {
			if sub.Subject == "" {
				continue
			}
			i, ok := subjectIdx[sub.Subject]
			if !ok {
				i = len(s.Subjects)
				subjectIdx[sub.Subject] = i
				s.Subjects = append(s.Subjects, SubjectStat{Subject: sub.Subject})
			}
			st := &s.Subjects[i]
			st.Total++
			if sub.Passed() {
				st.Passed++
			}
		}
	}

	for i := range s.Branches {
		b := &s.Branches[i]
		b.PassRate = float64(b.Passed) / float64(b.Total) * 100
	}
	sort.Slice(s.Branches, func(i, j int) bool {
		if s.Branches[i].PassRate != s.Branches[j].PassRate {
			return s.Branches[i].PassRate > s.Branches[j].PassRate
		}
		return s.Branches[i].Branch < s.Branches[j].Branch
	})

	for i := range s.Subjects {
		st := &s.Subjects[i]
		st.PassRate = float64(st.Passed) / float64(st.Total) * 100
	}
	sort.Slice(s.Subjects, func(i, j int) bool {
		if s.Subjects[i].PassRate != s.Subjects[j].PassRate {
			return s.Subjects[i].PassRate < s.Subjects[j].PassRate
		}
		return s.Subjects[i].Subject < s.Subjects[j].Subject
	})

	if topN > 0 {
		ranked := make([]*model.StudentRecord, 0, len(records))
		for _, rec := range records {
			if rec.HasGPA {
				ranked = append(ranked, rec)
			}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].GPA > ranked[j].GPA })
		if len(ranked) > topN {
			ranked = ranked[:topN]
		}
		s.Top = ranked
	}

	return s
}
