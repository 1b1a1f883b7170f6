package model

import (
	"strings"
	"time"
)

type SubjectResult struct {
	Subject       string `json:"subject"`
	External      string `json:"external"`
	Internal      string `json:"internal"`
	Total         string `json:"total"`
	GradePoints   string `json:"grade_points"`
	CreditsEarned string `json:"credits_earned"`
	Grade         string `json:"grade"`
	Result        string `json:"result"`
}

func (s SubjectResult) Passed() bool {
	return strings.EqualFold(strings.TrimSpace(s.Result), "P")
}

type StudentRecord struct {
	PIN       string          `json:"pin"`
	Name      string          `json:"name"`
	Branch    string          `json:"branch"`
	GPA       float64         `json:"gpa"`
	HasGPA    bool            `json:"has_gpa"`
	Result    string          `json:"result"`
	Semester  string          `json:"semester"`
	Subjects  []SubjectResult `json:"subjects,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Passed reports whether the overall result marks the student as passing.
// The portal uses a mix of markers ("PASS", "Distinction", "First Class").
func (r *StudentRecord) Passed() bool {
	res := strings.ToLower(r.Result)
	for _, marker := range []string{"pass", "distinction", "first"} {
		if strings.Contains(res, marker) {
			return true
		}
	}
	return false
}
