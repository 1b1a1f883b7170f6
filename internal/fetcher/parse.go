package fetcher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
)

var (
	errNoRecord  = errors.New("no record found")
	errBadLayout = errors.New("unrecognized result layout")
)

// parseRecord extracts a student record from the results container markup.
// It accepts either the container fragment itself or a full page holding
// the container.
//
// The portal renders a summary table of th/td label pairs (Name, Branch,
// GPA, Result) followed by a second table with one row per subject.
func parseRecord(html string, p *config.PortalConfig, req model.FetchRequest) (*model.StudentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errBadLayout, err)
	}

	root := doc.Selection
	if c := doc.Find("#" + p.ResultContainerID); c.Length() > 0 {
		root = c
	}
	if p.ErrorIndicator != "" && strings.Contains(root.Text(), p.ErrorIndicator) {
		return nil, errNoRecord
	}

	record := &model.StudentRecord{
		PIN:       req.PIN,
		Semester:  req.Semester,
		FetchedAt: time.Now().UTC(),
	}

	// Label cells appear once in the summary table; the subject table has
	// its own th header row with empty siblings, so the first non-empty
	// match wins.
	root.Find("th").Each(func(_ int, th *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(th.Text()))
		value := strings.TrimSpace(th.NextAllFiltered("td").First().Text())
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "name") && record.Name == "":
			record.Name = value
		case strings.Contains(label, "branch") && record.Branch == "":
			record.Branch = value
		case strings.Contains(label, "gpa") && !record.HasGPA:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				record.GPA = f
				record.HasGPA = true
			}
		case strings.Contains(label, "result") && record.Result == "":
			record.Result = value
		}
	})

	if tables := root.Find("table"); tables.Length() >= 2 {
		tables.Eq(1).Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := tr.Find("td")
			if cells.Length() < 8 {
				return
			}
			text := func(j int) string { return strings.TrimSpace(cells.Eq(j).Text()) }
			record.Subjects = append(record.Subjects, model.SubjectResult{
				Subject:       text(0),
				External:      text(1),
				Internal:      text(2),
				Total:         text(3),
				GradePoints:   text(4),
				CreditsEarned: text(5),
				Grade:         text(6),
				Result:        text(7),
			})
		})
	}

	if record.Name == "" && len(record.Subjects) == 0 {
		return nil, fmt.Errorf("%w: no student fields or subject rows", errBadLayout)
	}

	return record, nil
}

func classifyParseError(err error) (model.FailureReason, string) {
	if errors.Is(err, errNoRecord) {
		return model.ReasonNotFound, "portal reported no records"
	}
	return model.ReasonParseError, truncateDetail(err.Error())
}
