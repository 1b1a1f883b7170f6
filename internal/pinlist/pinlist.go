// Package pinlist builds the ordered, duplicate-free identifier sequences
// a batch run operates on.
package pinlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidRange    = errors.New("invalid pin range")
	ErrInvalidPIN      = errors.New("invalid pin")
	ErrMissingColumn   = errors.New("column not found")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

const maxPinLen = 32

// Range expands base plus a numeric suffix into count identifiers. The
// suffix keeps the zero-padded width of start: base "1234", start "01",
// count 3 gives 123401, 123402, 123403.
func Range(base, start string, count, digitBudget int) ([]string, error) {
	base = strings.TrimSpace(base)
	start = strings.TrimSpace(start)
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidRange, count)
	}
	if start == "" {
		return nil, fmt.Errorf("%w: start suffix is empty", ErrInvalidRange)
	}
	for _, r := range start {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: start suffix %q is not numeric", ErrInvalidRange, start)
		}
	}
	width := len(start)
	if digitBudget > 0 && width > digitBudget {
		return nil, fmt.Errorf("%w: suffix width %d exceeds the %d digit budget", ErrInvalidRange, width, digitBudget)
	}
	first, err := strconv.Atoi(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start suffix %q is not numeric", ErrInvalidRange, start)
	}
	last := first + count - 1
	if len(strconv.Itoa(last)) > width {
		return nil, fmt.Errorf("%w: suffix %d does not fit in %d digits", ErrInvalidRange, last, width)
	}
	pins := make([]string, 0, count)
	for i := 0; i < count; i++ {
		pins = append(pins, fmt.Sprintf("%s%0*d", base, width, first+i))
	}
	return pins, nil
}

// Single validates one explicitly supplied identifier.
func Single(pin string) ([]string, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidPIN)
	}
	if len(pin) > maxPinLen {
		return nil, fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidPIN, pin, maxPinLen)
	}
	for _, r := range pin {
		if !isPinRune(r) {
			return nil, fmt.Errorf("%w: %q contains unsupported character %q", ErrInvalidPIN, pin, r)
		}
	}
	return []string{pin}, nil
}

// FromFile reads identifiers from the named column of a CSV or XLSX file.
// The first row is the header; empty cells are skipped and duplicates keep
// their first position.
func FromFile(path, column string) ([]string, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	case ".xlsx":
		wb, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer wb.Close()
		rows, err = wb.GetRows(wb.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, filepath.Ext(path))
	}

	return fromRows(rows, column)
}

func fromRows(rows [][]string, column string) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (no header row)", ErrMissingColumn, column)
	}
	col := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(column)) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	var pins []string
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		pin := strings.TrimSpace(row[col])
		if pin == "" {
			continue
		}
		pins = append(pins, pin)
	}

	return Dedupe(pins), nil
}

// Dedupe drops repeated identifiers, keeping the first occurrence in place.
func Dedupe(pins []string) []string {
	seen := make(map[string]struct{}, len(pins))
	out := make([]string, 0, len(pins))
	for _, pin := range pins {
		if _, ok := seen[pin]; ok {
			continue
		}
		seen[pin] = struct{}{}
		out = append(out, pin)
	}
	return out
}

func isPinRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == '-' || r == '/':
		return true
	}
	return false
}
