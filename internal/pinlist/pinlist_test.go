package pinlist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestRange(t *testing.T) {
	got, err := Range("1234", "01", 3, 6)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	want := []string{"123401", "123402", "123403"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Range = %v, want %v", got, want)
	}
}

func TestRangeKeepsPadding(t *testing.T) {
	got, err := Range("23210-CM-", "098", 3, 6)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	want := []string{"23210-CM-098", "23210-CM-099", "23210-CM-100"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Range = %v, want %v", got, want)
	}
}

func TestRangeErrors(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		start string
		count int
	}{
		{name: "zero count", base: "1234", start: "01", count: 0},
		{name: "negative count", base: "1234", start: "01", count: -5},
		{name: "empty start", base: "1234", start: "", count: 3},
		{name: "non numeric start", base: "1234", start: "0a", count: 3},
		{name: "overflows width", base: "1234", start: "99", count: 2},
		{name: "width over budget", base: "1234", start: "0000001", count: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Range(tt.base, tt.start, tt.count, 6)
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("Range(%q, %q, %d) error = %v, want ErrInvalidRange",
					tt.base, tt.start, tt.count, err)
			}
		})
	}
}

func TestSingle(t *testing.T) {
	got, err := Single("  23210-CM-001 ")
	if err != nil {
		t.Fatalf("Single returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"23210-CM-001"}) {
		t.Fatalf("Single = %v, want trimmed one-element list", got)
	}

	for _, bad := range []string{"", "   ", "pin with spaces", "pin;drop", "123456789012345678901234567890123"} {
		if _, err := Single(bad); !errors.Is(err, ErrInvalidPIN) {
			t.Fatalf("Single(%q) error = %v, want ErrInvalidPIN", bad, err)
		}
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"a", "b", "a", "c", "b", "a"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Dedupe = %v, want %v", got, want)
	}
}

func TestFromFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.csv")
	content := "Name,pin\nFirst,23210-CM-001\nSecond,23210-CM-002\n,\nDupe,23210-CM-001\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, err := FromFile(path, "PIN")
	if err != nil {
		t.Fatalf("FromFile returned error: %v", err)
	}
	want := []string{"23210-CM-001", "23210-CM-002"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FromFile = %v, want %v", got, want)
	}
}

func TestFromFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.xlsx")
	wb := excelize.NewFile()
	for i, v := range []string{"PIN", "23210-CM-010", "23210-CM-011", "23210-CM-010"} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatalf("setting cell: %v", err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}

	got, err := FromFile(path, "pin")
	if err != nil {
		t.Fatalf("FromFile returned error: %v", err)
	}
	want := []string{"23210-CM-010", "23210-CM-011"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FromFile = %v, want %v", got, want)
	}
}

func TestFromFileMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.csv")
	if err := os.WriteFile(path, []byte("Name,Roll\nFirst,1\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := FromFile(path, "PIN")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("FromFile error = %v, want ErrMissingColumn", err)
	}
}

func TestFromFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.txt")
	if err := os.WriteFile(path, []byte("PIN\n1\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := FromFile(path, "PIN")
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("FromFile error = %v, want ErrUnsupportedFile", err)
	}
}
