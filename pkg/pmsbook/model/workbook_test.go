package model

import (
	"errors"
	"testing"
	"time"
)

func TestValidateSheetNames(t *testing.T) {
	tests := []struct {
		name      string
		sheetName string
		wantErr   bool
	}{
		{"plain", "Config", false},
		{"japanese", "進捗管理", false},
		{"max length", "abcdefghijklmnopqrstuvwxyz12345", false},
		{"empty", "", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz123456", true},
		{"bracket", "PRJ[1]", true},
		{"colon", "a:b", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"asterisk", "a*b", true},
		{"question", "a?b", true},
		{"leading apostrophe", "'PRJ", true},
		{"trailing apostrophe", "PRJ'", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := &Workbook{Sheets: []*Sheet{NewSheet(tt.sheetName)}}
			err := wb.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() with sheet %q: err = %v, wantErr = %v", tt.sheetName, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDuplicateSheet(t *testing.T) {
	wb := &Workbook{Sheets: []*Sheet{NewSheet("A"), NewSheet("A")}}
	err := wb.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Name != "A" {
		t.Errorf("error should name the offending sheet, got %q", verr.Name)
	}
}

func TestValidateCellValueAndFormula(t *testing.T) {
	s := NewSheet("S")
	s.Cells[Ref{Row: 2, Col: 3}] = Cell{Value: 1, Formula: "SUM(A1:A2)"}
	wb := &Workbook{Sheets: []*Sheet{s}}

	err := wb.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Name != "S!C2" {
		t.Errorf("expected offending cell S!C2, got %q", verr.Name)
	}
}

func TestValidateNamedRanges(t *testing.T) {
	wb := &Workbook{
		Sheets: []*Sheet{NewSheet("Case_Master")},
		Names:  []NamedRange{{Name: "CaseIds", Sheet: "Case_Master", Ref: "$A$2:$A$100"}},
	}
	if err := wb.Validate(); err != nil {
		t.Fatalf("valid named range rejected: %v", err)
	}

	wb.Names = []NamedRange{{Name: "CaseIds", Sheet: "Missing", Ref: "$A$2:$A$100"}}
	if err := wb.Validate(); err == nil {
		t.Error("dangling named range accepted")
	}

	wb.Names = []NamedRange{{Name: "CaseIds", Sheet: "Case_Master", Ref: "  "}}
	if err := wb.Validate(); err == nil {
		t.Error("empty span accepted")
	}
}

func TestRefAndSpanNotation(t *testing.T) {
	if got := (Ref{Row: 2, Col: 11}).Name(); got != "K2" {
		t.Errorf("Ref{2,11}.Name() = %q, want K2", got)
	}
	if got := (Span{R1: 5, C1: 11, R2: 104, C2: 40}).Ref(); got != "K5:AN104" {
		t.Errorf("Span.Ref() = %q, want K5:AN104", got)
	}
	if got := (Span{R1: 1, C1: 8, R2: 1, C2: 8}).Ref(); got != "H1" {
		t.Errorf("single-cell span = %q, want H1", got)
	}
}

func TestSheetHelpers(t *testing.T) {
	s := NewSheet("S")
	s.Set(1, 1, "title")
	s.SetFormula(2, 10, "=SUM(E5:E104)")

	if c := s.Cells[Ref{Row: 2, Col: 10}]; c.Formula != "SUM(E5:E104)" {
		t.Errorf("leading = not stripped: %q", c.Formula)
	}
	if s.MaxRow() != 2 {
		t.Errorf("MaxRow = %d, want 2", s.MaxRow())
	}
}

func TestMetadataIsPartOfModel(t *testing.T) {
	wb := &Workbook{Meta: Metadata{Created: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)}}
	if wb.Meta.Created.IsZero() {
		t.Fatal("metadata timestamp lost")
	}
}
