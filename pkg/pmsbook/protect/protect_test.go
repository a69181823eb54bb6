package protect

import (
	"errors"
	"testing"

	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
)

func TestResolveUnlockedSpans(t *testing.T) {
	s := model.NewSheet("Config")
	s.Set(1, 1, "祝日リスト")
	s.Set(4, 2, "2024-01-01")
	s.Unlocked = []model.Span{{R1: 4, C1: 2, R2: 200, C2: 2}}
	s.Protection = &model.Protection{AllowInsertRows: true}

	res, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.IsUnlocked(4, 2) || !res.IsUnlocked(200, 2) {
		t.Error("cells inside the span should be unlocked")
	}
	if res.IsUnlocked(4, 3) || res.IsUnlocked(3, 2) {
		t.Error("cells outside the span should stay locked")
	}
}

func TestResolveRejectsUnreachableSpan(t *testing.T) {
	s := model.NewSheet("Case_Master")
	s.Set(1, 1, "案件ID")
	// Editable region entirely below the populated area, with row
	// insertion forbidden: nothing could ever edit it.
	s.Unlocked = []model.Span{{R1: 50, C1: 1, R2: 100, C2: 3}}
	s.Protection = &model.Protection{AllowInsertRows: false}

	_, err := Resolve(s)
	var perr *PolicyError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PolicyError, got %v", err)
	}
	if perr.Sheet != "Case_Master" {
		t.Errorf("error should name the sheet, got %q", perr.Sheet)
	}

	// The same span is fine once insertion is allowed.
	s.Protection.AllowInsertRows = true
	if _, err := Resolve(s); err != nil {
		t.Errorf("span rejected despite AllowInsertRows: %v", err)
	}
}

func TestResolveSpanTouchingPopulatedRows(t *testing.T) {
	s := model.NewSheet("S")
	s.Set(5, 1, "x")
	// Span starts at a populated row and extends beyond it; reachable
	// without insertion, so allowed even under a strict policy.
	s.Unlocked = []model.Span{{R1: 5, C1: 1, R2: 104, C2: 9}}
	s.Protection = &model.Protection{AllowInsertRows: false}
	if _, err := Resolve(s); err != nil {
		t.Errorf("reachable span rejected: %v", err)
	}
}

func TestApplyStampsStyles(t *testing.T) {
	s := model.NewSheet("S")
	s.Set(5, 1, 1)
	s.Set(5, 6, "locked")
	s.Unlocked = []model.Span{{R1: 5, C1: 1, R2: 104, C2: 5}}

	res, err := Resolve(s)
	if err != nil {
		t.Fatal(err)
	}
	Apply(s, res, 1)

	if got := s.Cells[model.Ref{Row: 5, Col: 1}].Style; got != 1 {
		t.Errorf("editable cell style = %d, want 1", got)
	}
	if got := s.Cells[model.Ref{Row: 5, Col: 6}].Style; got != 0 {
		t.Errorf("locked cell style = %d, want 0", got)
	}
}
