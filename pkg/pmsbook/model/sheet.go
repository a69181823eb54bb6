package model

import (
	"github.com/xuri/excelize/v2"
)

// Ref addresses a single cell by 1-based row and column.
type Ref struct {
	Row int
	Col int
}

// Name renders the ref in A1 notation.
func (r Ref) Name() string {
	name, err := excelize.CoordinatesToCellName(r.Col, r.Row)
	if err != nil {
		return ""
	}
	return name
}

// Span is a rectangular cell region, inclusive on both corners.
type Span struct {
	R1, C1 int
	R2, C2 int
}

// Contains reports whether the span covers the given cell.
func (s Span) Contains(row, col int) bool {
	return row >= s.R1 && row <= s.R2 && col >= s.C1 && col <= s.C2
}

// Ref renders the span in A1:B2 notation.
func (s Span) Ref() string {
	a := Ref{Row: s.R1, Col: s.C1}.Name()
	if s.R1 == s.R2 && s.C1 == s.C2 {
		return a
	}
	return a + ":" + Ref{Row: s.R2, Col: s.C2}.Name()
}

// Cell holds exactly one of a literal value or a formula, plus a style
// index into the shared style table. Style 0 is the locked default.
type Cell struct {
	Value   any
	Formula string
	Style   int
}

// Protection is the per-sheet protection policy. The Allow flags describe
// capabilities the host application keeps enabled while the sheet is
// protected. PasswordHash is the legacy digest embedded verbatim.
type Protection struct {
	PasswordHash    string
	AllowFormat     bool
	AllowSort       bool
	AllowAutoFilter bool
	AllowInsertRows bool
}

// DataValidation restricts input on a cell region, typically to a list
// sourced from a master range or defined name.
type DataValidation struct {
	Type             string
	Sqref            string
	Formula1         string
	AllowBlank       bool
	ShowDropDown     bool
	ShowErrorMessage bool
	ShowInputMessage bool
	ErrorStyle       string
	ErrorTitle       string
	Error            string
	PromptTitle      string
	Prompt           string
}

// CondRule is a single conditional formatting rule.
type CondRule struct {
	Type     string
	DxfID    int
	Priority int
	Formula  string
}

// CondFormat groups rules applied over one region.
type CondFormat struct {
	Sqref string
	Rules []CondRule
}

// Sheet is one worksheet definition. Cells is sparse, keyed by (row, col).
// Unlocked lists the regions whose cells stay editable under protection;
// the protect package resolves these into per-cell lock state.
type Sheet struct {
	Name        string
	Cells       map[Ref]Cell
	Validations []DataValidation
	CondFormats []CondFormat
	Merges      []string
	Unlocked    []Span
	Protection  *Protection
}

// NewSheet returns an empty sheet with the given name.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, Cells: make(map[Ref]Cell)}
}

// Set places a literal value.
func (s *Sheet) Set(row, col int, value any) {
	s.Cells[Ref{Row: row, Col: col}] = Cell{Value: value}
}

// SetFormula places a formula, stored without a leading "=".
func (s *Sheet) SetFormula(row, col int, formula string) {
	if len(formula) > 0 && formula[0] == '=' {
		formula = formula[1:]
	}
	s.Cells[Ref{Row: row, Col: col}] = Cell{Formula: formula}
}

// MaxRow returns the highest populated row, or 0 for an empty sheet.
func (s *Sheet) MaxRow() int {
	max := 0
	for ref := range s.Cells {
		if ref.Row > max {
			max = ref.Row
		}
	}
	return max
}
