// Package model holds the declarative in-memory representation of a
// workbook before it is serialized into an OOXML package.
package model

import (
	"strings"
	"time"
)

// Workbook is the root of the document model. It owns its sheets; a sheet
// never belongs to more than one workbook.
type Workbook struct {
	Sheets []*Sheet
	Names  []NamedRange
	Meta   Metadata
}

// Metadata carries document-level settings. Created is the fixed build
// timestamp stamped into every archive entry; it is never wall-clock so
// that identical inputs produce identical bytes.
type Metadata struct {
	Application string
	Created     time.Time
}

// NamedRange maps a workbook-level defined name to an address span on one
// sheet, e.g. CaseIds -> Case_Master!$A$2:$A$100.
type NamedRange struct {
	Name  string
	Sheet string
	Ref   string
}

// Target returns the full reference the defined name resolves to.
func (n NamedRange) Target() string {
	return n.Sheet + "!" + n.Ref
}

// SheetByName returns the named sheet, or nil.
func (w *Workbook) SheetByName(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Validate checks the model invariants: unique, well-formed sheet names,
// at most one of value/formula per cell, and named ranges that resolve to
// an existing sheet and a non-empty span.
func (w *Workbook) Validate() error {
	seen := make(map[string]bool, len(w.Sheets))
	for _, s := range w.Sheets {
		if err := checkSheetName(s.Name); err != nil {
			return err
		}
		if seen[s.Name] {
			return &ValidationError{Kind: "sheet", Name: s.Name, Reason: "duplicate sheet name"}
		}
		seen[s.Name] = true

		for ref, c := range s.Cells {
			if c.Formula != "" && c.Value != nil {
				return &ValidationError{
					Kind:   "cell",
					Name:   s.Name + "!" + ref.Name(),
					Reason: "cell has both a literal value and a formula",
				}
			}
		}
	}

	for _, n := range w.Names {
		if !seen[n.Sheet] {
			return &ValidationError{Kind: "name", Name: n.Name, Reason: "target sheet " + n.Sheet + " does not exist"}
		}
		if strings.TrimSpace(n.Ref) == "" {
			return &ValidationError{Kind: "name", Name: n.Name, Reason: "empty address span"}
		}
	}
	return nil
}

// invalidSheetNameChars are forbidden by the packaging spec.
const invalidSheetNameChars = `[]:*?/\`

func checkSheetName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Kind: "sheet", Name: name, Reason: "empty sheet name"}
	case len([]rune(name)) > 31:
		return &ValidationError{Kind: "sheet", Name: name, Reason: "sheet name longer than 31 characters"}
	case strings.ContainsAny(name, invalidSheetNameChars):
		return &ValidationError{Kind: "sheet", Name: name, Reason: `sheet name contains one of []:*?/\`}
	case strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"):
		return &ValidationError{Kind: "sheet", Name: name, Reason: "sheet name starts or ends with an apostrophe"}
	}
	return nil
}
