package protect

import (
	"fmt"

	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
)

// PolicyError reports a protection policy that contradicts the sheet's
// declared editable regions.
type PolicyError struct {
	Sheet  string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("protection policy on sheet %q: %s", e.Sheet, e.Reason)
}

// Resolution is the computed lock state for one sheet.
type Resolution struct {
	// Unlocked holds every cell that stays editable under protection.
	Unlocked map[model.Ref]bool
}

// IsUnlocked reports the lock state of a single cell; cells default to
// locked.
func (r *Resolution) IsUnlocked(row, col int) bool {
	return r.Unlocked[model.Ref{Row: row, Col: col}]
}

// Resolve expands the sheet's unlocked spans into per-cell state and
// checks the policy invariant: when the policy forbids row insertion, an
// editable region lying entirely below the populated rows is unusable
// (those rows can only come into existence by inserting), so the
// combination is rejected.
func Resolve(s *model.Sheet) (*Resolution, error) {
	res := &Resolution{Unlocked: make(map[model.Ref]bool)}
	maxRow := s.MaxRow()

	for _, span := range s.Unlocked {
		if s.Protection != nil && !s.Protection.AllowInsertRows && span.R1 > maxRow {
			return nil, &PolicyError{
				Sheet: s.Name,
				Reason: fmt.Sprintf("unlocked span %s starts below the populated rows (%d) but the policy forbids inserting rows",
					span.Ref(), maxRow),
			}
		}
		for row := span.R1; row <= span.R2; row++ {
			for col := span.C1; col <= span.C2; col++ {
				res.Unlocked[model.Ref{Row: row, Col: col}] = true
			}
		}
	}
	return res, nil
}

// Apply stamps the resolved lock state onto the sheet's cells: an
// unlocked cell gets the unlocked style index, everything else keeps the
// locked default. Only populated cells carry a style in the package.
func Apply(s *model.Sheet, res *Resolution, unlockedStyle int) {
	for ref, cell := range s.Cells {
		if res.IsUnlocked(ref.Row, ref.Col) {
			cell.Style = unlockedStyle
			s.Cells[ref] = cell
		}
	}
}
