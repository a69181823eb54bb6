package expand

import (
	"errors"
	"testing"

	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
)

func newTemplate() *model.Sheet {
	s := model.NewSheet("Template")
	s.Set(1, 1, "プロジェクト名")
	s.SetFormula(3, 10, `"{{SELF}}"`)
	s.SetFormula(2, 10, "SUM(E5:E104)")
	s.Unlocked = []model.Span{{R1: 5, C1: 1, R2: 104, C2: 9}}
	s.Protection = &model.Protection{AllowInsertRows: true}
	return s
}

func TestSpokeName(t *testing.T) {
	tests := []struct {
		i    int
		want string
	}{
		{1, "PRJ_001"},
		{17, "PRJ_017"},
		{200, "PRJ_200"},
	}
	for _, tt := range tests {
		if got := SpokeName(tt.i); got != tt.want {
			t.Errorf("SpokeName(%d) = %q, want %q", tt.i, got, tt.want)
		}
	}
}

func TestExpandCounts(t *testing.T) {
	tpl := newTemplate()

	spokes, err := Expand(tpl, 0, 0)
	if err != nil {
		t.Fatalf("Expand(0) errored: %v", err)
	}
	if len(spokes) != 0 {
		t.Errorf("Expand(0) produced %d sheets", len(spokes))
	}

	if _, err := Expand(tpl, -1, 0); err == nil {
		t.Error("negative count accepted")
	}
	if _, err := Expand(tpl, DefaultMaxSpokes+1, 0); err == nil {
		t.Error("count above maximum accepted")
	}

	var eerr *ExpansionError
	_, err = Expand(tpl, -1, 0)
	if !errors.As(err, &eerr) {
		t.Fatalf("expected ExpansionError, got %v", err)
	}
}

func TestExpandRewritesSelf(t *testing.T) {
	tpl := newTemplate()
	spokes, err := Expand(tpl, 3, 0)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(spokes) != 3 {
		t.Fatalf("got %d spokes, want 3", len(spokes))
	}

	for i, s := range spokes {
		want := SpokeName(i + 1)
		if s.Name != want {
			t.Errorf("spoke %d named %q, want %q", i, s.Name, want)
		}
		got := s.Cells[model.Ref{Row: 3, Col: 10}].Formula
		if got != `"`+want+`"` {
			t.Errorf("spoke %d self formula = %q", i, got)
		}
		if HasPlaceholder(s) {
			t.Errorf("spoke %d still carries a placeholder", i)
		}
	}

	// The template must not be mutated by expansion.
	if got := tpl.Cells[model.Ref{Row: 3, Col: 10}].Formula; got != `"{{SELF}}"` {
		t.Errorf("template formula mutated: %q", got)
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	tpl := newTemplate()
	a, err := Expand(tpl, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Expand(tpl, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Errorf("run mismatch at %d: %q vs %q", i, a[i].Name, b[i].Name)
		}
		for ref, cell := range a[i].Cells {
			if b[i].Cells[ref] != cell {
				t.Errorf("spoke %s cell %s differs between runs", a[i].Name, ref.Name())
			}
		}
	}
}

func TestExpandClonesStructure(t *testing.T) {
	tpl := newTemplate()
	spokes, err := Expand(tpl, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	s := spokes[0]

	// Mutating the clone must not reach the template.
	s.Set(99, 1, "x")
	if _, ok := tpl.Cells[model.Ref{Row: 99, Col: 1}]; ok {
		t.Error("clone shares cell map with template")
	}
	s.Unlocked[0].R2 = 1
	if tpl.Unlocked[0].R2 != 104 {
		t.Error("clone shares unlocked spans with template")
	}
	s.Protection.AllowInsertRows = false
	if !tpl.Protection.AllowInsertRows {
		t.Error("clone shares protection policy with template")
	}
}

func TestUnrecognizedPlaceholder(t *testing.T) {
	tpl := newTemplate()
	tpl.SetFormula(4, 4, `"{{NO_SUCH_TOKEN}}"`)
	if _, err := Expand(tpl, 1, 0); err == nil {
		t.Error("unrecognized placeholder accepted")
	}
}

func TestMalformedResolvedFormula(t *testing.T) {
	// A template whose token sits where substitution yields unbalanced
	// nesting must be rejected, not emitted.
	tpl := newTemplate()
	tpl.SetFormula(4, 4, `SUM(INDIRECT("'{{SELF}}'!A1")`)
	if _, err := Expand(tpl, 1, 0); err == nil {
		t.Error("unbalanced formula accepted")
	}
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		formula string
		ok      bool
	}{
		{`SUM(E5:E104)`, true},
		{`IF($B$2="","",INDIRECT("'"&$B$2&"'!J2"))`, true},
		{`LET(_eff,E5:E104,_prg,G5:G104,_total,SUM(_eff),IF(_total=0,0,SUMPRODUCT(_eff,_prg)/_total))`, true},
		{`SUM(A1`, false},
		{`SUM(A1))`, false},
	}
	for _, tt := range tests {
		if got := wellFormed(tt.formula); got != tt.ok {
			t.Errorf("wellFormed(%q) = %v, want %v", tt.formula, got, tt.ok)
		}
	}
}
