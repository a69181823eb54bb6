package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
	"github.com/xuri/excelize/v2"
)

var testCreated = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testWorkbook() *model.Workbook {
	cfg := model.NewSheet("Config")
	cfg.Set(3, 2, "祝日")
	cfg.Set(4, 2, "2024-01-01")
	cfg.Set(3, 4, "担当者")
	cfg.Set(4, 4, "山田")

	tpl := model.NewSheet("Template")
	tpl.Set(4, 1, "Lv")
	tpl.Set(4, 2, "タスク名")
	tpl.Set(5, 5, 3)
	tpl.Set(5, 7, 0.5)
	tpl.SetFormula(5, 6, `IF(OR(D5="",E5=""),"",WORKDAY(D5,E5-1,Config!$B$4:$B$23))`)
	tpl.Unlocked = []model.Span{{R1: 5, C1: 1, R2: 104, C2: 5}}
	tpl.Protection = &model.Protection{
		PasswordHash:    "E91F",
		AllowFormat:     true,
		AllowSort:       true,
		AllowAutoFilter: true,
	}
	tpl.Validations = []model.DataValidation{{
		Type:         "list",
		Sqref:        "C5:C104",
		Formula1:     "Config!$D$4:$D$23",
		AllowBlank:   true,
		ShowDropDown: false,
	}}
	tpl.CondFormats = []model.CondFormat{{
		Sqref: "K5:AN104",
		Rules: []model.CondRule{{Type: "expression", DxfID: 0, Priority: 1, Formula: "K$3=TODAY()"}},
	}}
	tpl.Merges = []string{"B1:C1"}

	return &model.Workbook{
		Sheets: []*model.Sheet{cfg, tpl},
		Names: []model.NamedRange{
			{Name: "CaseIds", Sheet: "Config", Ref: "$B$4:$B$23"},
		},
		Meta: model.Metadata{Application: "pmsbook", Created: testCreated},
	}
}

func writePackage(t *testing.T, p *Package) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

func TestWriteOpensInExcelize(t *testing.T) {
	blob := writePackage(t, &Package{Workbook: testWorkbook()})

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("excelize rejected the package: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != "Config" || got[1] != "Template" {
		t.Errorf("sheet list = %v", got)
	}
	v, err := f.GetCellValue("Config", "B4")
	if err != nil {
		t.Fatal(err)
	}
	if v != "2024-01-01" {
		t.Errorf("Config!B4 = %q, want 2024-01-01", v)
	}
	formula, err := f.GetCellFormula("Template", "F5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(formula, "WORKDAY") {
		t.Errorf("Template!F5 formula = %q", formula)
	}
}

func TestWriteDeterministic(t *testing.T) {
	a := writePackage(t, &Package{Workbook: testWorkbook()})
	b := writePackage(t, &Package{Workbook: testWorkbook()})
	if !bytes.Equal(a, b) {
		t.Error("two serializations of the same model differ")
	}
}

func readPart(t *testing.T, blob []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	t.Fatalf("part %s not in archive", name)
	return nil
}

func TestSheetProtectionSerialized(t *testing.T) {
	blob := writePackage(t, &Package{Workbook: testWorkbook()})
	sheet := string(readPart(t, blob, "xl/worksheets/sheet2.xml"))

	for _, want := range []string{
		`password="E91F"`,
		`sheet="1"`,
		`formatCells="0"`,
		`sort="0"`,
		`autoFilter="0"`,
		`insertRows="1"`,
	} {
		if !strings.Contains(sheet, want) {
			t.Errorf("sheetProtection missing %s", want)
		}
	}
	// sheetProtection must follow sheetData per the part schema.
	if strings.Index(sheet, "<sheetProtection") < strings.Index(sheet, "</sheetData>") {
		t.Error("sheetProtection emitted before sheetData")
	}
}

func TestPartOrder(t *testing.T) {
	blob := writePackage(t, &Package{Workbook: testWorkbook()})
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"xl/workbook.xml",
		"xl/_rels/workbook.xml.rels",
		"xl/styles.xml",
		"xl/worksheets/sheet1.xml",
		"xl/worksheets/sheet2.xml",
	}
	if len(names) != len(want) {
		t.Fatalf("archive has %d entries, want %d: %v", len(names), len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestMacroPackage(t *testing.T) {
	macro := []byte{0xD0, 0xCF, 0x11, 0xE0}
	blob := writePackage(t, &Package{Workbook: testWorkbook(), Macro: macro, WithMacro: true})

	ct := string(readPart(t, blob, "[Content_Types].xml"))
	if !strings.Contains(ct, ctWorkbookMacro) {
		t.Error("macro package keeps the macro-free workbook content type")
	}
	if !strings.Contains(ct, "/xl/vbaProject.bin") {
		t.Error("macro part missing from content types")
	}
	if got := readPart(t, blob, "xl/vbaProject.bin"); !bytes.Equal(got, macro) {
		t.Error("macro blob altered in transit")
	}

	rels := string(readPart(t, blob, "xl/_rels/workbook.xml.rels"))
	if !strings.Contains(rels, "vbaProject.bin") {
		t.Error("workbook relationships missing macro part")
	}

	// A macro-free package must not reference the part at all.
	plain := writePackage(t, &Package{Workbook: testWorkbook()})
	if strings.Contains(string(readPart(t, plain, "[Content_Types].xml")), "vbaProject") {
		t.Error("macro-free package references vbaProject")
	}
}

func TestMacroDeclaredWithoutBlob(t *testing.T) {
	p := &Package{Workbook: testWorkbook(), WithMacro: true}
	err := p.Write(io.Discard)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("want SerializationError, got %v", err)
	}
	if serr.Part != "xl/vbaProject.bin" {
		t.Errorf("error names part %q", serr.Part)
	}
}

func TestDanglingStyleRejected(t *testing.T) {
	wb := testWorkbook()
	wb.Sheets[0].Cells[model.Ref{Row: 1, Col: 1}] = model.Cell{Value: "x", Style: 99}
	err := (&Package{Workbook: wb}).Write(io.Discard)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("want SerializationError, got %v", err)
	}
	if !strings.Contains(serr.Reason, "style 99") {
		t.Errorf("error reason %q does not name the style", serr.Reason)
	}
}

func TestDanglingDxfRejected(t *testing.T) {
	wb := testWorkbook()
	wb.Sheets[1].CondFormats[0].Rules[0].DxfID = NumDxfStyles
	err := (&Package{Workbook: wb}).Write(io.Discard)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("want SerializationError, got %v", err)
	}
}

func TestDanglingNameRejected(t *testing.T) {
	wb := testWorkbook()
	wb.Names = append(wb.Names, model.NamedRange{Name: "Ghost", Sheet: "Missing", Ref: "$A$1"})
	err := (&Package{Workbook: wb}).Write(io.Discard)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("want SerializationError, got %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsm")

	if err := (&Package{Workbook: testWorkbook()}).WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	prior, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// A failing build must leave the previous output untouched and no
	// stray temp files behind.
	bad := testWorkbook()
	bad.Sheets[0].Cells[model.Ref{Row: 1, Col: 1}] = model.Cell{Value: struct{}{}}
	if err := (&Package{Workbook: bad}).WriteFile(path); err == nil {
		t.Fatal("expected failure for unsupported value type")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(prior, after) {
		t.Error("failed build overwrote the previous output")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	err := (&Package{Workbook: testWorkbook()}).WriteFile(filepath.Join(t.TempDir(), "no", "such", "dir", "out.xlsm"))
	var perr *PackagingIOError
	if !errors.As(err, &perr) {
		t.Fatalf("want PackagingIOError, got %v", err)
	}
}
