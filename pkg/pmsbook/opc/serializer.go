// Package opc linearizes a completed workbook model plus an optional
// macro project binary into an OOXML package: a zip container with a
// content-type manifest, relationship graphs, and one XML part per sheet.
//
// Parts are written in a fixed order with fixed timestamps, so identical
// models serialize to byte-identical archives.
package opc

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/klauspost/compress/flate"
	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Package couples a workbook model with its resolved macro blob.
// WithMacro declares that the package references a macro project; leaving
// it true with a nil blob is a serialization error, never a silent
// downgrade to a macro-free package.
type Package struct {
	Workbook  *model.Workbook
	Macro     []byte
	WithMacro bool
}

// Write serializes the package to w.
func (p *Package) Write(w io.Writer) error {
	wb := p.Workbook
	if p.WithMacro && len(p.Macro) == 0 {
		return &SerializationError{Part: "xl/vbaProject.bin", Reason: "macro project referenced but no blob resolved"}
	}
	for _, n := range wb.Names {
		if wb.SheetByName(n.Sheet) == nil {
			return &SerializationError{Part: "xl/workbook.xml", Reason: fmt.Sprintf("defined name %q targets missing sheet %q", n.Name, n.Sheet)}
		}
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	type part struct {
		name string
		data []byte
	}
	parts := []part{}
	add := func(name string, data []byte) {
		parts = append(parts, part{name: name, data: data})
	}

	ct, err := marshalPart(p.contentTypes())
	if err != nil {
		return err
	}
	add("[Content_Types].xml", ct)

	rootRels, err := marshalPart(rootRelationships())
	if err != nil {
		return err
	}
	add("_rels/.rels", rootRels)

	wbXML, err := marshalPart(p.workbookPart())
	if err != nil {
		return err
	}
	add("xl/workbook.xml", wbXML)

	wbRels, err := marshalPart(p.workbookRelationships())
	if err != nil {
		return err
	}
	add("xl/_rels/workbook.xml.rels", wbRels)

	add("xl/styles.xml", []byte(stylesXML))

	if p.WithMacro {
		add("xl/vbaProject.bin", p.Macro)
	}

	for i, s := range wb.Sheets {
		ws, err := worksheetPart(s)
		if err != nil {
			return err
		}
		data, err := marshalPart(ws)
		if err != nil {
			return err
		}
		add(fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1), data)
	}

	for _, pt := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     pt.name,
			Method:   zip.Deflate,
			Modified: wb.Meta.Created,
		})
		if err != nil {
			return &PackagingIOError{Path: pt.name, Err: err}
		}
		if _, err := fw.Write(pt.data); err != nil {
			return &PackagingIOError{Path: pt.name, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return &PackagingIOError{Path: "archive", Err: err}
	}
	return nil
}

// WriteFile serializes to a temporary file beside path and renames it
// into place only on full success. A failed build never leaves a
// partial archive at the target, and a prior valid output survives.
func (p *Package) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pmsbook-*")
	if err != nil {
		return &PackagingIOError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := p.Write(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PackagingIOError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PackagingIOError{Path: path, Err: err}
	}
	return nil
}

func marshalPart(v any) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, &SerializationError{Part: "xml", Reason: err.Error()}
	}
	return append([]byte(xmlProlog), data...), nil
}

func (p *Package) contentTypes() *ctTypes {
	workbookType := ctWorkbook
	if p.WithMacro {
		workbookType = ctWorkbookMacro
	}
	t := &ctTypes{
		Xmlns: nsContentTypes,
		Defaults: []ctDefault{
			{Extension: "rels", ContentType: ctRels},
			{Extension: "xml", ContentType: ctXML},
		},
		Overrides: []ctOverride{
			{PartName: "/xl/workbook.xml", ContentType: workbookType},
		},
	}
	for i := range p.Workbook.Sheets {
		t.Overrides = append(t.Overrides, ctOverride{
			PartName:    fmt.Sprintf("/xl/worksheets/sheet%d.xml", i+1),
			ContentType: ctWorksheet,
		})
	}
	t.Overrides = append(t.Overrides, ctOverride{PartName: "/xl/styles.xml", ContentType: ctStyles})
	if p.WithMacro {
		t.Overrides = append(t.Overrides, ctOverride{PartName: "/xl/vbaProject.bin", ContentType: ctVBAProject})
	}
	return t
}

func rootRelationships() *xlsxRelationships {
	return &xlsxRelationships{
		Xmlns: nsPkgRels,
		Relationships: []xlsxRelationship{
			{ID: "rId1", Type: relTypeDocument, Target: "xl/workbook.xml"},
		},
	}
}

func (p *Package) workbookPart() *xlsxWorkbook {
	wb := &xlsxWorkbook{Xmlns: nsMain, XmlnsR: nsDocRels}
	for i, s := range p.Workbook.Sheets {
		wb.Sheets.Sheet = append(wb.Sheets.Sheet, xlsxSheet{
			Name:    s.Name,
			SheetID: i + 1,
			RID:     fmt.Sprintf("rId%d", i+1),
		})
	}
	if len(p.Workbook.Names) > 0 {
		dn := &xlsxDefinedNames{}
		for _, n := range p.Workbook.Names {
			dn.DefinedName = append(dn.DefinedName, xlsxDefinedName{Name: n.Name, Ref: n.Target()})
		}
		wb.DefinedNames = dn
	}
	return wb
}

func (p *Package) workbookRelationships() *xlsxRelationships {
	rels := &xlsxRelationships{Xmlns: nsPkgRels}
	n := len(p.Workbook.Sheets)
	for i := 0; i < n; i++ {
		rels.Relationships = append(rels.Relationships, xlsxRelationship{
			ID:     fmt.Sprintf("rId%d", i+1),
			Type:   relTypeSheet,
			Target: fmt.Sprintf("worksheets/sheet%d.xml", i+1),
		})
	}
	rels.Relationships = append(rels.Relationships, xlsxRelationship{
		ID: fmt.Sprintf("rId%d", n+1), Type: relTypeStyles, Target: "styles.xml",
	})
	if p.WithMacro {
		rels.Relationships = append(rels.Relationships, xlsxRelationship{
			ID: fmt.Sprintf("rId%d", n+2), Type: relTypeVBA, Target: "vbaProject.bin",
		})
	}
	return rels
}

func worksheetPart(s *model.Sheet) (*xlsxWorksheet, error) {
	ws := &xlsxWorksheet{Xmlns: nsMain, XmlnsR: nsDocRels}

	rows := make(map[int][]model.Ref)
	for ref := range s.Cells {
		rows[ref.Row] = append(rows[ref.Row], ref)
	}
	rowNums := make([]int, 0, len(rows))
	for r := range rows {
		rowNums = append(rowNums, r)
	}
	sort.Ints(rowNums)

	for _, rowNum := range rowNums {
		refs := rows[rowNum]
		sort.Slice(refs, func(i, j int) bool { return refs[i].Col < refs[j].Col })
		row := xlsxRow{R: rowNum}
		for _, ref := range refs {
			c, ok, err := renderCell(s.Name, ref, s.Cells[ref])
			if err != nil {
				return nil, err
			}
			if ok {
				row.C = append(row.C, c)
			}
		}
		if len(row.C) > 0 {
			ws.SheetData.Row = append(ws.SheetData.Row, row)
		}
	}

	if s.Protection != nil {
		ws.SheetProtection = protectionNode(s.Protection)
	}

	if len(s.Merges) > 0 {
		mc := &xlsxMergeCells{Count: len(s.Merges)}
		for _, ref := range s.Merges {
			mc.MergeCell = append(mc.MergeCell, xlsxMergeCell{Ref: ref})
		}
		ws.MergeCells = mc
	}

	for _, cf := range s.CondFormats {
		node := xlsxConditionalFormatting{Sqref: cf.Sqref}
		for _, rule := range cf.Rules {
			if rule.DxfID < 0 || rule.DxfID >= NumDxfStyles {
				return nil, &SerializationError{
					Part:   "xl/styles.xml",
					Reason: fmt.Sprintf("sheet %q references dxf %d outside the style table", s.Name, rule.DxfID),
				}
			}
			node.CfRule = append(node.CfRule, xlsxCfRule{
				Type: rule.Type, DxfID: rule.DxfID, Priority: rule.Priority, Formula: rule.Formula,
			})
		}
		ws.ConditionalFormatting = append(ws.ConditionalFormatting, node)
	}

	if len(s.Validations) > 0 {
		dvs := &xlsxDataValidations{Count: len(s.Validations)}
		for _, dv := range s.Validations {
			dvs.DataValidation = append(dvs.DataValidation, xlsxDataValidation{
				Type:             dv.Type,
				AllowBlank:       flag(dv.AllowBlank),
				ShowDropDown:     flag(dv.ShowDropDown),
				ShowErrorMessage: flag(dv.ShowErrorMessage),
				ShowInputMessage: flag(dv.ShowInputMessage),
				ErrorStyle:       dv.ErrorStyle,
				ErrorTitle:       dv.ErrorTitle,
				Error:            dv.Error,
				PromptTitle:      dv.PromptTitle,
				Prompt:           dv.Prompt,
				Sqref:            dv.Sqref,
				Formula1:         dv.Formula1,
			})
		}
		ws.DataValidations = dvs
	}

	return ws, nil
}

func protectionNode(p *model.Protection) *xlsxSheetProtection {
	return &xlsxSheetProtection{
		Sheet:      "1",
		Objects:    "1",
		FormatCell: allowed(p.AllowFormat),
		Sort:       allowed(p.AllowSort),
		AutoFilter: allowed(p.AllowAutoFilter),
		Password:   p.PasswordHash,
		InsertRows: allowed(p.AllowInsertRows),
	}
}

// allowed maps a capability flag to the format's inverted attribute
// value: "0" keeps the operation available under protection.
func allowed(allow bool) string {
	if allow {
		return "0"
	}
	return "1"
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return ""
}

func renderCell(sheet string, ref model.Ref, c model.Cell) (xlsxC, bool, error) {
	out := xlsxC{R: ref.Name(), S: c.Style}
	if c.Style < 0 || c.Style >= NumCellStyles {
		return out, false, &SerializationError{
			Part:   "xl/styles.xml",
			Reason: fmt.Sprintf("cell %s!%s references style %d outside the style table", sheet, ref.Name(), c.Style),
		}
	}

	if c.Formula != "" {
		out.F = &xlsxF{Content: c.Formula}
		return out, true, nil
	}
	switch v := c.Value.(type) {
	case nil:
		// A bare style assignment still needs a cell element, or the
		// unlocked format would be lost on empty cells.
		return out, c.Style != StyleLocked, nil
	case string:
		out.T = "inlineStr"
		out.IS = &xlsxIS{T: v}
	case int:
		out.V = strconv.Itoa(v)
	case int64:
		out.V = strconv.FormatInt(v, 10)
	case float64:
		out.V = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		out.T = "b"
		if v {
			out.V = "1"
		} else {
			out.V = "0"
		}
	default:
		return out, false, &SerializationError{
			Part:   "worksheet",
			Reason: fmt.Sprintf("cell %s!%s has unsupported value type %T", sheet, ref.Name(), c.Value),
		}
	}
	return out, true, nil
}
