// Package inspect reads a generated workbook back and summarizes its
// structure, so a build can be verified without opening Excel.
package inspect

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SheetSummary describes one worksheet of an inspected book.
type SheetSummary struct {
	Name            string
	CellCount       int
	FormulaCount    int
	Protected       bool
	PasswordHash    string
	AllowInsertRows bool
}

// BookSummary describes an inspected workbook package.
type BookSummary struct {
	BookName     string
	Sheets       []SheetSummary
	DefinedNames []string
	HasMacro     bool
}

// InspectionError represents a failure while reading one component of
// the package.
type InspectionError struct {
	Sheet     string
	Component string
	Err       error
}

func (e *InspectionError) Error() string {
	return fmt.Sprintf("inspection error in sheet %q (%s): %v", e.Sheet, e.Component, e.Err)
}

func (e *InspectionError) Unwrap() error { return e.Err }

// worksheetDoc is the slice of the worksheet part the inspection needs.
type worksheetDoc struct {
	SheetData struct {
		Row []struct {
			C []struct {
				F string `xml:"f"`
			} `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
	SheetProtection *struct {
		Sheet      string `xml:"sheet,attr"`
		Password   string `xml:"password,attr"`
		InsertRows string `xml:"insertRows,attr"`
	} `xml:"sheetProtection"`
}

// Inspect opens the workbook at path and returns its structural summary.
// The sheet list and defined names come from excelize; protection and
// cell counts are read from the raw worksheet parts, which carry the
// legacy password attribute excelize does not surface.
func Inspect(path string) (*BookSummary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &InspectionError{Component: "workbook", Err: err}
	}
	defer f.Close()

	summary := &BookSummary{BookName: filepath.Base(path)}
	for _, dn := range f.GetDefinedName() {
		summary.DefinedNames = append(summary.DefinedNames, dn.Name)
	}

	parts, err := readParts(path)
	if err != nil {
		return nil, err
	}
	_, summary.HasMacro = parts["xl/vbaProject.bin"]

	for i, name := range f.GetSheetList() {
		part := fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		data, ok := parts[part]
		if !ok {
			return nil, &InspectionError{Sheet: name, Component: "worksheet", Err: fmt.Errorf("part %s missing", part)}
		}
		sheet, err := summarizeSheet(name, data)
		if err != nil {
			return nil, err
		}
		summary.Sheets = append(summary.Sheets, sheet)
	}
	return summary, nil
}

func summarizeSheet(name string, data []byte) (SheetSummary, error) {
	var doc worksheetDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return SheetSummary{}, &InspectionError{Sheet: name, Component: "worksheet", Err: err}
	}

	s := SheetSummary{Name: name}
	for _, row := range doc.SheetData.Row {
		s.CellCount += len(row.C)
		for _, c := range row.C {
			if c.F != "" {
				s.FormulaCount++
			}
		}
	}
	if p := doc.SheetProtection; p != nil && p.Sheet == "1" {
		s.Protected = true
		s.PasswordHash = p.Password
		s.AllowInsertRows = p.InsertRows == "0"
	}
	return s, nil
}

func readParts(path string) (map[string][]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &InspectionError{Component: "archive", Err: err}
	}
	defer zr.Close()

	parts := make(map[string][]byte, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, &InspectionError{Component: "archive", Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &InspectionError{Component: "archive", Err: err}
		}
		parts[zf.Name] = data
	}
	return parts, nil
}
