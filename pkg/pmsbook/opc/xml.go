package opc

import "encoding/xml"

// Part payload structs. Field order follows the worksheet schema
// (sheetData, sheetProtection, mergeCells, conditionalFormatting,
// dataValidations); encoding/xml emits fields in declaration order, which
// keeps the serialized parts stable across runs.

const (
	nsMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsDocRels       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPkgRels       = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	relTypeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeSheet    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relTypeStyles   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeVBA      = "http://schemas.microsoft.com/office/2006/relationships/vbaProject"
)

const (
	ctRels          = "application/vnd.openxmlformats-package.relationships+xml"
	ctXML           = "application/xml"
	ctWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ctWorkbookMacro = "application/vnd.ms-excel.sheet.macroEnabled.main+xml"
	ctWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctVBAProject    = "application/vnd.ms-office.vbaProject"
)

type ctTypes struct {
	XMLName   xml.Name     `xml:"Types"`
	Xmlns     string       `xml:"xmlns,attr"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xlsxRelationships struct {
	XMLName       xml.Name           `xml:"Relationships"`
	Xmlns         string             `xml:"xmlns,attr"`
	Relationships []xlsxRelationship `xml:"Relationship"`
}

type xlsxRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xlsxWorkbook struct {
	XMLName      xml.Name          `xml:"workbook"`
	Xmlns        string            `xml:"xmlns,attr"`
	XmlnsR       string            `xml:"xmlns:r,attr"`
	Sheets       xlsxSheets        `xml:"sheets"`
	DefinedNames *xlsxDefinedNames `xml:"definedNames,omitempty"`
}

type xlsxSheets struct {
	Sheet []xlsxSheet `xml:"sheet"`
}

type xlsxSheet struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	RID     string `xml:"r:id,attr"`
}

type xlsxDefinedNames struct {
	DefinedName []xlsxDefinedName `xml:"definedName"`
}

type xlsxDefinedName struct {
	Name string `xml:"name,attr"`
	Ref  string `xml:",chardata"`
}

type xlsxWorksheet struct {
	XMLName               xml.Name                    `xml:"worksheet"`
	Xmlns                 string                      `xml:"xmlns,attr"`
	XmlnsR                string                      `xml:"xmlns:r,attr"`
	SheetData             xlsxSheetData               `xml:"sheetData"`
	SheetProtection       *xlsxSheetProtection        `xml:"sheetProtection,omitempty"`
	MergeCells            *xlsxMergeCells             `xml:"mergeCells,omitempty"`
	ConditionalFormatting []xlsxConditionalFormatting `xml:"conditionalFormatting,omitempty"`
	DataValidations       *xlsxDataValidations        `xml:"dataValidations,omitempty"`
}

type xlsxSheetData struct {
	Row []xlsxRow `xml:"row"`
}

type xlsxRow struct {
	R int      `xml:"r,attr"`
	C []xlsxC  `xml:"c"`
}

type xlsxC struct {
	R  string  `xml:"r,attr"`
	S  int     `xml:"s,attr,omitempty"`
	T  string  `xml:"t,attr,omitempty"`
	F  *xlsxF  `xml:"f,omitempty"`
	V  string  `xml:"v,omitempty"`
	IS *xlsxIS `xml:"is,omitempty"`
}

type xlsxF struct {
	Content string `xml:",chardata"`
}

type xlsxIS struct {
	T string `xml:"t"`
}

// xlsxSheetProtection uses the format's inverted capability convention:
// "0" means the operation stays allowed while the sheet is protected.
type xlsxSheetProtection struct {
	Sheet      string `xml:"sheet,attr"`
	Objects    string `xml:"objects,attr"`
	FormatCell string `xml:"formatCells,attr"`
	Sort       string `xml:"sort,attr"`
	AutoFilter string `xml:"autoFilter,attr"`
	Password   string `xml:"password,attr,omitempty"`
	InsertRows string `xml:"insertRows,attr"`
}

type xlsxMergeCells struct {
	Count     int             `xml:"count,attr"`
	MergeCell []xlsxMergeCell `xml:"mergeCell"`
}

type xlsxMergeCell struct {
	Ref string `xml:"ref,attr"`
}

type xlsxConditionalFormatting struct {
	Sqref  string       `xml:"sqref,attr"`
	CfRule []xlsxCfRule `xml:"cfRule"`
}

type xlsxCfRule struct {
	Type     string `xml:"type,attr"`
	DxfID    int    `xml:"dxfId,attr"`
	Priority int    `xml:"priority,attr"`
	Formula  string `xml:"formula"`
}

type xlsxDataValidations struct {
	Count          int                  `xml:"count,attr"`
	DataValidation []xlsxDataValidation `xml:"dataValidation"`
}

type xlsxDataValidation struct {
	Type             string `xml:"type,attr"`
	AllowBlank       string `xml:"allowBlank,attr,omitempty"`
	ShowDropDown     string `xml:"showDropDown,attr,omitempty"`
	ShowErrorMessage string `xml:"showErrorMessage,attr,omitempty"`
	ShowInputMessage string `xml:"showInputMessage,attr,omitempty"`
	ErrorStyle       string `xml:"errorStyle,attr,omitempty"`
	ErrorTitle       string `xml:"errorTitle,attr,omitempty"`
	Error            string `xml:"error,attr,omitempty"`
	PromptTitle      string `xml:"promptTitle,attr,omitempty"`
	Prompt           string `xml:"prompt,attr,omitempty"`
	Sqref            string `xml:"sqref,attr"`
	Formula1         string `xml:"formula1"`
}
