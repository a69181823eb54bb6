package pmsbook

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modernpms/pmsbook/pkg/pmsbook/vbacache"
)

// Default macro sources, embedded so a build without a source directory
// still produces a working book. A *.bas/*.cls directory given on the
// command line replaces these wholesale.

const modWbsCommands = `Attribute VB_Name = "modWbsCommands"
Option Explicit

' WBS シート共通のコマンド群。Up/Down ボタンとカンバンから呼ばれる。

Private Const TASK_FIRST_ROW As Long = 5
Private Const TASK_LAST_ROW As Long = 104

Public Sub MoveTaskRowUp()
    SwapTaskRows ActiveCell.Row, ActiveCell.Row - 1
End Sub

Public Sub MoveTaskRowDown()
    SwapTaskRows ActiveCell.Row, ActiveCell.Row + 1
End Sub

Private Sub SwapTaskRows(ByVal rowA As Long, ByVal rowB As Long)
    If rowA < TASK_FIRST_ROW Or rowA > TASK_LAST_ROW Then Exit Sub
    If rowB < TASK_FIRST_ROW Or rowB > TASK_LAST_ROW Then Exit Sub

    Dim ws As Worksheet
    Set ws = ActiveSheet

    Dim buffer As Variant
    buffer = ws.Range(ws.Cells(rowA, 1), ws.Cells(rowA, 9)).Value
    ws.Range(ws.Cells(rowA, 1), ws.Cells(rowA, 9)).Value = _
        ws.Range(ws.Cells(rowB, 1), ws.Cells(rowB, 9)).Value
    ws.Range(ws.Cells(rowB, 1), ws.Cells(rowB, 9)).Value = buffer
End Sub

Public Sub DuplicateTemplateSheet()
    Dim newName As String
    newName = ThisWorkbook.NextProjectSheetName()

    ThisWorkbook.Worksheets("Template").Copy _
        After:=ThisWorkbook.Worksheets(ThisWorkbook.Worksheets.Count)
    ActiveSheet.Name = newName
End Sub

Public Sub UpdateTaskStatusFromKanban(ByVal card As Range)
    Dim sheetName As String
    sheetName = card.Worksheet.Range("B2").Value
    If sheetName = "" Then Exit Sub

    Dim taskName As String
    taskName = Split(card.Value, Chr(10))(0)
    If taskName = "" Then Exit Sub

    Dim ws As Worksheet
    Set ws = ThisWorkbook.Worksheets(sheetName)

    Dim r As Long
    For r = TASK_FIRST_ROW To TASK_LAST_ROW
        If ws.Cells(r, 2).Value = taskName Then
            ws.Cells(r, 7).Value = NextProgress(ws.Cells(r, 7).Value)
            Exit Sub
        End If
    Next r
End Sub

Private Function NextProgress(ByVal progress As Double) As Double
    If progress = 0 Then
        NextProgress = 0.5
    Else
        NextProgress = 1
    End If
End Function
`

const modProtection = `Attribute VB_Name = "modProtection"
Option Explicit

' シート保護の一括適用と解除。パスワードはここで集中管理する。

Private Const SHEET_PASSWORD As String = "pms-2024"

Public Sub UnprotectAllSheets()
    Dim ws As Worksheet
    For Each ws In ThisWorkbook.Worksheets
        ws.Unprotect Password:=SHEET_PASSWORD
    Next ws
End Sub

Public Sub ProtectAllSheets()
    Dim ws As Worksheet
    For Each ws In ThisWorkbook.Worksheets
        ws.Protect Password:=SHEET_PASSWORD, _
            UserInterfaceOnly:=True, _
            AllowFormattingCells:=True, _
            AllowSorting:=True, _
            AllowFiltering:=True
    Next ws
End Sub

Public Sub ReapplyProtection()
    UnprotectAllSheets
    ProtectAllSheets
End Sub
`

const kanbanViewModule = `Attribute VB_Name = "Kanban_View"
Option Explicit

Private Sub Worksheet_BeforeDoubleClick(ByVal Target As Range, Cancel As Boolean)
    If Target.Row >= 5 And Target.Column >= 2 And Target.Column <= 6 Then
        modWbsCommands.UpdateTaskStatusFromKanban Target
        Cancel = True
    End If
End Sub
`

const thisWorkbookModule = `Attribute VB_Name = "ThisWorkbook"
Option Explicit

' 既存の PRJ_xxx を走査して次の連番シート名を返す。

Public Function NextProjectSheetName() As String
    Dim maxIndex As Long
    Dim ws As Worksheet
    For Each ws In ThisWorkbook.Worksheets
        If Left$(ws.Name, 4) = "PRJ_" Then
            Dim n As Long
            n = Val(Mid$(ws.Name, 5))
            If n > maxIndex Then maxIndex = n
        End If
    Next ws
    NextProjectSheetName = "PRJ_" & Format$(maxIndex + 1, "000")
End Function
`

// DefaultVBASources returns the embedded macro module set.
func DefaultVBASources() []vbacache.Source {
	return []vbacache.Source{
		{Name: "modWbsCommands.bas", Data: []byte(modWbsCommands)},
		{Name: "modProtection.bas", Data: []byte(modProtection)},
		{Name: "Kanban_View.cls", Data: []byte(kanbanViewModule)},
		{Name: "ThisWorkbook.cls", Data: []byte(thisWorkbookModule)},
	}
}

// LoadVBASources reads every *.bas and *.cls file under dir, in name
// order. An empty result is not an error; the caller falls back to the
// embedded defaults.
func LoadVBASources(dir string) ([]vbacache.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var sources []vbacache.Source
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".bas" && ext != ".cls" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		sources = append(sources, vbacache.Source{Name: e.Name(), Data: data})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}
