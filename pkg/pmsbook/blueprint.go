// Package pmsbook assembles the Modern Excel PMS workbook: a Config
// sheet of shared masters, a protected WBS template expanded into
// numbered PRJ sheets, the case and measure masters, a kanban view, and
// an optional embedded macro project.
package pmsbook

import (
	"fmt"

	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
	"github.com/modernpms/pmsbook/pkg/pmsbook/report"
)

const (
	taskFirstRow = 5
	taskLastRow  = 104

	ganttStartCol = 11
	ganttColumns  = 30
)

func sheetProtection(hash string, allowInsertRows bool) *model.Protection {
	return &model.Protection{
		PasswordHash:    hash,
		AllowFormat:     true,
		AllowSort:       true,
		AllowAutoFilter: true,
		AllowInsertRows: allowInsertRows,
	}
}

// configSheet carries the shared masters: holidays in column B, members
// in column D, status candidates in column F. All three columns stay
// editable down to row 200 so the lists can grow.
func configSheet(hash string) *model.Sheet {
	s := model.NewSheet("Config")
	s.Set(1, 1, "祝日リスト")
	s.Set(2, 1, "日付")
	s.Set(1, 4, "担当者マスタ")
	s.Set(2, 4, "氏名")
	s.Set(1, 6, "ステータス候補")
	s.Set(2, 6, "値")

	for i, day := range report.Holidays {
		s.Set(4+i, 2, day)
	}
	for i, member := range report.Members {
		s.Set(4+i, 4, member)
	}
	for i, status := range report.Statuses {
		s.Set(4+i, 6, status)
	}

	s.Unlocked = []model.Span{
		{R1: 4, C1: 2, R2: 200, C2: 2},
		{R1: 4, C1: 4, R2: 200, C2: 4},
		{R1: 4, C1: 6, R2: 200, C2: 6},
	}
	s.Protection = sheetProtection(hash, true)
	return s
}

// templateSheet is the WBS master sheet. Its clones become the PRJ
// spokes; the {{SELF}} placeholder in J3 resolves to each clone's own
// name so every spoke can state which sheet it is.
func templateSheet(hash string) *model.Sheet {
	s := model.NewSheet("Template")
	s.Set(1, 1, "プロジェクト名")
	s.Set(1, 2, "Modern Excel PMS")

	headers := []string{"Lv", "タスク名", "担当", "開始日", "工数(日)", "終了日", "進捗率", "ステータス", "備考"}
	for i, h := range headers {
		s.Set(4, 1+i, h)
	}

	s.Set(1, 11, "ガント開始日")
	s.SetFormula(2, 11, "TODAY()-3")
	for offset := 0; offset < ganttColumns; offset++ {
		s.SetFormula(3, ganttStartCol+offset, fmt.Sprintf(`IF($K$2="","",$K$2+%d)`, offset))
	}

	for row := taskFirstRow; row <= 13; row++ {
		s.SetFormula(row, 6, fmt.Sprintf(
			`IF(OR(D%d="",E%d=""),"",WORKDAY(D%d,E%d-1,Config!$B$4:$B$20))`, row, row, row, row))
		s.SetFormula(row, 8, fmt.Sprintf(
			`IFS(G%d=1,"完了",AND(F%d<TODAY(),G%d<1),"遅延",AND(D%d<=TODAY(),G%d<1),"進行中",TRUE,"未着手")`,
			row, row, row, row, row))
	}

	s.Set(1, 10, "全体進捗")
	s.SetFormula(2, 10, "LET(_eff,E5:E104,_prg,G5:G104,_total,SUM(_eff),IF(_total=0,0,SUMPRODUCT(_eff,_prg)/_total))")
	s.SetFormula(3, 10, `"{{SELF}}"`)

	s.Validations = []model.DataValidation{
		{
			Type: "list", AllowBlank: true, ShowDropDown: true,
			Sqref: "C5:C104", Formula1: "Config!$D$4:$D$20",
		},
		{
			Type: "list", AllowBlank: true, ShowDropDown: true,
			Sqref: "H5:H104", Formula1: "Config!$F$4:$F$20",
		},
	}
	s.CondFormats = templateCondFormats()

	// Editable: Lv..工数 (A:E) and 進捗率..備考 (G:I) on the task rows.
	// 終了日 (F) and the gantt area stay formula-driven and locked.
	s.Unlocked = []model.Span{
		{R1: taskFirstRow, C1: 1, R2: taskLastRow, C2: 5},
		{R1: taskFirstRow, C1: 7, R2: taskLastRow, C2: 9},
	}
	s.Protection = sheetProtection(hash, true)
	return s
}

func templateCondFormats() []model.CondFormat {
	ganttRange := fmt.Sprintf("K%d:AN%d", taskFirstRow, taskLastRow)
	barRule := func(status string) string {
		return fmt.Sprintf(`AND($D5<>"",$E5<>"",K$3>=$D5,K$3<=$F5,$H5=%q)`, status)
	}
	return []model.CondFormat{
		{
			Sqref: ganttRange,
			Rules: []model.CondRule{
				{Type: "expression", DxfID: 0, Priority: 1, Formula: "K$3=TODAY()"},
				{Type: "expression", DxfID: 1, Priority: 2, Formula: barRule("完了")},
				{Type: "expression", DxfID: 2, Priority: 3, Formula: barRule("遅延")},
				{Type: "expression", DxfID: 3, Priority: 4,
					Formula: `AND($D5<>"",$E5<>"",K$3>=$D5,K$3<=$F5,$H5<>"",$H5<>"完了",$H5<>"遅延")`},
			},
		},
		{
			Sqref: fmt.Sprintf("H%d:H%d", taskFirstRow, taskLastRow),
			Rules: []model.CondRule{
				{Type: "expression", DxfID: 4, Priority: 5, Formula: `$H5="未着手"`},
				{Type: "expression", DxfID: 5, Priority: 6, Formula: `$H5="進行中"`},
				{Type: "expression", DxfID: 6, Priority: 7, Formula: `$H5="遅延"`},
				{Type: "expression", DxfID: 7, Priority: 8, Formula: `$H5="完了"`},
			},
		},
	}
}

// seedSampleTasks writes the sample dataset onto a spoke sheet's task
// rows. Derived columns (終了日, ステータス) stay formulas.
func seedSampleTasks(s *model.Sheet, tasks []report.Task) {
	for i, t := range tasks {
		row := taskFirstRow + i
		s.Set(row, 1, t.Lv)
		s.Set(row, 2, t.Name)
		s.Set(row, 3, t.Owner)
		s.Set(row, 4, t.Start)
		s.Set(row, 5, t.Effort)
		s.Set(row, 7, t.Progress)
	}
}

// caseMasterSheet aggregates per-case measure counts and mean progress,
// plus a drilldown area driven by the H1 case selector.
func caseMasterSheet(hash string) *model.Sheet {
	s := model.NewSheet("Case_Master")
	for i, h := range []string{"案件ID", "案件名", "メモ", "施策数", "平均進捗"} {
		s.Set(1, 1+i, h)
	}
	for i, c := range report.Cases {
		row := 2 + i
		s.Set(row, 1, c.ID)
		s.Set(row, 2, c.Name)
		s.SetFormula(row, 4, fmt.Sprintf("COUNTIF(Measure_Master!$B:$B,A%d)", row))
		s.SetFormula(row, 5, fmt.Sprintf("IFERROR(AVERAGEIF(Measure_Master!$B:$B,A%d,Measure_Master!$G:$G),0)", row))
	}

	s.Set(1, 7, "案件ドリルダウン")
	s.Set(1, 8, "CASE-001")
	for i, h := range []string{"施策ID", "親案件ID", "施策名", "開始日", "WBS リンク", "WBS シート名", "実進捗", "備考"} {
		s.Set(2, 7+i, h)
	}
	s.SetFormula(3, 7, `IF($H$1="","",IFERROR(FILTER(MeasureList,INDEX(MeasureList,,2)=$H$1),"該当なし"))`)

	s.Validations = []model.DataValidation{{
		Type: "list", AllowBlank: true, ShowDropDown: true,
		ShowErrorMessage: true, ShowInputMessage: true,
		ErrorStyle: "stop", ErrorTitle: "入力エラー", Error: "リストから選択してください",
		PromptTitle: "案件IDの選択", Prompt: "プルダウンから案件IDを選択してください",
		Sqref: "H1", Formula1: "CaseIds",
	}}

	s.Unlocked = []model.Span{
		{R1: 2, C1: 1, R2: 100, C2: 3},
		{R1: 1, C1: 8, R2: 1, C2: 8},
	}
	s.Protection = sheetProtection(hash, false)
	return s
}

// measureMasterSheet lists the measures. WBS リンク (E) and 実進捗 (G)
// are derived from the named spoke sheet and stay locked.
func measureMasterSheet(hash string) *model.Sheet {
	s := model.NewSheet("Measure_Master")
	for i, h := range []string{"施策ID", "親案件ID", "施策名", "開始日", "WBS リンク", "WBS シート名", "実進捗", "備考"} {
		s.Set(1, 1+i, h)
	}
	for i, m := range report.Measures {
		row := 2 + i
		s.Set(row, 1, m.ID)
		s.Set(row, 2, m.Case)
		s.Set(row, 3, m.Name)
		s.Set(row, 4, m.Start)
		s.Set(row, 6, m.Sheet)
		s.SetFormula(row, 5, fmt.Sprintf(`HYPERLINK("#'" & F%d & "'!A1", "WBSを開く")`, row))
		s.SetFormula(row, 7, fmt.Sprintf(`IF(F%d="","",IFERROR(INDIRECT("'" & F%d & "'!J2"),"未リンク"))`, row, row))
	}

	s.Validations = []model.DataValidation{{
		Type: "list", ShowDropDown: true,
		ShowErrorMessage: true, ShowInputMessage: true,
		ErrorStyle: "stop", ErrorTitle: "入力エラー", Error: "リスト外の値は入力できません",
		PromptTitle: "案件IDの選択", Prompt: "プルダウンから案件IDを選択してください",
		Sqref: "B2:B104", Formula1: "CaseIds",
	}}

	s.Unlocked = []model.Span{
		{R1: 2, C1: 1, R2: 104, C2: 4},
		{R1: 2, C1: 6, R2: 104, C2: 6},
		{R1: 2, C1: 8, R2: 104, C2: 8},
	}
	s.Protection = sheetProtection(hash, false)
	return s
}

// kanbanSheet renders To Do / Doing / Done card columns from the spoke
// sheet selected in B2. Only the selector is editable.
func kanbanSheet(hash string) *model.Sheet {
	s := model.NewSheet("Kanban_View")
	s.Set(1, 1, "施策を選択")
	s.Set(1, 2, "WBS シート名")
	s.Set(2, 2, "PRJ_001")
	s.Set(4, 2, "To Do")
	s.Set(4, 4, "Doing")
	s.Set(4, 6, "Done")

	card := func(status string) string {
		return `IF($B$2="","",IFERROR(LET(_s,$B$2,_tasks,INDIRECT("'"&_s&"'!B5:B104"),` +
			`_owners,INDIRECT("'"&_s&"'!C5:C104"),_due,INDIRECT("'"&_s&"'!F5:F104"),` +
			`_status,INDIRECT("'"&_s&"'!H5:H104"),_filtered,FILTER(HSTACK(_tasks,_owners,_due),_status="` + status + `"),` +
			`MAP(INDEX(_filtered,,1),INDEX(_filtered,,2),INDEX(_filtered,,3),LAMBDA(t,o,d,t&CHAR(10)&o&CHAR(10)&TEXT(d,"yyyy-mm-dd"))))),"選択したWBSシートが見つかりません"))`
	}
	s.SetFormula(5, 2, card("未着手"))
	s.SetFormula(5, 4, card("進行中"))
	s.SetFormula(5, 6, card("完了"))

	s.Validations = []model.DataValidation{{
		Type: "list", AllowBlank: true, ShowDropDown: true,
		ShowErrorMessage: true, ShowInputMessage: true,
		ErrorStyle: "stop", ErrorTitle: "入力エラー", Error: "リスト外の値は入力できません",
		PromptTitle: "WBS シート名の選択", Prompt: "プルダウンから施策の WBS シート名を選択してください",
		Sqref: "B2", Formula1: "Measure_Master!$F$2:$F$20",
	}}

	s.Unlocked = []model.Span{{R1: 2, C1: 2, R2: 2, C2: 2}}
	s.Protection = sheetProtection(hash, false)
	return s
}

func definedNames() []model.NamedRange {
	return []model.NamedRange{
		{Name: "CaseIds", Sheet: "Case_Master", Ref: "$A$2:$A$100"},
		{Name: "MeasureList", Sheet: "Measure_Master", Ref: "$A$2:$H$104"},
		{Name: "CaseDrilldownArea", Sheet: "Case_Master", Ref: "$G$3:$N$104"},
	}
}
