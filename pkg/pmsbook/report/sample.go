// Package report carries the shared sample dataset and renders the
// build summary text that accompanies a generated workbook.
package report

// Fixtures shared between sheet seeding and report generation.
var (
	Holidays = []string{"2024-01-01", "2024-02-12", "2024-04-29", "2024-05-03", "2024-05-04", "2024-05-05"}
	Members  = []string{"PM_佐藤", "TL_田中", "DEV_鈴木", "QA_伊藤"}
	Statuses = []string{"未着手", "進行中", "遅延", "完了"}
)

// Case is one row of the case master.
type Case struct {
	ID   string
	Name string
}

// Measure is one row of the measure master. Sheet names the spoke sheet
// that tracks the measure's tasks.
type Measure struct {
	ID    string
	Case  string
	Name  string
	Start string
	Sheet string
}

var Cases = []Case{
	{ID: "CASE-001", Name: "Web 刷新案件"},
	{ID: "CASE-002", Name: "新規 SFA 導入"},
}

var Measures = []Measure{
	{ID: "ME-001", Case: "CASE-001", Name: "LP 改修", Start: "2024-05-07", Sheet: "PRJ_001"},
	{ID: "ME-002", Case: "CASE-002", Name: "SFA 導入 PoC", Start: "2024-05-13", Sheet: "PRJ_002"},
}

// Task is one sample WBS row. Progress runs 0.0 to 1.0.
type Task struct {
	Lv       int
	Name     string
	Owner    string
	Start    string
	Effort   int
	Progress float64
}

// Status derives the status label from the progress value.
func (t Task) Status() string {
	switch {
	case t.Progress >= 1.0:
		return "完了"
	case t.Progress > 0:
		return "進行中"
	default:
		return "未着手"
	}
}

// SampleTasks is the seed dataset placed on spoke sheets.
var SampleTasks = []Task{
	{Lv: 1, Name: "キックオフ準備", Owner: "PM_佐藤", Start: "2024-05-07", Effort: 2, Progress: 1.0},
	{Lv: 2, Name: "要件定義ワークショップ", Owner: "TL_田中", Start: "2024-05-09", Effort: 3, Progress: 0.5},
	{Lv: 2, Name: "WBS 詳細化", Owner: "DEV_鈴木", Start: "2024-05-13", Effort: 5, Progress: 0.0},
}

// WeightedProgress is the effort-weighted mean progress over tasks.
// Zero total effort yields zero rather than dividing by it.
func WeightedProgress(tasks []Task) float64 {
	total := 0
	done := 0.0
	for _, t := range tasks {
		total += t.Effort
		done += float64(t.Effort) * t.Progress
	}
	if total == 0 {
		return 0
	}
	return done / float64(total)
}

// CountByStatus tallies tasks per status label. Every known status gets
// an entry even when its count is zero.
func CountByStatus(tasks []Task) map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, t := range tasks {
		if _, ok := counts[t.Status()]; ok {
			counts[t.Status()]++
		}
	}
	return counts
}
