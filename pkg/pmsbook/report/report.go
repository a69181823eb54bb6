package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// SampleScope states which spoke sheets received the sample dataset.
type SampleScope int

const (
	SampleNone SampleScope = iota
	SampleFirst
	SampleAll
)

func (s SampleScope) label() string {
	switch s {
	case SampleAll:
		return "全てのPRJに配置"
	case SampleFirst:
		return "最初の1枚に配置"
	default:
		return "なし"
	}
}

// Summary is everything the report renders: the build parameters plus the
// dataset the workbook was seeded with.
type Summary struct {
	SpokeCount  int
	Sample      SampleScope
	OutputPath  string
	GeneratedAt time.Time
	Tasks       []Task
}

const rule = "=================================================="
const thinRule = "--------------------------------------------------"

// Lines renders the Japanese build report. The output depends only on the
// summary fields, so a caller that fixes GeneratedAt gets identical text
// across runs.
func (s *Summary) Lines() []string {
	lines := []string{
		rule,
		"Modern Excel PMS 生成レポート",
		rule,
		"",
		"## 基本情報",
		"生成日時: " + s.GeneratedAt.Format("2006-01-02 15:04"),
		"ブック出力先: " + s.OutputPath,
		fmt.Sprintf("PRJ シート数: %d", s.SpokeCount),
		"サンプルデータ: " + s.Sample.label(),
	}

	if s.Sample != SampleNone {
		lines = append(lines, s.progressSection()...)
	}

	lines = append(lines,
		"",
		thinRule,
		"## マスターデータ",
		thinRule,
		"",
		"案件一覧:",
	)
	for _, c := range Cases {
		n := 0
		for _, m := range Measures {
			if m.Case == c.ID {
				n++
			}
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s (施策数: %d)", c.ID, c.Name, n))
	}

	lines = append(lines, "", "施策一覧:")
	for _, m := range Measures {
		lines = append(lines, fmt.Sprintf("  - %s (%s) %s", m.ID, m.Case, m.Name))
		lines = append(lines, fmt.Sprintf("      開始日: %s / WBS: %s", m.Start, m.Sheet))
	}

	lines = append(lines, "", "ステータス候補:")
	for _, st := range Statuses {
		lines = append(lines, "  - "+st)
	}

	lines = append(lines, "", "担当者マスタ:")
	for _, m := range Members {
		lines = append(lines, "  - "+m)
	}

	return append(lines, "", rule)
}

func (s *Summary) progressSection() []string {
	tasks := s.Tasks
	overall := WeightedProgress(tasks)
	totalEffort := 0
	doneEffort := 0.0
	for _, t := range tasks {
		totalEffort += t.Effort
		doneEffort += float64(t.Effort) * t.Progress
	}

	lines := []string{
		"",
		thinRule,
		"## 進捗サマリー (サンプルデータ)",
		thinRule,
		"",
		fmt.Sprintf("全体進捗率: %.1f%%", overall*100),
		fmt.Sprintf("  - 総工数: %d 人日", totalEffort),
		fmt.Sprintf("  - 消化工数: %.1f 人日", doneEffort),
		"",
		"ステータス別タスク数:",
	}

	counts := CountByStatus(tasks)
	for _, st := range Statuses {
		count := counts[st]
		pct := 0.0
		if len(tasks) > 0 {
			pct = float64(count) / float64(len(tasks)) * 100
		}
		bar := strings.Repeat("#", int(pct/5))
		lines = append(lines, fmt.Sprintf("  %s: %2d (%5.1f%%) %s", padRunes(st, 6), count, pct, bar))
	}

	completed := counts["完了"]
	lines = append(lines, "",
		fmt.Sprintf("タスク完了率: %d/%d (%.1f%%)", completed, len(tasks), float64(completed)/float64(len(tasks))*100))

	lines = append(lines, "", "施策別進捗:")
	for _, m := range Measures {
		if s.measureHasSample(m) {
			lines = append(lines, fmt.Sprintf("  - %s (%s): %.1f%%", m.ID, m.Name, overall*100))
		} else {
			lines = append(lines, fmt.Sprintf("  - %s (%s): -- (データなし)", m.ID, m.Name))
		}
	}

	effortByOwner := make(map[string]int)
	doneByOwner := make(map[string]float64)
	for _, t := range tasks {
		effortByOwner[t.Owner] += t.Effort
		doneByOwner[t.Owner] += float64(t.Effort) * t.Progress
	}
	owners := make([]string, 0, len(effortByOwner))
	for o := range effortByOwner {
		owners = append(owners, o)
	}
	sort.Strings(owners)

	lines = append(lines, "", "担当者別負荷:")
	for _, o := range owners {
		effort := effortByOwner[o]
		pct := 0.0
		if effort > 0 {
			pct = doneByOwner[o] / float64(effort) * 100
		}
		lines = append(lines, fmt.Sprintf("  - %s: %d 人日 (消化 %.1f%%)", o, effort, pct))
	}
	return lines
}

// measureHasSample reports whether a measure's spoke sheet was seeded.
// Only the first spoke carries data unless the sample scope is all.
func (s *Summary) measureHasSample(m Measure) bool {
	if s.Sample == SampleAll {
		for i := 1; i <= s.SpokeCount; i++ {
			if m.Sheet == fmt.Sprintf("PRJ_%03d", i) {
				return true
			}
		}
		return false
	}
	return m.Sheet == "PRJ_001" && s.SpokeCount >= 1
}

// padRunes left-justifies s in a field of width runes.
func padRunes(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// WriteText writes the report as UTF-8 text with a trailing newline.
func WriteText(lines []string, path string) error {
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
