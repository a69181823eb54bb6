// Package expand clones a template sheet definition into numbered spoke
// sheets, rewriting self-referential formula placeholders.
package expand

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
	"github.com/tiendc/go-deepcopy"
	"github.com/xuri/efp"
)

// DefaultMaxSpokes bounds package size; Expand rejects larger counts.
const DefaultMaxSpokes = 200

// placeholderPattern matches the closed token grammar. Formula text is
// never built by free-form concatenation; only recognized {{TOKEN}}
// occurrences are rewritten, and an unrecognized token is an error.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_]+)\}\}`)

// SpokeName returns the deterministic zero-padded name of the i-th spoke,
// starting at 1: PRJ_001, PRJ_002, ...
func SpokeName(i int) string {
	return fmt.Sprintf("PRJ_%03d", i)
}

// Expand produces n structural clones of the template, named SpokeName(1)
// through SpokeName(n), each with its placeholders resolved against its
// own name. n = 0 yields an empty slice; n < 0 or n > max fails.
func Expand(tpl *model.Sheet, n, max int) ([]*model.Sheet, error) {
	if max <= 0 {
		max = DefaultMaxSpokes
	}
	if n < 0 {
		return nil, &ExpansionError{Count: n, Reason: "spoke count is negative"}
	}
	if n > max {
		return nil, &ExpansionError{Count: n, Reason: fmt.Sprintf("spoke count exceeds maximum %d", max)}
	}

	spokes := make([]*model.Sheet, 0, n)
	for i := 1; i <= n; i++ {
		var clone model.Sheet
		if err := deepcopy.Copy(&clone, tpl); err != nil {
			return nil, &ExpansionError{Sheet: tpl.Name, Reason: "clone failed: " + err.Error()}
		}
		clone.Name = SpokeName(i)
		if err := ResolveSelf(&clone); err != nil {
			return nil, err
		}
		spokes = append(spokes, &clone)
	}
	return spokes, nil
}

// ResolveSelf rewrites every formula placeholder on the sheet against the
// sheet's own name and verifies the resulting formula text still
// tokenizes. The template sheet itself goes through this too, so no
// workbook ever ships with an unresolved token.
func ResolveSelf(s *model.Sheet) error {
	tokens := map[string]string{"SELF": s.Name}
	for ref, cell := range s.Cells {
		if cell.Formula == "" {
			continue
		}
		resolved, err := substitute(cell.Formula, tokens)
		if err != nil {
			return &ExpansionError{Sheet: s.Name, Reason: fmt.Sprintf("cell %s: %v", ref.Name(), err)}
		}
		if resolved == cell.Formula {
			continue
		}
		if !wellFormed(resolved) {
			return &ExpansionError{Sheet: s.Name, Reason: fmt.Sprintf("cell %s: resolved formula does not tokenize: %s", ref.Name(), resolved)}
		}
		cell.Formula = resolved
		s.Cells[ref] = cell
	}
	return nil
}

func substitute(formula string, tokens map[string]string) (string, error) {
	var badToken string
	out := placeholderPattern.ReplaceAllStringFunc(formula, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := tokens[name]; ok {
			return v
		}
		badToken = name
		return m
	})
	if badToken != "" {
		return "", fmt.Errorf("unrecognized placeholder {{%s}}", badToken)
	}
	return out, nil
}

// wellFormed tokenizes the formula with the Excel formula parser and
// rejects unknown tokens and unbalanced function/subexpression nesting.
func wellFormed(formula string) bool {
	parser := efp.ExcelParser()
	depth := 0
	for _, tk := range parser.Parse(formula) {
		if tk.TType == efp.TokenTypeUnknown {
			return false
		}
		if tk.TType == efp.TokenTypeFunction || tk.TType == efp.TokenTypeSubexpression {
			switch tk.TSubType {
			case efp.TokenSubTypeStart:
				depth++
			case efp.TokenSubTypeStop:
				depth--
			}
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// HasPlaceholder reports whether any formula on the sheet still carries
// an unresolved token.
func HasPlaceholder(s *model.Sheet) bool {
	for _, cell := range s.Cells {
		if cell.Formula != "" && strings.Contains(cell.Formula, "{{") && placeholderPattern.MatchString(cell.Formula) {
			return true
		}
	}
	return false
}
