package expand

import "fmt"

// ExpansionError reports an invalid spoke count or a template that cannot
// be expanded into well-formed sheets.
type ExpansionError struct {
	Sheet  string
	Count  int
	Reason string
}

func (e *ExpansionError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("expansion of %q failed: %s", e.Sheet, e.Reason)
	}
	return fmt.Sprintf("expansion failed (count %d): %s", e.Count, e.Reason)
}
