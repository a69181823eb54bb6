package model

import "fmt"

// ValidationError reports a model invariant violation. Kind is "sheet",
// "cell" or "name"; Name identifies the offending element.
type ValidationError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Name, e.Reason)
}
