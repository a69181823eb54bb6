package opc

import "fmt"

// SerializationError reports a model that references a part the package
// cannot supply: a dangling range target, an out-of-range style, or a
// required macro blob that was never resolved.
type SerializationError struct {
	Part   string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s: %s", e.Part, e.Reason)
}

// PackagingIOError reports a filesystem or archive write failure. The
// output path is left untouched when it occurs.
type PackagingIOError struct {
	Path string
	Err  error
}

func (e *PackagingIOError) Error() string {
	return fmt.Sprintf("writing package %s: %v", e.Path, e.Err)
}

func (e *PackagingIOError) Unwrap() error { return e.Err }
