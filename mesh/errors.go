package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSection is returned when a required Gmsh section is absent or
	// never terminated
	ErrMissingSection = errors.New("missing section")
	// ErrVersionUnsupported is returned when the file format version is below
	// the minimum for the requested mode, or is a layout this reader does not parse
	ErrVersionUnsupported = errors.New("version unsupported")
	// ErrMalformedInput covers every content error: bad records, counts that
	// disagree, unknown vertex references, inconsistent shapes
	ErrMalformedInput = errors.New("malformed input")
)

// RecordError locates a malformed record in the source text
type RecordError struct {
	Section string // Section name without the leading $
	Line    int    // 1-based line number within the source
	Record  string
	Err     error
}

func (e *RecordError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("%s line %d: %v", e.Section, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d %q: %v", e.Section, e.Line, e.Record, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Malformed builds an error that matches ErrMalformedInput with errors.Is
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
