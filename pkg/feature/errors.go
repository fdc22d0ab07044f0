package feature

import (
	"fmt"
	"strings"
)

// DiffKind classifies one entry of a schema mismatch diff
type DiffKind string

const (
	DiffMissing   DiffKind = "missing"   // block in schema, absent from output
	DiffExtra     DiffKind = "extra"     // block in output, absent from schema
	DiffReordered DiffKind = "reordered" // block name differs at this position
	DiffLength    DiffKind = "length"    // block length differs
)

// BlockDiff describes a single block-level disagreement with the schema
type BlockDiff struct {
	Name    string   `json:"name"`
	WantLen int      `json:"want_len"`
	GotLen  int      `json:"got_len"`
	Kind    DiffKind `json:"kind"`
}

// SchemaMismatch is returned when a vector's block layout disagrees with the
// persisted schema. It is fatal for that vector and never silently coerced:
// reinterpreting dimensions would corrupt every downstream distance.
type SchemaMismatch struct {
	Diffs []BlockDiff
}

func (e *SchemaMismatch) Error() string {
	parts := make([]string, 0, len(e.Diffs))
	for _, d := range e.Diffs {
		switch d.Kind {
		case DiffMissing:
			parts = append(parts, fmt.Sprintf("%s: missing (want length %d)", d.Name, d.WantLen))
		case DiffExtra:
			parts = append(parts, fmt.Sprintf("%s: unexpected block (length %d)", d.Name, d.GotLen))
		case DiffReordered:
			parts = append(parts, fmt.Sprintf("%s: out of order", d.Name))
		default:
			parts = append(parts, fmt.Sprintf("%s: length %d, want %d", d.Name, d.GotLen, d.WantLen))
		}
	}
	return "schema mismatch: " + strings.Join(parts, "; ")
}

// ExtractionError indicates the input audio is unusable: empty, too short,
// silent, or producing non-finite values after processing. Not retried.
type ExtractionError struct {
	Stage  string
	Reason string
	cause  error
}

// NewExtractionError builds an ExtractionError for the given pipeline stage
func NewExtractionError(stage, reason string, cause error) *ExtractionError {
	return &ExtractionError{Stage: stage, Reason: reason, cause: cause}
}

func (e *ExtractionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("extraction failed at %s: %s: %v", e.Stage, e.Reason, e.cause)
	}
	return fmt.Sprintf("extraction failed at %s: %s", e.Stage, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.cause }
