package coursegen

import "fmt"

// RemoteCallError wraps a network or API failure talking to the LLM
// provider. It is never retried; the request layer maps it to a 5xx.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call failed (%s): %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// ExtractionError reports that no parseable JSON object could be recovered
// from the model's reply. Reason is "empty" when the candidate text was
// zero-length, or "parse-failed" with the parser's byte offset and a bounded
// snippet around it for diagnostics.
type ExtractionError struct {
	Reason   string
	Position int
	Snippet  string
}

func (e *ExtractionError) Error() string {
	if e.Reason == "parse-failed" {
		return fmt.Sprintf("extraction failed: %s at offset %d near %q", e.Reason, e.Position, e.Snippet)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

// ValidationError reports a structurally invalid top-level document. Only
// two conditions are fatal: a missing/empty title, or a lessons field that
// is neither absent nor an array. Everything else is repaired in place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid course document: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown course id.
type NotFoundError struct {
	CourseID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("course not found: %s", e.CourseID)
}
