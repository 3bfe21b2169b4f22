package anki

import "fmt"

// ExportError reports that AnkiConnect was unreachable or rejected a request.
type ExportError struct {
	Action     string
	Expression string // set for addNote
	Err        error
}

func (e *ExportError) Error() string {
	if e.Expression != "" {
		return fmt.Sprintf("anki %s %q: %v", e.Action, e.Expression, e.Err)
	}
	return fmt.Sprintf("anki %s: %v", e.Action, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
