package dictionary

import "fmt"

// ResolutionError reports that the dictionary could not be queried for an
// expression. It is not returned when the expression simply has no entry.
type ResolutionError struct {
	Expression string
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("dictionary lookup %q: %v", e.Expression, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
