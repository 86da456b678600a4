package directive

import "fmt"

// LookupError is an external lookup failure, e.g. an oEmbed that could not
// be resolved. Link directives recover from it with a plain anchor.
type LookupError struct {
	URL string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.URL, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// SerializeError is a directive-level type failure for a single value.
type SerializeError struct {
	Message string
}

func (e *SerializeError) Error() string {
	return e.Message
}
