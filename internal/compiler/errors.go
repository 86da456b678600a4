package compiler

import "fmt"

// SyntaxError reports malformed template markup with its source position.
type SyntaxError struct {
	// File is the template path when parsed via FromFile.
	File    string
	Line    int
	Column  int
	Message string

	// Err is the underlying failure, if any.
	Err error
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	if e.Err != nil {
		return fmt.Sprintf("bad template syntax: %s: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("bad template syntax: %s: %s", loc, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
