package internal

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// MissingColumnError reports a required column absent from an input table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table: missing required column %q", e.Table, e.Column)
}

// MalformedValueError reports a value that has no textual representation.
// Callers recover from it by treating the value as empty.
type MalformedValueError struct {
	Type string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("cannot coerce value of type %s to text", e.Type)
}

var (
	ErrPendingUnresolved = errors.New("pending matches are not resolved")
	ErrUnknownSelection  = errors.New("unknown selection")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session is not open")
)
