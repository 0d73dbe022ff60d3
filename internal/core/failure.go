package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MissingName     FailureKind = "missing_name"
	MissingExpenses FailureKind = "missing_expenses"
	MalformedBatch  FailureKind = "malformed_batch"
)

// FailureKind classifies user-correctable submission problems.
type FailureKind string

// RowError pinpoints a rejected row. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ValidationFailure is returned for submissions the user can fix and resubmit.
// Callers map Kind to a message; Rows is only set for MalformedBatch.
type ValidationFailure struct {
	Kind    FailureKind
	Message string
	Rows    []RowError
}

func (f *ValidationFailure) Error() string {
	if len(f.Rows) == 0 {
		return f.Message
	}
	parts := make([]string, len(f.Rows))
	for i, r := range f.Rows {
		parts[i] = r.String()
	}
	return f.Message + ": " + strings.Join(parts, "; ")
}

func NewMissingName() *ValidationFailure {
	return &ValidationFailure{Kind: MissingName, Message: "You must include pet's name"}
}

func NewMissingExpenses() *ValidationFailure {
	return &ValidationFailure{Kind: MissingExpenses, Message: "You must submit your pet's expenses"}
}

func NewMalformedBatch(rows []RowError) *ValidationFailure {
	return &ValidationFailure{Kind: MalformedBatch, Message: "The expenses file has invalid rows", Rows: rows}
}

// AsValidationFailure unwraps err into a *ValidationFailure when it is one.
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}
