package model

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a question, user or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when creating a record that already exists.
	ErrDuplicate = errors.New("already exists")
)

// ValidationError reports missing or malformed request fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	return "invalid or missing fields: " + strings.Join(e.Fields, ", ")
}
