package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingProject is returned when no project name was supplied
	ErrMissingProject = errors.New("missing repo name")

	// ErrNoSpec is returned when no spec file could be found for a project
	ErrNoSpec = errors.New("no specfile found for project")
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrSpecParse ErrorType = iota
	ErrFetch
	ErrStore
	ErrNotify
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrSpecParse:
		return "SpecParse"
	case ErrFetch:
		return "Fetch"
	case ErrStore:
		return "Store"
	case ErrNotify:
		return "Notify"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// AdvisorError represents an error while checking a project
type AdvisorError struct {
	Type    ErrorType
	Project string
	Err     error
}

// Error implements the error interface
func (e *AdvisorError) Error() string {
	if e.Project != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Project, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *AdvisorError) Unwrap() error {
	return e.Err
}
