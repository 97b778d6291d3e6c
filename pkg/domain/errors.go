package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionSubmitted is returned when a finished session receives more navigation.
	ErrSessionSubmitted = errors.New("session already submitted")

	// ErrDescriptionNotFound is returned by a ConfigSource that has nothing at the requested path.
	ErrDescriptionNotFound = errors.New("description not found")

	// ErrSourceNotFound is returned when a holder selects a ConfigSource index that does not exist.
	ErrSourceNotFound = errors.New("config source not found")

	// ErrNoMaterializer is returned when a holder was built without a loader.
	ErrNoMaterializer = errors.New("holder has no loader")
)

// LoadError reports that a ConfigSource could not fetch or parse a description.
type LoadError struct {
	Path   string
	Source int
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q (source %d): %v", e.Path, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConstructionError reports a structurally invalid description.
type ConstructionError struct {
	Path   string
	Node   string
	Reason string
}

func (e *ConstructionError) Error() string {
	switch {
	case e.Path != "" && e.Node != "":
		return fmt.Sprintf("construct %q in %q: %s", e.Node, e.Path, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("construct %q: %s", e.Path, e.Reason)
	case e.Node != "":
		return fmt.Sprintf("construct node %q: %s", e.Node, e.Reason)
	default:
		return "construct: " + e.Reason
	}
}

// InvariantViolation is the panic value used when the engine detects its own bug.
type InvariantViolation struct {
	Node   string
	Detail string
}

func (v InvariantViolation) Error() string {
	if v.Node == "" {
		return "invariant violation: " + v.Detail
	}
	return fmt.Sprintf("invariant violation at %q: %s", v.Node, v.Detail)
}
