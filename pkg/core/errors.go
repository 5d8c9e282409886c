package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing is matched by every MissingReferenceError.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrDuplicateSpawn marks a detection for a marker that already has content.
	ErrDuplicateSpawn = errors.New("duplicate spawn")
	// ErrNoActiveSession is returned when restarting with no ball bound.
	ErrNoActiveSession = errors.New("no active session")
)

// MissingReferenceError reports an unassigned required reference.
type MissingReferenceError struct {
	Component string
	Reference string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s: %s not assigned", e.Component, e.Reference)
}

func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrConfigurationMissing
}

// Missing is shorthand for a MissingReferenceError.
func Missing(component, reference string) error {
	return &MissingReferenceError{Component: component, Reference: reference}
}
