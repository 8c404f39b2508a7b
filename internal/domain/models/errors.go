package models

import (
	"errors"
	"fmt"
)

// ErrInsufficientSignals is matched by errors.Is on every InsufficientSignalError.
var ErrInsufficientSignals = errors.New("insufficient regime signals")

// InsufficientSignalError means no regime signal was available for a run.
type InsufficientSignalError struct {
	Expected int
}

func (e *InsufficientSignalError) Error() string {
	return fmt.Sprintf("%s: 0 of %d available", ErrInsufficientSignals.Error(), e.Expected)
}

func (e *InsufficientSignalError) Is(target error) bool {
	return target == ErrInsufficientSignals
}

// ConfigurationError reports a malformed rule table. Fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// MissingComponentData is never returned to callers; the scorer renders it
// into the candidate's data gaps.
type MissingComponentData struct {
	Symbol    string
	Component string
}

func (e *MissingComponentData) Error() string {
	return fmt.Sprintf("%s: missing %s data", e.Symbol, e.Component)
}

// Gap is the data_gaps entry for the missing component.
func (e *MissingComponentData) Gap() string {
	return "missing:" + e.Component
}

// ErrRunNotFound is returned by audit lookups for an unknown run id.
var ErrRunNotFound = errors.New("ranking run not found")
