package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound            = errors.New("resource not found")
	ErrHypothesisNotFound  = fmt.Errorf("%w: hypothesis", ErrNotFound)
	ErrObservationNotFound = fmt.Errorf("%w: observation", ErrNotFound)
	ErrPatternNotFound     = fmt.Errorf("%w: pattern", ErrNotFound)

	// Analysis errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrStatDegenerate   = errors.New("degenerate statistical input")

	// Evidence errors
	ErrInvalidEvidence = errors.New("invalid evidence record")

	// Resolution errors
	ErrLabelResolution = errors.New("cycle label resolution failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInsufficientDataError(categoryKey string, occurrences, required int) error {
	return fmt.Errorf("%w: category %s has %d occurrences, need %d",
		ErrInsufficientData, categoryKey, occurrences, required)
}

func NewInvalidEvidenceError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvidence, reason)
}

func NewStatDegenerateError(analysis string, reason string) error {
	return fmt.Errorf("%w in %s: %s", ErrStatDegenerate, analysis, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsInvalidEvidenceError(err error) bool {
	return errors.Is(err, ErrInvalidEvidence)
}

func IsStatDegenerateError(err error) bool {
	return errors.Is(err, ErrStatDegenerate)
}
