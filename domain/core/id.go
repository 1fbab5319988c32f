package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	UserID        ID
	HypothesisID  ID
	ObservationID ID
	PatternID     ID
	EvidenceID    ID
)

// String conversions for domain IDs
func (id UserID) String() string        { return ID(id).String() }
func (id HypothesisID) String() string  { return ID(id).String() }
func (id ObservationID) String() string { return ID(id).String() }
func (id PatternID) String() string     { return ID(id).String() }
func (id EvidenceID) String() string    { return ID(id).String() }

// ParseUserID parses a string into UserID
func ParseUserID(s string) (UserID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	return UserID(s), nil
}

// ParseHypothesisID parses a string into HypothesisID
func ParseHypothesisID(s string) (HypothesisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("hypothesis ID cannot be empty")
	}
	return HypothesisID(s), nil
}

// ParseEvidenceID parses a string into EvidenceID
func ParseEvidenceID(s string) (EvidenceID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("evidence ID cannot be empty")
	}
	return EvidenceID(s), nil
}

// ParsePatternID parses a string into PatternID
func ParsePatternID(s string) (PatternID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("pattern ID cannot be empty")
	}
	return PatternID(s), nil
}
