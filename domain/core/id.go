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
	RunID      ID
	TargetID   ID
	MoleculeID ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id TargetID) String() string   { return ID(id).String() }
func (id MoleculeID) String() string { return ID(id).String() }

// NewRunID creates a fresh, time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseTargetID parses a ChEMBL target identifier such as CHEMBL204.
// Surrounding whitespace is trimmed and the prefix is upper-cased.
func ParseTargetID(s string) (TargetID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyTarget
	}
	if len(s) > 6 && strings.EqualFold(s[:6], "chembl") {
		s = "CHEMBL" + s[6:]
	}
	if strings.ContainsAny(s, " \t/?&") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return TargetID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
