package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// Caller errors
	ErrNotFetched    = errors.New("bioactivities not yet fetched")
	ErrEmptyTarget   = errors.New("target identifier cannot be empty")
	ErrInvalidTarget = errors.New("invalid target identifier")

	// Policy errors
	ErrInvalidPolicy         = errors.New("invalid pipeline policy")
	ErrUnknownActivityColumn = errors.New("unknown activity column")
)

// NewValidationError reports a field that failed validation
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// NewPolicyError wraps ErrInvalidPolicy with the offending field
func NewPolicyError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidPolicy, field, reason)
}

// IsNotFetchedError reports whether err stems from reading data before fetching it
func IsNotFetchedError(err error) bool {
	return errors.Is(err, ErrNotFetched)
}

// IsPolicyError reports whether err is a policy misconfiguration
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrInvalidPolicy) || errors.Is(err, ErrUnknownActivityColumn)
}
