package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrStorage wraps any failure of the backing store. It is never used for
	// "no such row"; lookups report that as a nil result.
	ErrStorage = errors.New("storage error")

	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrEmailMismatch      = errors.New("invitation was issued to a different email")
	ErrAlreadyMember      = errors.New("user already has a membership")
)

// ValidationError lists rejected input fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
