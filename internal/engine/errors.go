package engine

import (
	"errors"
	"fmt"
	"strings"

	"fieldline/internal/repo"
)

// ValidationError reports a missing or malformed input field. No state has
// changed when it is returned. Reason, when set, describes what was wrong
// with a field that was present; absent fields leave it empty.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// NotFoundError reports that a referenced identity did not exist at call
// time. Kind distinguishes which record family was missing.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e NotFoundError) Error() string {
	if e.Ref == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
}

// ConflictError reports a transition whose precondition no longer holds.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string { return e.Reason }

// TransientError wraps datastore unavailability or lock contention. The
// whole transition is safe to retry from scratch.
type TransientError struct {
	Err error
}

func (e TransientError) Error() string { return "transient store error: " + e.Err.Error() }
func (e TransientError) Unwrap() error { return e.Err }

// classify wraps lock/busy driver errors as transient so callers can retry;
// everything else passes through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return TransientError{Err: err}
	}
	return err
}
