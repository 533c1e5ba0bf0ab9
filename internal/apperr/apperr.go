// Package apperr defines the error taxonomy shared by all workflow services.
// Controllers map these kinds onto HTTP statuses in one place; services never
// return raw gorm or context errors to callers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind sentinels. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrTimeout          = errors.New("timeout")
)

// Error carries a kind sentinel plus a human-readable message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...interface{}) error {
	return &Error{Kind: ErrPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Timeout(format string, args ...interface{}) error {
	return &Error{Kind: ErrTimeout, Message: fmt.Sprintf(format, args...)}
}

// FromContext converts a context cancellation into a Timeout error, so remote
// calls surface as retryable timeouts instead of opaque internal failures.
func FromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout("operation exceeded its deadline")
	}
	return err
}

// Step records the outcome of one sub-operation inside a cascade or batch.
type Step struct {
	Name string
	Err  error
}

// PartialFailure is returned when a multi-step operation completed some but
// not all of its steps. The manifest enumerates every step so the caller can
// see exactly what succeeded and what must be retried.
type PartialFailure struct {
	Op    string
	Steps []Step
}

func (p *PartialFailure) Error() string {
	var failed []string
	for _, s := range p.Steps {
		if s.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name, s.Err))
		}
	}
	return fmt.Sprintf("%s partially failed (%d/%d steps): %s",
		p.Op, len(failed), len(p.Steps), strings.Join(failed, "; "))
}

// Failed reports whether any step in the manifest failed.
func (p *PartialFailure) Failed() bool {
	for _, s := range p.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// FailedSteps returns the names of the steps that did not complete.
func (p *PartialFailure) FailedSteps() []string {
	var names []string
	for _, s := range p.Steps {
		if s.Err != nil {
			names = append(names, s.Name)
		}
	}
	return names
}
