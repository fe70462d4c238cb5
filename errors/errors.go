// Package errors provides the typed error taxonomy for the conflict kit.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, machine-readable classification of a failure.
type ErrorCode string

const (
	// ErrCodeFetchFailed means the backing store was unreachable or
	// returned a transport-level failure.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"

	// ErrCodeNotFound means the record no longer exists.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePermissionDenied means read access to the record was revoked.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeGeneral is the unclassified fallback.
	ErrCodeGeneral ErrorCode = "GENERAL_ERROR"
)

// Operation identifies which detector operation a failure occurred in.
type Operation string

const (
	OpInitialize     Operation = "initialize"
	OpCheck          Operation = "check"
	OpUpdateSnapshot Operation = "update_snapshot"
	OpFetch          Operation = "fetch"
	OpPoll           Operation = "poll"
	OpLog            Operation = "log"
	OpClose          Operation = "close"
)

// ErrDisposed is returned by every public operation invoked on a disposed
// detector. Teardown in arbitrary order is expected; callers compare with
// errors.Is rather than crashing.
var ErrDisposed = errors.New("detector is disposed")

// ErrNotInitialized is returned when a detection operation runs before
// Initialize has captured a baseline snapshot.
var ErrNotInitialized = errors.New("detector is not initialized")

// DetectError is a failure during conflict detection. It carries a stable
// code plus optional structured context, and is the only error type the
// public detector API returns for backing-store failures.
type DetectError struct {
	// Op is the operation during which the error occurred.
	Op Operation

	// Component that generated the error (e.g. "fetcher", "detector").
	Component string

	// Code classifies the failure.
	Code ErrorCode

	// Err is the underlying cause.
	Err error

	// Retryable reports whether a later attempt may succeed.
	Retryable bool

	// Metadata carries additional structured context.
	Metadata map[string]interface{}
}

func (e *DetectError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}

	return msg
}

func (e *DetectError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a transport-level fetch failure. Fetch failures are
// transient by assumption, so they are retryable.
func NewFetchError(op Operation, cause error) *DetectError {
	return &DetectError{
		Code:      ErrCodeFetchFailed,
		Op:        op,
		Component: "fetcher",
		Err:       cause,
		Retryable: true,
	}
}

// NewNotFoundError creates a record-deleted failure.
func NewNotFoundError(op Operation, cause error) *DetectError {
	return &DetectError{
		Code:      ErrCodeNotFound,
		Op:        op,
		Component: "fetcher",
		Err:       cause,
		Retryable: false,
	}
}

// NewPermissionError creates an access-revoked failure.
func NewPermissionError(op Operation, cause error) *DetectError {
	return &DetectError{
		Code:      ErrCodePermissionDenied,
		Op:        op,
		Component: "fetcher",
		Err:       cause,
		Retryable: false,
	}
}

// New creates an unclassified DetectError.
func New(op Operation, err error) *DetectError {
	return &DetectError{
		Code: ErrCodeGeneral,
		Op:   op,
		Err:  err,
	}
}

// NewWithComponent creates an unclassified DetectError with component
// information.
func NewWithComponent(op Operation, component string, err error) *DetectError {
	return &DetectError{
		Code:      ErrCodeGeneral,
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// IsRetryable checks if an error is a retryable DetectError.
func IsRetryable(err error) bool {
	var de *DetectError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// CodeOf extracts the error code, returning ErrCodeGeneral for errors that
// are not DetectErrors.
func CodeOf(err error) ErrorCode {
	var de *DetectError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeGeneral
}

// IsNotFound checks for the NOT_FOUND code.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsPermissionDenied checks for the PERMISSION_DENIED code.
func IsPermissionDenied(err error) bool {
	return CodeOf(err) == ErrCodePermissionDenied
}
