package subset

import (
	"errors"
	"fmt"
)

// LinkErrorCode categorizes link errors.
type LinkErrorCode string

const (
	// ErrCodeMissingParent indicates no parent collection was supplied.
	ErrCodeMissingParent LinkErrorCode = "MISSING_PARENT"

	// ErrCodeParentDisposed indicates the parent was disposed, so no child
	// can be spawned from it or linked to it.
	ErrCodeParentDisposed LinkErrorCode = "PARENT_DISPOSED"

	// ErrCodeMissingChild indicates SetChild was given no collection.
	ErrCodeMissingChild LinkErrorCode = "MISSING_CHILD"

	// ErrCodeChildDisposed indicates the supplied child was disposed.
	ErrCodeChildDisposed LinkErrorCode = "CHILD_DISPOSED"

	// ErrCodeSubsetDisposed indicates a disposed subset was relinked.
	ErrCodeSubsetDisposed LinkErrorCode = "SUBSET_DISPOSED"

	// ErrCodeCycle indicates the link would make a collection its own
	// ancestor.
	ErrCodeCycle LinkErrorCode = "CYCLE"
)

// LinkError is returned when a subset cannot be constructed or relinked.
type LinkError struct {
	Code    LinkErrorCode
	Message string

	// Subset is the name the subset would have had.
	Subset string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	if e.Subset != "" {
		return fmt.Sprintf("%s: %s (subset=%s)", e.Code, e.Message, e.Subset)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// IsLinkError reports whether err is a LinkError with the given code.
// Uses errors.As to handle wrapped errors.
func IsLinkError(err error, code LinkErrorCode) bool {
	var le *LinkError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
