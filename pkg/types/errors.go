// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, caller-visible classification of an engine failure.
type ErrorKind string

const (
	ErrUnsupportedExtension  ErrorKind = "UnsupportedExtension"
	ErrUnsupportedConversion ErrorKind = "UnsupportedConversion"
	ErrPayloadTooLarge       ErrorKind = "PayloadTooLarge"
	ErrInvalidPdfInput       ErrorKind = "InvalidPdfInput"
	ErrInvalidPageRange      ErrorKind = "InvalidPageRange"
	ErrInvalidQuality        ErrorKind = "InvalidQuality"
	ErrInvalidRequest        ErrorKind = "InvalidRequest"
	ErrConversionTimeout     ErrorKind = "ConversionTimeout"
	ErrConversionToolFailure ErrorKind = "ConversionToolFailure"
	ErrOutputNotProduced     ErrorKind = "OutputNotProduced"
	ErrWorkspaceIO           ErrorKind = "WorkspaceIOError"
	ErrCanceled              ErrorKind = "Canceled"
	ErrBusy                  ErrorKind = "Busy"
)

// IsValidation reports whether k is raised before any external process runs.
func (k ErrorKind) IsValidation() bool {
	switch k {
	case ErrUnsupportedExtension, ErrUnsupportedConversion, ErrPayloadTooLarge,
		ErrInvalidPdfInput, ErrInvalidPageRange, ErrInvalidQuality, ErrInvalidRequest:
		return true
	}
	return false
}

// Error carries an ErrorKind, a human-readable detail safe to show callers,
// and an optional wrapped cause that is only ever logged.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted detail.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError builds an *Error around cause.
func WrapError(kind ErrorKind, cause error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

// KindOf returns the ErrorKind carried by err. Errors that carry no kind are
// reported as ConversionToolFailure so nothing unclassified reaches a caller.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrConversionToolFailure
}

// PublicDetail returns the caller-safe message for err. Tool-level kinds
// collapse to a generic message so internal paths and raw tool output never
// leave the engine.
func PublicDetail(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "conversion failed"
	}
	switch e.Kind {
	case ErrConversionToolFailure, ErrOutputNotProduced, ErrWorkspaceIO:
		return "conversion failed"
	case ErrConversionTimeout:
		return "conversion timed out"
	}
	return e.Detail
}
