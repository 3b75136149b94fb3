package errs

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Code is a check failure code.
type Code string

const (
	AssertionFailed   Code = "assertion_failed"
	Timeout           Code = "timeout"
	Navigation        Code = "navigation"
	PreconditionUnmet Code = "precondition_unmet"
	InvalidArgument   Code = "invalid_argument"
	Unavailable       Code = "unavailable"
	Internal          Code = "internal"
)

// Error is a coded error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// Assertf reports an expectation that did not hold.
func Assertf(format string, args ...any) error {
	return Newf(AssertionFailed, format, args...)
}

// Skip marks a check whose precondition (usually element presence) is unmet.
// The runner counts it as a vacuous pass.
func Skip(reason string) error {
	return New(PreconditionUnmet, reason)
}

// IsSkip reports whether err is a precondition skip.
func IsSkip(err error) bool {
	return err != nil && CodeOf(err) == PreconditionUnmet
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	return Internal
}

// MessageOf returns the coded message, or the raw error text for untyped errors.
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return err.Error()
}

// Classify gives untyped errors a code. Playwright timeouts become Timeout;
// already-coded errors keep their code.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Code != "" {
		return coded.Code
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return Timeout
	}
	return Internal
}

// IsInfrastructure reports codes that mean the page or browser misbehaved,
// as opposed to the page content not matching an expectation.
func IsInfrastructure(code Code) bool {
	switch code {
	case Timeout, Navigation, Unavailable:
		return true
	default:
		return false
	}
}
