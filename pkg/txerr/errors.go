// Package txerr defines the error taxonomy of transaction construction.
//
// Every failure that aborts a build is reported as an *Error carrying a Kind.
// Callers branch on the kind with errors.Is against the sentinels below, or
// with KindOf:
//
//	if errors.Is(err, txerr.ErrInsufficientFunds) { ... }
package txerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of build failure.
type Kind string

// Error kinds.
const (
	InsufficientFunds      Kind = "INSUFFICIENT_FUNDS"       // inputs do not cover outputs + fee
	InvalidMerklePath      Kind = "INVALID_MERKLE_PATH"      // witness path has the wrong depth
	ProofGenerationFailure Kind = "PROOF_GENERATION_FAILURE" // prover failed or returned inconsistent data
	SmallOrderPoint        Kind = "SMALL_ORDER_POINT"        // cv, rk or epk has small order
	SerializationFailure   Kind = "SERIALIZATION_FAILURE"    // transaction could not be encoded
	UnsupportedOperation   Kind = "UNSUPPORTED_OPERATION"    // feature or height not supported
	InvalidInput           Kind = "INVALID_INPUT"            // malformed builder input
	InvalidState           Kind = "INVALID_STATE"            // builder used out of order or reused
	SigningFailure         Kind = "SIGNING_FAILURE"          // a signature could not be produced or verified
)

// Error is a build failure.
type Error struct {
	Kind    Kind   // Failure class
	Stage   string // Builder stage in which the failure occurred, if known
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Kind)
	if e.Stage != "" {
		prefix = fmt.Sprintf("[%s] %s", e.Kind, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is.
var (
	ErrInsufficientFunds      = &Error{Kind: InsufficientFunds}
	ErrInvalidMerklePath      = &Error{Kind: InvalidMerklePath}
	ErrProofGenerationFailure = &Error{Kind: ProofGenerationFailure}
	ErrSmallOrderPoint        = &Error{Kind: SmallOrderPoint}
	ErrSerializationFailure   = &Error{Kind: SerializationFailure}
	ErrUnsupportedOperation   = &Error{Kind: UnsupportedOperation}
	ErrInvalidInput           = &Error{Kind: InvalidInput}
	ErrInvalidState           = &Error{Kind: InvalidState}
	ErrSigningFailure         = &Error{Kind: SigningFailure}
)

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind caused by err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithStage sets the stage of err if it is an *Error without one, and wraps
// any other error as kind.
func WithStage(err error, stage string, kind Kind) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Stage == "" {
			e.Stage = stage
		}
		return err
	}
	return &Error{Kind: kind, Stage: stage, Message: "unexpected failure", Cause: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
