package crypto

import "fmt"

// SighashError is returned when a transparent sighash cannot be computed.
type SighashError struct {
	InputIndex int    // Index of the input that caused the error, -1 if none
	Message    string // Human-readable error message
}

func (e *SighashError) Error() string {
	return fmt.Sprintf("sighash error at input %d: %s", e.InputIndex, e.Message)
}

// SignatureError is returned when a signature cannot be produced.
type SignatureError struct {
	Scheme  string // "redjubjub" or "ecdsa"
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *SignatureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s signature error: %s: %v", e.Scheme, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s signature error: %s", e.Scheme, e.Message)
}

func (e *SignatureError) Unwrap() error {
	return e.Cause
}
