// Package status defines the error taxonomy of the boundary and its collapse
// into the integer status codes returned to native callers.
package status

import "errors"

// Code is the integer status returned across the C boundary.
type Code int32

const (
	// OK means every output of the call is valid and owned by the caller.
	OK Code = 0
	// Failure means no output was produced and nothing must be released.
	Failure Code = -1
)

var (
	ErrInvalidInput   = errors.New("boundary: invalid input")
	ErrNotInitialized = errors.New("boundary: pipeline not initialised")
	ErrModelLoad      = errors.New("boundary: model load failed")
	ErrInference      = errors.New("boundary: inference failed")
	ErrEncoding       = errors.New("boundary: text not representable")
)

// FromError maps err to a boundary status. Every failure category collapses
// to Failure; the richer error is only visible in logs and telemetry.
func FromError(err error) Code {
	if err == nil {
		return OK
	}
	return Failure
}

// Kind returns a short label for err, used as a metrics label and log field.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrModelLoad):
		return "model_load"
	case errors.Is(err, ErrInference):
		return "inference"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	default:
		return "internal"
	}
}
