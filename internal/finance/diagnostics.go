package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means no source had data for the symbol or window.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData means data exists but is too short for the computation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUpstream means a remote collaborator failed or returned garbage.
	ErrUpstream = errors.New("upstream failure")

	// ErrInvalidInput means the caller passed arguments that can never succeed.
	ErrInvalidInput = errors.New("invalid input")
)

// DiagnosticKind classifies why a result carries no value.
type DiagnosticKind string

const (
	KindDataUnavailable  DiagnosticKind = "data_unavailable"
	KindInsufficientData DiagnosticKind = "insufficient_data"
	KindUpstreamFailure  DiagnosticKind = "upstream_failure"
	KindInvalidInput     DiagnosticKind = "invalid_input"
	// KindNoDrawdown accompanies a valid IER whose ratio is +Inf.
	KindNoDrawdown DiagnosticKind = "no_drawdown"
)

// Diagnostic is the human readable reason a metric produced no value.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

func (d *Diagnostic) Error() string { return d.Message }

func diag(kind DiagnosticKind, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// diagnosticFromErr maps a wrapped sentinel error onto a Diagnostic.
func diagnosticFromErr(err error) *Diagnostic {
	var d *Diagnostic
	switch {
	case err == nil:
		return nil
	case errors.As(err, &d):
		return d
	case errors.Is(err, ErrInsufficientData):
		return &Diagnostic{Kind: KindInsufficientData, Message: err.Error()}
	case errors.Is(err, ErrInvalidInput):
		return &Diagnostic{Kind: KindInvalidInput, Message: err.Error()}
	case errors.Is(err, ErrDataUnavailable):
		return &Diagnostic{Kind: KindDataUnavailable, Message: err.Error()}
	default:
		return &Diagnostic{Kind: KindUpstreamFailure, Message: err.Error()}
	}
}
