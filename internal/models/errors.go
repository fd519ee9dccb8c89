package models

import "fmt"

// ErrorKind enumerates the error outcomes the query engine can surface, per
// spec.md section 7.
type ErrorKind string

const (
	InvalidInput      ErrorKind = "invalid_input"
	NoAccessStops     ErrorKind = "no_access_stops"
	NoEgressStops     ErrorKind = "no_egress_stops"
	NoJourneyFound    ErrorKind = "no_journey_found"
	Cancelled         ErrorKind = "cancelled"
	Timeout           ErrorKind = "timeout"
	InternalInvariant ErrorKind = "internal_invariant"

	// AdmissionRejected is not one of spec.md section 7's core error kinds;
	// it is surfaced by the query orchestrator's admission-control layer
	// before a query ever reaches the core.
	AdmissionRejected ErrorKind = "admission_rejected"
)

// QueryError wraps an ErrorKind with a human-readable message and, for
// InternalInvariant, the underlying cause.
type QueryError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewError builds a QueryError with no wrapped cause.
func NewError(kind ErrorKind, msg string) *QueryError {
	return &QueryError{Kind: kind, Msg: msg}
}

// WrapError builds a QueryError wrapping an underlying cause, in the
// teacher's fmt.Errorf("%w") idiom made explicit as a typed field so
// callers can switch on Kind without string matching.
func WrapError(kind ErrorKind, msg string, err error) *QueryError {
	return &QueryError{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is a *QueryError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	qe, ok := err.(*QueryError)
	return ok && qe.Kind == kind
}
