package relay

import (
	"fmt"
	"net/http"
)

// Kind classifies a relay error so the HTTP boundary can map it to a status
// code without inspecting message text.
type Kind int

const (
	// KindMissingParameter means the caller omitted a required parameter.
	KindMissingParameter Kind = iota
	// KindUnknownState means the callback's state matched no live ticket.
	KindUnknownState
	// KindNotFound means a poll found no bundle. This is an expected
	// outcome while the login is still in flight, not a fault.
	KindNotFound
	// KindUpstreamFailure means the provider's token endpoint answered
	// non-200; status and body are carried through verbatim.
	KindUpstreamFailure
	// KindInfrastructure means the store or the network failed.
	KindInfrastructure
)

// Error is a relay domain error. Status is the HTTP status the boundary
// should answer with; for upstream failures it is the provider's own status.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func errMissingParameter(name string) *Error {
	return &Error{
		Kind:    KindMissingParameter,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("missing required parameter: %s", name),
	}
}

func errUnknownState() *Error {
	return &Error{
		Kind:    KindUnknownState,
		Status:  http.StatusBadRequest,
		Message: "unknown or expired state",
	}
}

func errNotFound() *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: "token bundle not available",
	}
}

func errUpstream(status int, body []byte) *Error {
	return &Error{
		Kind:    KindUpstreamFailure,
		Status:  status,
		Message: string(body),
	}
}

func errInfrastructure(op string, cause error) *Error {
	return &Error{
		Kind:    KindInfrastructure,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", op, cause),
		cause:   cause,
	}
}
