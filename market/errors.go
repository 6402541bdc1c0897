package market

import "net/http"

// Kind is the machine-readable error category. Handlers map kinds to HTTP
// status codes; clients use them to tell a retryable state error from a
// missing resource.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindState      Kind = "state"
	KindCredential Kind = "credential"
)

// Error is a domain error with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrMarketNotFound   = &Error{KindNotFound, "Market not found"}
	ErrNoVote           = &Error{KindNotFound, "No vote to remove"}
	ErrInvalidOutcome   = &Error{KindValidation, "Invalid outcome for this market"}
	ErrTooFewOutcomes   = &Error{KindValidation, "At least 2 outcomes required"}
	ErrMarketNotOpen    = &Error{KindState, "Market is not open for voting"}
	ErrNotOpen          = &Error{KindState, "Market is not open"}
	ErrAlreadyResolved  = &Error{KindState, "Market already resolved"}
	ErrNotCreator       = &Error{KindForbidden, "Only the market creator can do this"}
	ErrMissingIdentity  = &Error{KindValidation, "Moltbook key valid but no username returned"}
	ErrBadCredential    = &Error{KindCredential, "Invalid Moltbook key"}
)

// HTTPStatus maps an error kind to its response status code.
func HTTPStatus(err error) int {
	e, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindCredential:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
