package adapter

import "errors"

var (
	// ErrUnauthorized is returned when the store rejects the access token.
	ErrUnauthorized = errors.New("client unauthorized")
	// ErrForbidden is returned when the token is valid but lacks access to
	// the path.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned for a missing blob or endpoint.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned when the store rejects the payload.
	ErrBadRequest = errors.New("bad request")
	// ErrInternalServerError is returned for 5xx responses.
	ErrInternalServerError = errors.New("internal server error")
	// ErrNetwork is returned when the store cannot be reached.
	ErrNetwork = errors.New("network error")
	// ErrSubscriptionClosed is returned when the change feed ends.
	ErrSubscriptionClosed = errors.New("subscription closed")
	// ErrUnsupportedBackend is returned by [NewRemoteStore] for an unknown
	// backend name.
	ErrUnsupportedBackend = errors.New("unsupported remote backend")
)
