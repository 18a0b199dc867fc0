package session

import "errors"

var (
	// ErrAlreadyActive is returned when the issuer already owns an active
	// session; it must be closed before a new one can open.
	ErrAlreadyActive = errors.New("an active session already exists for this issuer")

	// ErrNotFound is returned when the session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrNotOwner is returned when a close is attempted by someone other
	// than the issuer who opened the session.
	ErrNotOwner = errors.New("session belongs to a different issuer")

	// ErrAlreadyClosed is returned for every close after the first;
	// closing is terminal and never reopens.
	ErrAlreadyClosed = errors.New("session already closed")

	// ErrCodeExhausted is returned when code generation keeps colliding
	// with active sessions after the bounded retry count.
	ErrCodeExhausted = errors.New("could not allocate a unique session code")
)
