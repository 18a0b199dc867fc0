package attendance

import "errors"

var (
	// ErrInvalidCode covers both a wrong code and an unknown session; the
	// two cases are indistinguishable to the submitter on purpose.
	ErrInvalidCode = errors.New("invalid session code")

	// ErrSessionClosed is returned when the code matches but the session
	// was closed between notification and submission.
	ErrSessionClosed = errors.New("session is closed")

	// ErrAlreadySigned is returned for a second submission by the same
	// student; the first log stands untouched.
	ErrAlreadySigned = errors.New("attendance already signed for this session")

	// ErrSignatureMissing is returned when the student has no stored
	// signature; the caller must run the capture flow first. No log is
	// written.
	ErrSignatureMissing = errors.New("no signature on file")
)
