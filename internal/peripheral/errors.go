package peripheral

import "errors"

var (
	// ErrNotFound indicates the requested peripheral is not registered.
	ErrNotFound = errors.New("peripheral: not found")

	// ErrDuplicateID indicates an add for an id that is already
	// registered.
	ErrDuplicateID = errors.New("peripheral: duplicate id")

	// ErrUnknownKind indicates a configuration entry names a kind the
	// factory cannot build.
	ErrUnknownKind = errors.New("peripheral: unknown kind")

	// ErrUnreachable indicates the device endpoint could not be reached
	// or answered with a non-success status.
	ErrUnreachable = errors.New("peripheral: device unreachable")

	// ErrMalformedResponse indicates the device answered but the body
	// did not carry the expected field.
	ErrMalformedResponse = errors.New("peripheral: malformed device response")

	// ErrBadCommand indicates a command payload that cannot be applied,
	// either because the value is unusable or the device state needed to
	// compute it is unknown.
	ErrBadCommand = errors.New("peripheral: bad command")
)
