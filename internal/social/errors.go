package social

import "errors"

// Domain error taxonomy. The HTTP boundary maps each sentinel to a fixed
// status code; the core never builds responses itself.
var (
	// ErrNotFound covers absent records and records outside the caller's
	// scope. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrSelfFollow rejects a profile targeting itself with a follow toggle.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrDuplicateRegistration rejects registering an identity twice.
	ErrDuplicateRegistration = errors.New("identity already registered")

	// ErrValidation rejects malformed input fields.
	ErrValidation = errors.New("invalid input")
)
