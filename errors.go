package authservice

import "errors"

var (
	// ErrUnauthenticated covers every way a caller can fail to prove
	// who they are: unknown email, wrong password, missing, expired
	// or forged access token, unknown refresh token. Callers get the
	// same error for all of them.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is known but not allowed: the
	// account is inactive or the required permission is missing.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned by lookups of users, roles and
	// permissions that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists rejects creation of a user, role or permission
	// whose unique attribute is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput rejects requests that fail validation before
	// touching any backend.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCreationFailed and ErrUpdateFailed wrap backend faults
	// during directory writes.
	ErrCreationFailed = errors.New("creation failed")
	ErrUpdateFailed   = errors.New("update failed")

	// ErrEngineClosed is returned by operations on an engine after
	// Close.
	ErrEngineClosed = errors.New("engine closed")
)
