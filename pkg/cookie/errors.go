package cookie

import "errors"

var (
	// ErrNotFound indicates the request carries no cookie by that name.
	ErrNotFound = errors.New("cookie: not found")

	// ErrSecretRequired indicates a signed operation on a Manager built
	// without a secret.
	ErrSecretRequired = errors.New("cookie: signing secret required")

	// ErrInvalidSignature indicates a signed cookie failed verification.
	ErrInvalidSignature = errors.New("cookie: invalid signature")
)
