package audience

import "errors"

var (
	// ErrNotConfigured indicates a missing API key or audience ID.
	ErrNotConfigured = errors.New("audience: client is not configured")

	// ErrDuplicateContact indicates the email is already in the audience.
	ErrDuplicateContact = errors.New("audience: contact already exists")

	// ErrProvider wraps any other provider failure.
	ErrProvider = errors.New("audience: provider request failed")
)
