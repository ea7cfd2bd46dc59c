package turnstile

import "errors"

var (
	// ErrMissingSecret indicates that no verification secret is configured.
	ErrMissingSecret = errors.New("turnstile secret is required")

	// ErrMissingToken indicates that the submission carried no challenge token.
	ErrMissingToken = errors.New("challenge token is missing")

	// ErrVerificationFailed indicates that the provider rejected the token.
	ErrVerificationFailed = errors.New("challenge verification failed")

	// ErrUnavailable indicates that the provider could not be reached or
	// answered with a server error before the timeout.
	ErrUnavailable = errors.New("challenge verification unavailable")
)
