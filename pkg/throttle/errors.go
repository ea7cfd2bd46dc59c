package throttle

import "errors"

var (
	// ErrStorageRequired indicates that no storage backend was provided.
	ErrStorageRequired = errors.New("throttle storage is required")

	// ErrInvalidConfig indicates a non-positive cap or window.
	ErrInvalidConfig = errors.New("invalid throttle configuration")
)
