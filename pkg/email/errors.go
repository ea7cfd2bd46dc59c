package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email: failed to send")
	ErrInvalidConfig     = errors.New("email: invalid configuration")
	ErrInvalidParams     = errors.New("email: invalid send parameters")
)
