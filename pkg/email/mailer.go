package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// emailRegex mirrors the shape the submission forms validate against.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailSender sends a single transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outbound email.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	BodyText string `json:"body_text,omitempty"` // plain-text alternative
	Tag      string `json:"tag,omitempty"`
}

// Validate checks that the params describe a sendable email.
func (p SendEmailParams) Validate() error {
	if strings.TrimSpace(p.SendTo) == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if !emailRegex.MatchString(strings.TrimSpace(p.SendTo)) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" && p.BodyText == "" {
		return fmt.Errorf("%w: a body is required", ErrInvalidParams)
	}
	return nil
}
