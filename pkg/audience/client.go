// Package audience manages the newsletter subscriber list held by the
// email provider. It isolates the provider's conflict signalling behind
// a typed ErrDuplicateContact so callers never pattern-match provider
// error strings themselves.
package audience

import "context"

// Contact is one subscriber in the audience.
type Contact struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
}

// Client reads and extends the provider's audience.
type Client interface {
	// ListContacts returns every contact currently in the audience.
	ListContacts(ctx context.Context) ([]Contact, error)

	// CreateContact adds a subscribed contact. Returns
	// ErrDuplicateContact when the provider reports the email as
	// already present.
	CreateContact(ctx context.Context, email string) (Contact, error)
}
