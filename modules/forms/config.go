package forms

// Config holds form-handling settings loaded from the environment.
type Config struct {
	// NotifyEmail receives the admin notification for every submission.
	NotifyEmail string `env:"FORMS_NOTIFY_EMAIL,required"`

	// AllowedOrigins is the CORS allow-list shared by all form
	// endpoints. Empty means same-origin only.
	AllowedOrigins []string `env:"FORMS_ALLOWED_ORIGINS" envSeparator:","`

	// Per-form sender token overrides. Empty values fall back to the
	// shared Postmark server token.
	ContactToken    string `env:"POSTMARK_SERVER_TOKEN_CONTACT"`
	DemoToken       string `env:"POSTMARK_SERVER_TOKEN_DEMO"`
	NewsletterToken string `env:"POSTMARK_SERVER_TOKEN_NEWSLETTER"`
}

// SenderTokens maps each form to its token override, skipping forms
// without one so callers can fall back to the shared sender.
func (c Config) SenderTokens() map[FormType]string {
	tokens := make(map[FormType]string, 3)
	if c.ContactToken != "" {
		tokens[FormContact] = c.ContactToken
	}
	if c.DemoToken != "" {
		tokens[FormDemo] = c.DemoToken
	}
	if c.NewsletterToken != "" {
		tokens[FormNewsletter] = c.NewsletterToken
	}
	return tokens
}
