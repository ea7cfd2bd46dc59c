package cookie

import "net/http"

// Config holds cookie settings loaded from the environment.
type Config struct {
	Secret   string `env:"COOKIE_SECRET"`
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string `env:"COOKIE_DOMAIN"`
	MaxAge   int    `env:"COOKIE_MAX_AGE" envDefault:"0"`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	HTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite int    `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = Lax
}

// NewFromConfig builds a Manager from environment configuration.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	base := []Option{
		WithSecret(cfg.Secret),
		WithPath(cfg.Path),
		WithDomain(cfg.Domain),
		WithMaxAge(cfg.MaxAge),
		WithSecure(cfg.Secure),
		WithHTTPOnly(cfg.HTTPOnly),
		WithSameSite(http.SameSite(cfg.SameSite)),
	}
	return New(append(base, opts...)...)
}
