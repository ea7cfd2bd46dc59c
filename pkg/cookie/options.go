package cookie

import "net/http"

// Option configures a Manager.
type Option func(*Manager)

// WithSecret enables the signed cookie variants.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if secret != "" {
			m.secret = []byte(secret)
		}
	}
}

// WithPath sets the cookie path. Defaults to "/".
func WithPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) { m.domain = domain }
}

// WithMaxAge sets Max-Age in seconds. Zero means a session cookie.
func WithMaxAge(seconds int) Option {
	return func(m *Manager) { m.maxAge = seconds }
}

// WithSecure marks cookies as HTTPS-only.
func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithHTTPOnly controls script access. Defaults to true.
func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) { m.httpOnly = httpOnly }
}

// WithSameSite sets the SameSite policy. Defaults to Lax.
func WithSameSite(mode http.SameSite) Option {
	return func(m *Manager) {
		if mode != 0 {
			m.sameSite = mode
		}
	}
}
