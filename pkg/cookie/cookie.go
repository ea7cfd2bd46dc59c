// Package cookie provides a small cookie manager with optional HMAC
// signing. Signed cookies carry a tamper-evident signature so values
// like consent preferences cannot be forged client-side; they are not
// encrypted, so never store secrets in them.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

// Manager writes and reads cookies with a shared attribute policy.
type Manager struct {
	secret   []byte
	path     string
	domain   string
	maxAge   int
	secure   bool
	httpOnly bool
	sameSite http.SameSite
}

// New creates a Manager. A secret is only required for the signed
// variants.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) build(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}

// Set writes a plain cookie with the manager's attributes.
func (m *Manager) Set(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, m.build(name, value, m.maxAge))
}

// Get returns the cookie value, or ErrNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", ErrNotFound
	}
	return c.Value, nil
}

// Delete expires the cookie immediately.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.build(name, "", -1))
}

// SetSigned writes value alongside an HMAC-SHA256 signature. Requires a
// secret.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string) error {
	if len(m.secret) == 0 {
		return ErrSecretRequired
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	http.SetCookie(w, m.build(name, encoded+"."+m.sign(name, encoded), m.maxAge))
	return nil
}

// GetSigned returns the value of a signed cookie after verifying its
// signature. Tampered or unsigned values return ErrInvalidSignature.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrSecretRequired
	}
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	encoded, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrInvalidSignature
	}
	expected := m.sign(name, encoded)
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return "", ErrInvalidSignature
	}

	value, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return string(value), nil
}

// sign binds the signature to the cookie name so a valid value cannot
// be replayed under a different name.
func (m *Manager) sign(name, encoded string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(name))
	mac.Write([]byte{'|'})
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
