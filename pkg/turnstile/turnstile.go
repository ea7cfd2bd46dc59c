// Package turnstile verifies Cloudflare Turnstile challenge tokens
// against the siteverify endpoint. The token is an opaque credential the
// browser widget issues after a (possibly invisible) challenge; it is
// redeemed here, server-side, with the account secret.
package turnstile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds verification settings. Endpoint is overridable for tests.
type Config struct {
	Secret   string        `env:"TURNSTILE_SECRET_KEY,required"`
	Endpoint string        `env:"TURNSTILE_ENDPOINT" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	Timeout  time.Duration `env:"TURNSTILE_TIMEOUT" envDefault:"5s"`
}

// Verifier validates challenge tokens.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type verifier struct {
	cfg    Config
	client *http.Client
}

// Option configures the verifier.
type Option func(*verifier)

// WithHTTPClient overrides the HTTP client. The configured timeout still
// bounds each verification call.
func WithHTTPClient(c *http.Client) Option {
	return func(v *verifier) {
		if c != nil {
			v.client = c
		}
	}
}

// New creates a siteverify-backed Verifier.
func New(cfg Config, opts ...Option) (Verifier, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	v := &verifier{
		cfg:    cfg,
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

type siteverifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip,omitempty"`
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify redeems the token. It returns ErrMissingToken for an empty
// token, ErrVerificationFailed when the provider rejects it, and
// ErrUnavailable when the provider cannot be reached within the
// configured timeout.
func (v *verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(siteverifyRequest{
		Secret:   v.cfg.Secret,
		Response: token,
		RemoteIP: remoteIP,
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: siteverify returned %d", ErrUnavailable, resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	if !result.Success {
		if len(result.ErrorCodes) > 0 {
			return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(result.ErrorCodes, ", "))
		}
		return ErrVerificationFailed
	}
	return nil
}
