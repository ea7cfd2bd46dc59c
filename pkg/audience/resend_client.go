package audience

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds audience API settings. The wire shape follows Resend's
// audiences API; Endpoint is overridable for tests.
type Config struct {
	APIKey     string        `env:"RESEND_API_KEY"`
	AudienceID string        `env:"RESEND_AUDIENCE_ID"`
	Endpoint   string        `env:"RESEND_ENDPOINT" envDefault:"https://api.resend.com"`
	Timeout    time.Duration `env:"RESEND_TIMEOUT" envDefault:"10s"`
}

type resendClient struct {
	cfg    Config
	client *http.Client
}

// Option configures the client.
type Option func(*resendClient)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(rc *resendClient) {
		if c != nil {
			rc.client = c
		}
	}
}

// New creates an audience client. Both the API key and the audience ID
// are required; the newsletter handler maps ErrNotConfigured to a 500
// before contacting the provider.
func New(cfg Config, opts ...Option) (Client, error) {
	if cfg.APIKey == "" || cfg.AudienceID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.resend.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	rc := &resendClient{
		cfg:    cfg,
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc, nil
}

type listResponse struct {
	Data []Contact `json:"data"`
}

type createRequest struct {
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
}

type providerError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (c *resendClient) contactsURL() string {
	return fmt.Sprintf("%s/audiences/%s/contacts", strings.TrimSuffix(c.cfg.Endpoint, "/"), c.cfg.AudienceID)
}

func (c *resendClient) ListContacts(ctx context.Context) ([]Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.contactsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: list contacts returned %d", ErrProvider, resp.StatusCode)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return list.Data, nil
}

func (c *resendClient) CreateContact(ctx context.Context, emailAddr string) (Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(createRequest{Email: emailAddr})
	if err != nil {
		return Contact{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contactsURL(), bytes.NewReader(payload))
	if err != nil {
		return Contact{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Contact{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var contact Contact
		if err := json.Unmarshal(body, &contact); err != nil {
			return Contact{}, fmt.Errorf("%w: %v", ErrProvider, err)
		}
		return contact, nil
	}

	if isDuplicate(resp.StatusCode, body) {
		return Contact{}, ErrDuplicateContact
	}

	return Contact{}, fmt.Errorf("%w: create contact returned %d: %s", ErrProvider, resp.StatusCode, truncate(body, 200))
}

// isDuplicate normalizes the provider's conflict signatures into one
// decision. Resend answers 409 or 422 with a message mentioning the
// existing contact; this is the only place that heuristic lives.
func isDuplicate(status int, body []byte) bool {
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		return true
	}

	var perr providerError
	if err := json.Unmarshal(body, &perr); err != nil {
		return false
	}
	if perr.StatusCode == http.StatusConflict || perr.StatusCode == http.StatusUnprocessableEntity {
		return true
	}
	msg := strings.ToLower(perr.Message + " " + perr.Name)
	for _, marker := range []string{"already exists", "duplicate", "conflict"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
