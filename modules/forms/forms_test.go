package forms_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognerax/sitekit/modules/forms"
	"github.com/cognerax/sitekit/pkg/audience"
	"github.com/cognerax/sitekit/pkg/email"
	"github.com/cognerax/sitekit/pkg/throttle"
	"github.com/cognerax/sitekit/pkg/turnstile"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (f *fakeSender) SendEmail(_ context.Context, params email.SendEmailParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, params)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeVerifier struct {
	err    error
	tokens []string
}

func (f *fakeVerifier) Verify(_ context.Context, token, _ string) error {
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return f.err
	}
	if token == "" {
		return turnstile.ErrMissingToken
	}
	return nil
}

type fakeAudience struct {
	contacts  []audience.Contact
	listErr   error
	created   []string
	createErr error
}

func (f *fakeAudience) ListContacts(context.Context) ([]audience.Contact, error) {
	return f.contacts, f.listErr
}

func (f *fakeAudience) CreateContact(_ context.Context, addr string) (audience.Contact, error) {
	if f.createErr != nil {
		return audience.Contact{}, f.createErr
	}
	f.created = append(f.created, addr)
	return audience.Contact{ID: "c_1", Email: addr}, nil
}

type testEnv struct {
	svc      *forms.Service
	sender   *fakeSender
	verifier *fakeVerifier
	audience *fakeAudience
}

func newTestEnv(t *testing.T, mutate func(*forms.Deps)) *testEnv {
	t.Helper()

	sender := &fakeSender{}
	verifier := &fakeVerifier{}
	aud := &fakeAudience{}

	thr, err := throttle.New(throttle.NewMemoryStorage(), throttle.Config{
		MaxSubmissions: 3,
		Window:         5 * time.Minute,
	})
	require.NoError(t, err)

	deps := forms.Deps{
		Sender:      sender,
		Throttle:    thr,
		Verifier:    verifier,
		Audience:    aud,
		NotifyEmail: "ops@example.com",
	}
	if mutate != nil {
		mutate(&deps)
	}

	svc, err := forms.NewService(deps)
	require.NoError(t, err)
	return &testEnv{svc: svc, sender: sender, verifier: verifier, audience: aud}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func validContact() map[string]any {
	return map[string]any{
		"name":           "Ada Lovelace",
		"company":        "Analytical Engines",
		"email":          "ada@example.com",
		"inquiryType":    "partnership",
		"message":        "Interested in the platform.",
		"challengeToken": "tok-valid",
	}
}

func TestHandleContact(t *testing.T) {
	t.Parallel()

	t.Run("valid submission relays notification", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := postJSON(t, env.svc.HandleContact, validContact())

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])

		require.Equal(t, 1, env.sender.count())
		sent := env.sender.sent[0]
		assert.Equal(t, "ops@example.com", sent.SendTo)
		assert.Contains(t, sent.Subject, "Ada Lovelace")
		assert.Contains(t, sent.BodyHTML, "partnership")
		assert.Contains(t, sent.BodyText, "ada@example.com")
	})

	t.Run("missing fields rejected with field list", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		payload := validContact()
		delete(payload, "inquiryType")
		rec := postJSON(t, env.svc.HandleContact, payload)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Missing required fields", body["error"])
		assert.Contains(t, body["details"], "inquiryType")
		assert.Zero(t, env.sender.count())
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		payload := validContact()
		payload["email"] = "not-an-email"
		rec := postJSON(t, env.svc.HandleContact, payload)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid email format", decodeBody(t, rec)["error"])
	})

	t.Run("honeypot answered with success but never relayed", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		payload := validContact()
		payload["website"] = "https://spam.example.com"
		rec := postJSON(t, env.svc.HandleContact, payload)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["success"])
		assert.Zero(t, env.sender.count())
		assert.Empty(t, env.verifier.tokens, "trapped request must not consume a challenge")
	})

	t.Run("fourth submission within window throttled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		for i := 0; i < 3; i++ {
			rec := postJSON(t, env.svc.HandleContact, validContact())
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := postJSON(t, env.svc.HandleContact, validContact())
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Too many submissions", body["error"])
		assert.Contains(t, body["details"], "Please try again in")
		assert.Equal(t, 3, env.sender.count())
	})

	t.Run("rejected challenge token", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) {
			d.Verifier = &fakeVerifier{err: turnstile.ErrVerificationFailed}
		})

		rec := postJSON(t, env.svc.HandleContact, validContact())
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Verification failed", decodeBody(t, rec)["error"])
		assert.Zero(t, env.sender.count())
	})

	t.Run("verifier outage fails closed", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) {
			d.Verifier = &fakeVerifier{err: turnstile.ErrUnavailable}
		})

		rec := postJSON(t, env.svc.HandleContact, validContact())
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Zero(t, env.sender.count())
	})

	t.Run("relay failure is not counted against the quota", func(t *testing.T) {
		t.Parallel()
		broken := &fakeSender{err: assert.AnError}
		env := newTestEnv(t, func(d *forms.Deps) { d.Sender = broken })

		for i := 0; i < 5; i++ {
			rec := postJSON(t, env.svc.HandleContact, validContact())
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Failed to send email", decodeBody(t, rec)["error"])
		}
	})

	t.Run("form-encoded body with widget token field", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		form := url.Values{
			"name":                  {"Ada Lovelace"},
			"company":               {"Analytical Engines"},
			"email":                 {"ada@example.com"},
			"inquiryType":           {"sales"},
			"cf-turnstile-response": {"tok-widget"},
		}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.svc.HandleContact(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, env.verifier.tokens)
		assert.Equal(t, "tok-widget", env.verifier.tokens[0])
	})
}

func TestHandleDemo(t *testing.T) {
	t.Parallel()

	t.Run("valid request relays notification", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := postJSON(t, env.svc.HandleDemo, map[string]any{
			"name":           "Grace Hopper",
			"email":          "grace@example.com",
			"company":        "Compilers Inc",
			"challengeToken": "tok-valid",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, env.sender.count())
		assert.Contains(t, env.sender.sent[0].Subject, "Demo Request")
	})

	t.Run("company required", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := postJSON(t, env.svc.HandleDemo, map[string]any{
			"name":           "Grace Hopper",
			"email":          "grace@example.com",
			"challengeToken": "tok-valid",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["details"], "company")
	})
}

func TestHandleNewsletter(t *testing.T) {
	t.Parallel()

	signup := func(addr string) map[string]any {
		return map[string]any{"email": addr, "challengeToken": "tok-valid"}
	}

	t.Run("new subscriber created and notified", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := postJSON(t, env.svc.HandleNewsletter, signup("Reader@Example.com"))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["alreadySubscribed"])
		assert.Equal(t, true, body["emailSent"])

		require.Len(t, env.audience.created, 1)
		assert.Equal(t, "reader@example.com", env.audience.created[0], "address stored lowercased")
		assert.Equal(t, 1, env.sender.count())
	})

	t.Run("case-differing duplicate detected in audience", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) {
			d.Audience = &fakeAudience{contacts: []audience.Contact{
				{ID: "c_9", Email: "READER@example.com"},
			}}
		})

		rec := postJSON(t, env.svc.HandleNewsletter, signup("reader@Example.COM"))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["alreadySubscribed"])
		assert.Zero(t, env.sender.count(), "duplicate signup sends no notification")
	})

	t.Run("provider conflict treated as duplicate", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) {
			d.Audience = &fakeAudience{createErr: audience.ErrDuplicateContact}
		})

		rec := postJSON(t, env.svc.HandleNewsletter, signup("reader@example.com"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["alreadySubscribed"])
	})

	t.Run("listing failure falls through to provider create", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) {
			d.Audience = &fakeAudience{listErr: assert.AnError}
		})

		rec := postJSON(t, env.svc.HandleNewsletter, signup("reader@example.com"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["alreadySubscribed"])
	})

	t.Run("notification failure still reports a successful signup", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) { d.Sender = &fakeSender{err: assert.AnError} })

		rec := postJSON(t, env.svc.HandleNewsletter, signup("reader@example.com"))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["emailSent"])
	})

	t.Run("provider failure surfaces as server error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) {
			d.Audience = &fakeAudience{createErr: audience.ErrProvider}
		})

		rec := postJSON(t, env.svc.HandleNewsletter, signup("reader@example.com"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to subscribe", decodeBody(t, rec)["error"])
	})

	t.Run("unconfigured audience surfaces as server error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(d *forms.Deps) { d.Audience = nil })

		rec := postJSON(t, env.svc.HandleNewsletter, signup("reader@example.com"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestNewService(t *testing.T) {
	t.Parallel()

	thr, err := throttle.New(throttle.NewMemoryStorage(), throttle.Config{
		MaxSubmissions: 3,
		Window:         5 * time.Minute,
	})
	require.NoError(t, err)

	base := forms.Deps{
		Sender:      &fakeSender{},
		Throttle:    thr,
		Verifier:    &fakeVerifier{},
		NotifyEmail: "ops@example.com",
	}

	tests := []struct {
		name    string
		mutate  func(*forms.Deps)
		wantErr error
	}{
		{name: "missing sender", mutate: func(d *forms.Deps) { d.Sender = nil }, wantErr: forms.ErrSenderRequired},
		{name: "missing throttle", mutate: func(d *forms.Deps) { d.Throttle = nil }, wantErr: forms.ErrThrottleRequired},
		{name: "missing verifier", mutate: func(d *forms.Deps) { d.Verifier = nil }, wantErr: forms.ErrVerifierRequired},
		{name: "missing notify email", mutate: func(d *forms.Deps) { d.NotifyEmail = "" }, wantErr: forms.ErrNotifyEmailRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			deps := base
			tt.mutate(&deps)
			_, err := forms.NewService(deps)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRouterPaths(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	handler := forms.Router(env.svc, nil)

	post := func(t *testing.T, path string, body map[string]any) *httptest.ResponseRecorder {
		t.Helper()
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("contact", func(t *testing.T) {
		rec := post(t, "/contact", validContact())
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("request-demo", func(t *testing.T) {
		rec := post(t, "/request-demo", map[string]any{
			"name":           "Grace Hopper",
			"email":          "grace@example.com",
			"company":        "Compilers Inc",
			"challengeToken": "tok-valid",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("newsletter", func(t *testing.T) {
		rec := post(t, "/newsletter", map[string]any{
			"email":          "reader@example.com",
			"challengeToken": "tok-valid",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unrouted path", func(t *testing.T) {
		rec := post(t, "/demo", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouterCORS(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	handler := forms.Router(env.svc, []string{"https://nexora.example.com"})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodOptions, "/contact", nil)
		req.Header.Set("Origin", "https://nexora.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://nexora.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("preflight from unknown origin gets no grant", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodOptions, "/contact", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("post routed through middleware", func(t *testing.T) {
		t.Parallel()
		raw, err := json.Marshal(validContact())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", "https://nexora.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://nexora.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestConfigSenderTokens(t *testing.T) {
	t.Parallel()

	cfg := forms.Config{ContactToken: "tok-contact", NewsletterToken: "tok-news"}
	tokens := cfg.SenderTokens()

	assert.Equal(t, "tok-contact", tokens[forms.FormContact])
	assert.Equal(t, "tok-news", tokens[forms.FormNewsletter])
	_, ok := tokens[forms.FormDemo]
	assert.False(t, ok, "forms without an override fall back to the shared sender")
}
