// Package pages serves the static marketing site and the cookie consent
// endpoint. Pages are embedded at build time so the binary is
// self-contained.
package pages

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cognerax/sitekit/pkg/cookie"
	"github.com/cognerax/sitekit/pkg/logger"
)

//go:embed static/*.html
var staticFS embed.FS

// ConsentCookie is the name of the signed consent preference cookie.
const ConsentCookie = "cookie_consent"

// routes maps URL paths to embedded page files. The second spelling of
// the contact, privacy, and cookie pages keeps links published against
// the previous site working.
var routes = map[string]string{
	"/":                          "static/home.html",
	"/about-us":                  "static/about-us.html",
	"/careers":                   "static/careers.html",
	"/privacy-policy":            "static/privacy-policy.html",
	"/privacy":                   "static/privacy-policy.html",
	"/cookie-policy":             "static/cookie-policy.html",
	"/how-cognerax-uses-cookies": "static/cookie-policy.html",
	"/contact-us":                "static/contact-us.html",
	"/contact":                   "static/contact-us.html",
	"/request-demo":              "static/request-demo.html",
	"/nexora":                    "static/nexora.html",
}

// ConsentPreferences records the visitor's cookie choices.
type ConsentPreferences struct {
	Analytics bool      `json:"analytics"`
	Marketing bool      `json:"marketing"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service serves pages and manages consent state.
type Service struct {
	cookies *cookie.Manager
	log     *slog.Logger
}

func NewService(cookies *cookie.Manager, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		cookies: cookies,
		log:     log.With(logger.Component("pages")),
	}
}

// Router mounts the marketing pages. The consent endpoints live under
// the shared /api router and are wired by the caller via
// HandleGetConsent and HandleSetConsent.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	for path, file := range routes {
		r.Get(path, s.servePage(file))
	}

	return r
}

func (s *Service) servePage(file string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := staticFS.ReadFile(file)
		if err != nil {
			s.log.ErrorContext(r.Context(), "embedded page missing",
				slog.String("file", file), logger.Error(err))
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(page)
	}
}

// HandleGetConsent returns the stored preferences, or the opt-out
// defaults when no valid cookie is present. A tampered cookie is
// treated the same as a missing one.
func (s *Service) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	prefs := ConsentPreferences{}
	stored := false

	if raw, err := s.cookies.GetSigned(r, ConsentCookie); err == nil {
		if json.Unmarshal([]byte(raw), &prefs) == nil {
			stored = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stored":      stored,
		"preferences": prefs,
	})
}

// HandleSetConsent stores the posted choices in a signed cookie.
func (s *Service) HandleSetConsent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Analytics bool `json:"analytics"`
		Marketing bool `json:"marketing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	prefs := ConsentPreferences{
		Analytics: req.Analytics,
		Marketing: req.Marketing,
		UpdatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := s.cookies.SetSigned(w, ConsentCookie, string(raw)); err != nil {
		s.log.ErrorContext(r.Context(), "consent cookie write failed", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"preferences": prefs,
	})
}
