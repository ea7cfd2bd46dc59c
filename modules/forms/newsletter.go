package forms

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cognerax/sitekit/pkg/audience"
	"github.com/cognerax/sitekit/pkg/email"
	"github.com/cognerax/sitekit/pkg/logger"
	"github.com/cognerax/sitekit/pkg/throttle"
	"github.com/cognerax/sitekit/pkg/validator"
)

// HandleNewsletter processes newsletter signups. Only the email is
// required. Duplicates are detected both by scanning the current
// audience and by interpreting the provider's conflict response, and
// answered with success so the subscriber's state is never leaked as an
// error.
func (s *Service) HandleNewsletter(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if s.trapHoneypot(w, r, FormNewsletter, req) {
		return
	}

	if validator.Apply(validator.Required("email", req.Email)) != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields", []string{"email"})
		return
	}
	if validator.Apply(validator.ValidEmail("email", req.Email)) != nil {
		writeError(w, http.StatusBadRequest, "Invalid email format", nil)
		return
	}

	fields := throttle.Fields{Email: req.Email, FormType: string(FormNewsletter)}
	if !s.checkThrottle(w, r, FormNewsletter, fields) {
		return
	}
	if !s.verifyChallenge(w, r, FormNewsletter, req.Token()) {
		return
	}

	if s.audience == nil {
		s.log.ErrorContext(r.Context(), "newsletter audience not configured",
			logger.Form(string(FormNewsletter)))
		writeError(w, http.StatusInternalServerError, "Newsletter signup is not available", nil)
		return
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))

	if s.alreadySubscribed(r, addr) {
		s.throttle.Record(r.Context(), fields)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":           true,
			"alreadySubscribed": true,
		})
		return
	}

	contact, err := s.audience.CreateContact(r.Context(), addr)
	if err != nil {
		if errors.Is(err, audience.ErrDuplicateContact) {
			s.throttle.Record(r.Context(), fields)
			writeJSON(w, http.StatusOK, map[string]any{
				"success":           true,
				"alreadySubscribed": true,
			})
			return
		}
		s.log.ErrorContext(r.Context(), "newsletter signup failed",
			logger.Form(string(FormNewsletter)), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to subscribe", nil)
		return
	}

	// The admin notification is best-effort: the subscriber is already
	// in the audience, so a relay failure must not fail the signup.
	emailSent := true
	note := buildNotification(FormNewsletter, req)
	if err := s.senderFor(FormNewsletter).SendEmail(r.Context(), email.SendEmailParams{
		SendTo:   s.notifyTo,
		Subject:  note.Subject,
		BodyHTML: note.BodyHTML,
		BodyText: note.BodyText,
		Tag:      string(FormNewsletter),
	}); err != nil {
		emailSent = false
		s.log.ErrorContext(r.Context(), "newsletter notification failed",
			logger.Form(string(FormNewsletter)), logger.Error(err))
	}

	s.throttle.Record(r.Context(), fields)
	s.log.InfoContext(r.Context(), "newsletter signup created", logger.Form(string(FormNewsletter)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"alreadySubscribed": false,
		"emailSent":         emailSent,
		"data":              map[string]any{"contactId": contact.ID},
	})
}

// alreadySubscribed scans the current audience for a case-insensitive
// match. A listing failure is logged and treated as not subscribed; the
// provider's own conflict response still catches the duplicate.
func (s *Service) alreadySubscribed(r *http.Request, addr string) bool {
	contacts, err := s.audience.ListContacts(r.Context())
	if err != nil {
		s.log.WarnContext(r.Context(), "audience listing failed",
			logger.Form(string(FormNewsletter)), logger.Error(err))
		return false
	}
	for _, c := range contacts {
		if strings.EqualFold(strings.TrimSpace(c.Email), addr) {
			return true
		}
	}
	return false
}
