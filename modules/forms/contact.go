package forms

import (
	"net/http"

	"github.com/cognerax/sitekit/pkg/logger"
	"github.com/cognerax/sitekit/pkg/throttle"
	"github.com/cognerax/sitekit/pkg/validator"
)

// HandleContact processes the contact form. Name, company, email, and
// inquiry type are required; the message is optional.
func (s *Service) HandleContact(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if s.trapHoneypot(w, r, FormContact, req) {
		return
	}

	if err := validator.Apply(
		validator.Required("name", req.Name),
		validator.Required("company", req.Company),
		validator.Required("email", req.Email),
		validator.Required("inquiryType", req.InquiryType),
	); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields", validator.Extract(err).Fields())
		return
	}
	if validator.Apply(validator.ValidEmail("email", req.Email)) != nil {
		writeError(w, http.StatusBadRequest, "Invalid email format", nil)
		return
	}

	fields := throttle.Fields{
		Name:     req.Name,
		Company:  req.Company,
		Email:    req.Email,
		FormType: string(FormContact),
	}
	if !s.checkThrottle(w, r, FormContact, fields) {
		return
	}
	if !s.verifyChallenge(w, r, FormContact, req.Token()) {
		return
	}
	if !s.relay(w, r, FormContact, req) {
		return
	}
	s.throttle.Record(r.Context(), fields)

	s.log.InfoContext(r.Context(), "contact submission relayed", logger.Form(string(FormContact)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"formType": FormContact},
	})
}
