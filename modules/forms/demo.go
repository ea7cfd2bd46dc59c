package forms

import (
	"net/http"

	"github.com/cognerax/sitekit/pkg/logger"
	"github.com/cognerax/sitekit/pkg/throttle"
	"github.com/cognerax/sitekit/pkg/validator"
)

// HandleDemo processes the demo request form. Name, email, and company
// are required.
func (s *Service) HandleDemo(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if s.trapHoneypot(w, r, FormDemo, req) {
		return
	}

	if err := validator.Apply(
		validator.Required("name", req.Name),
		validator.Required("email", req.Email),
		validator.Required("company", req.Company),
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
		FormType: string(FormDemo),
	}
	if !s.checkThrottle(w, r, FormDemo, fields) {
		return
	}
	if !s.verifyChallenge(w, r, FormDemo, req.Token()) {
		return
	}
	if !s.relay(w, r, FormDemo, req) {
		return
	}
	s.throttle.Record(r.Context(), fields)

	s.log.InfoContext(r.Context(), "demo request relayed", logger.Form(string(FormDemo)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"formType": FormDemo},
	})
}
