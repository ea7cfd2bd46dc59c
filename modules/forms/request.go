package forms

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// FormType identifies which submission form a request came from.
type FormType string

const (
	FormContact    FormType = "contact-us"
	FormDemo       FormType = "request-demo"
	FormNewsletter FormType = "newsletter"
)

var errInvalidBody = errors.New("invalid request body")

// SubmissionRequest is the decoded body of any of the three forms.
// EmailHTML/EmailText are accepted for wire compatibility with older
// clients but ignored: notification bodies are always rendered
// server-side so the relay cannot be used to send arbitrary content.
type SubmissionRequest struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	InquiryType string `json:"inquiryType"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	EmailHTML   string `json:"emailHtml"`
	EmailText   string `json:"emailText"`

	// Website is the honeypot field. Humans never see it; bots that
	// fill every input give themselves away here.
	Website string `json:"website"`

	ChallengeToken string `json:"challengeToken"`
	TurnstileToken string `json:"turnstileToken"`
}

// Token returns the challenge token under whichever name the client
// used. The hosted widget posts cf-turnstile-response in form mode;
// JSON clients send challengeToken (older ones turnstileToken).
func (s *SubmissionRequest) Token() string {
	if s.ChallengeToken != "" {
		return s.ChallengeToken
	}
	return s.TurnstileToken
}

// decodeRequest parses the body by Content-Type: JSON, form-encoded, or
// a JSON attempt as fallback for clients that omit the header.
func decodeRequest(r *http.Request) (*SubmissionRequest, error) {
	mediaType := r.Header.Get("Content-Type")
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		return decodeForm(r)
	default:
		// JSON, declared or not.
		var req SubmissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.Join(errInvalidBody, err)
		}
		return &req, nil
	}
}

func decodeForm(r *http.Request) (*SubmissionRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errors.Join(errInvalidBody, err)
	}

	req := &SubmissionRequest{
		Name:           r.PostFormValue("name"),
		Company:        r.PostFormValue("company"),
		Email:          r.PostFormValue("email"),
		InquiryType:    r.PostFormValue("inquiryType"),
		Message:        r.PostFormValue("message"),
		Timestamp:      r.PostFormValue("timestamp"),
		Website:        r.PostFormValue("website"),
		ChallengeToken: r.PostFormValue("challengeToken"),
		TurnstileToken: r.PostFormValue("turnstileToken"),
	}
	if req.ChallengeToken == "" && req.TurnstileToken == "" {
		req.TurnstileToken = r.PostFormValue("cf-turnstile-response")
	}
	return req, nil
}
