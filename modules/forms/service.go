package forms

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cognerax/sitekit/pkg/audience"
	"github.com/cognerax/sitekit/pkg/clientip"
	"github.com/cognerax/sitekit/pkg/email"
	"github.com/cognerax/sitekit/pkg/logger"
	"github.com/cognerax/sitekit/pkg/throttle"
	"github.com/cognerax/sitekit/pkg/turnstile"
)

var (
	// ErrSenderRequired is returned when NewService is called without a
	// default email sender.
	ErrSenderRequired = errors.New("forms: email sender is required")
	// ErrThrottleRequired is returned when NewService is called without
	// a throttle.
	ErrThrottleRequired = errors.New("forms: throttle is required")
	// ErrVerifierRequired is returned when NewService is called without
	// a challenge verifier.
	ErrVerifierRequired = errors.New("forms: challenge verifier is required")
	// ErrNotifyEmailRequired is returned when NewService is called
	// without a notification recipient.
	ErrNotifyEmailRequired = errors.New("forms: notify email is required")
)

// Deps carries everything the form service needs. Sender is the
// default relay; SenderOverrides substitutes a different relay for
// specific forms. Audience may be nil when newsletter signups are not
// configured.
type Deps struct {
	Sender          email.EmailSender
	SenderOverrides map[FormType]email.EmailSender
	Throttle        *throttle.Throttle
	Verifier        turnstile.Verifier
	Audience        audience.Client
	NotifyEmail     string
	Logger          *slog.Logger
}

// Service handles the three public submission forms.
type Service struct {
	sender    email.EmailSender
	overrides map[FormType]email.EmailSender
	throttle  *throttle.Throttle
	verifier  turnstile.Verifier
	audience  audience.Client
	notifyTo  string
	log       *slog.Logger
}

func NewService(deps Deps) (*Service, error) {
	if deps.Sender == nil {
		return nil, ErrSenderRequired
	}
	if deps.Throttle == nil {
		return nil, ErrThrottleRequired
	}
	if deps.Verifier == nil {
		return nil, ErrVerifierRequired
	}
	if deps.NotifyEmail == "" {
		return nil, ErrNotifyEmailRequired
	}

	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Service{
		sender:    deps.Sender,
		overrides: deps.SenderOverrides,
		throttle:  deps.Throttle,
		verifier:  deps.Verifier,
		audience:  deps.Audience,
		notifyTo:  deps.NotifyEmail,
		log:       log.With(logger.Component("forms")),
	}, nil
}

func (s *Service) senderFor(form FormType) email.EmailSender {
	if sender, ok := s.overrides[form]; ok {
		return sender
	}
	return s.sender
}

// checkThrottle writes the 429 response when the submission is over
// quota and reports whether the caller may proceed.
func (s *Service) checkThrottle(w http.ResponseWriter, r *http.Request, form FormType, fields throttle.Fields) bool {
	result := s.throttle.Check(r.Context(), fields)
	if !result.Limited {
		return true
	}

	s.log.InfoContext(r.Context(), "submission throttled",
		logger.Form(string(form)),
		slog.Duration("retry_after", result.RetryAfter))
	writeError(w, http.StatusTooManyRequests, "Too many submissions",
		"Please try again in "+throttle.FormatRetryAfter(result.RetryAfter))
	return false
}

// verifyChallenge validates the anti-bot token and writes the error
// response on failure. A missing or rejected token is the client's
// fault; an unreachable verifier is reported as service unavailability
// rather than silently letting the submission through.
func (s *Service) verifyChallenge(w http.ResponseWriter, r *http.Request, form FormType, token string) bool {
	err := s.verifier.Verify(r.Context(), token, clientip.GetIP(r))
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, turnstile.ErrUnavailable):
		s.log.ErrorContext(r.Context(), "challenge verification unavailable",
			logger.Form(string(form)), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Verification service unavailable", nil)
	default:
		s.log.InfoContext(r.Context(), "challenge verification rejected",
			logger.Form(string(form)), logger.Error(err))
		writeError(w, http.StatusBadRequest, "Verification failed", nil)
	}
	return false
}

// relay renders the admin notification and sends it through the form's
// sender, writing the 500 response on failure.
func (s *Service) relay(w http.ResponseWriter, r *http.Request, form FormType, req *SubmissionRequest) bool {
	note := buildNotification(form, req)
	err := s.senderFor(form).SendEmail(r.Context(), email.SendEmailParams{
		SendTo:   s.notifyTo,
		Subject:  note.Subject,
		BodyHTML: note.BodyHTML,
		BodyText: note.BodyText,
		Tag:      string(form),
	})
	if err != nil {
		s.log.ErrorContext(r.Context(), "notification relay failed",
			logger.Form(string(form)), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to send email", nil)
		return false
	}
	return true
}

// trapHoneypot reports whether the honeypot tripped. Trapped requests
// get the same success response as real ones so the bot learns
// nothing, and no email or audience call is made.
func (s *Service) trapHoneypot(w http.ResponseWriter, r *http.Request, form FormType, req *SubmissionRequest) bool {
	if req.Website == "" {
		return false
	}
	s.log.InfoContext(r.Context(), "honeypot triggered", logger.Form(string(form)))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
	return true
}
