package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkClient struct {
	client *postmark.Client
	config Config
}

// NewPostmarkClient creates a Postmark-backed email sender. Tokens and
// addresses are validated up front so a misconfigured deployment fails
// at startup rather than on the first submission.
func NewPostmarkClient(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.ReplyToEmail == "" {
		return nil, fmt.Errorf("%w: ReplyToEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.ReplyToEmail) {
		return nil, fmt.Errorf("%w: ReplyToEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkClient{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// MustNewPostmarkClient creates a Postmark client that panics on invalid
// config.
func MustNewPostmarkClient(cfg Config) EmailSender {
	client, err := NewPostmarkClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// SendEmail relays the notification through Postmark's transactional
// API. Submission notifications carry both HTML and plain-text bodies so
// text-only mail clients stay readable.
func (c *postmarkClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:     c.config.SenderEmail,
		ReplyTo:  c.config.ReplyToEmail,
		To:       params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		HTMLBody: params.BodyHTML,
		TextBody: params.BodyText,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
