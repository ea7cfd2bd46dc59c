package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender implements EmailSender for local development: instead of
// sending, it writes each email's HTML body and a JSON metadata file to
// a directory for inspection.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender writing into dir, which is
// created on first send if needed.
func NewDevSender(dir string) EmailSender {
	return &DevSender{dir: dir}
}

type devMetadata struct {
	Timestamp string `json:"timestamp"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
	BodyText  string `json:"body_text,omitempty"`
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	now := time.Now()
	identifier := params.Tag
	if identifier == "" {
		identifier = params.Subject
	}
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), safeFilename(identifier))

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(params.BodyHTML), 0644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %v", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		Timestamp: now.Format(time.RFC3339),
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
		BodyText:  params.BodyText,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func safeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
