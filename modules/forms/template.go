package forms

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognerax/sitekit/pkg/sanitizer"
	"github.com/cognerax/sitekit/pkg/textnorm"
)

// notification is the normalized, rendered admin email for one
// submission. Field values are ASCII-normalized before rendering and
// HTML-escaped only in the HTML body, so the plain-text part stays
// readable.
type notification struct {
	Subject  string
	BodyHTML string
	BodyText string
}

type field struct {
	Label string
	Value string
}

func buildNotification(form FormType, req *SubmissionRequest) notification {
	timestamp := strings.TrimSpace(req.Timestamp)
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	fields := []field{
		{Label: "Name", Value: textnorm.Normalize(req.Name)},
		{Label: "Email", Value: textnorm.Normalize(req.Email)},
		{Label: "Company", Value: textnorm.Normalize(req.Company)},
		{Label: "Inquiry Type", Value: textnorm.Normalize(req.InquiryType)},
		{Label: "Message", Value: textnorm.Normalize(req.Message)},
		{Label: "Submitted At", Value: textnorm.Normalize(timestamp)},
	}

	return notification{
		Subject:  subjectFor(form, fields),
		BodyHTML: renderHTML(form, fields),
		BodyText: renderText(form, fields),
	}
}

func subjectFor(form FormType, fields []field) string {
	from := valueOf(fields, "Name")
	if from == "" {
		from = valueOf(fields, "Email")
	}

	switch form {
	case FormDemo:
		return fmt.Sprintf("New Demo Request from %s", from)
	case FormNewsletter:
		return fmt.Sprintf("New Newsletter Signup: %s", valueOf(fields, "Email"))
	default:
		return fmt.Sprintf("New Contact Form Submission from %s", from)
	}
}

func renderHTML(form FormType, fields []field) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body style=\"font-family:Arial,sans-serif;color:#1a1a2e;\">")
	fmt.Fprintf(&b, "<h2>%s</h2><table cellpadding=\"6\">", sanitizer.EscapeHTMLText(titleFor(form)))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>",
			f.Label, sanitizer.EscapeHTMLText(f.Value))
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func renderText(form FormType, fields []field) string {
	var b strings.Builder
	b.WriteString(titleFor(form))
	b.WriteString("\n\n")
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	return b.String()
}

func titleFor(form FormType) string {
	switch form {
	case FormDemo:
		return "New Demo Request"
	case FormNewsletter:
		return "New Newsletter Signup"
	default:
		return "New Contact Form Submission"
	}
}

func valueOf(fields []field, label string) string {
	for _, f := range fields {
		if f.Label == label {
			return f.Value
		}
	}
	return ""
}
