package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Form records the form type handled by a submission endpoint.
func Form(formType string) slog.Attr {
	if formType == "" {
		return slog.Attr{}
	}
	return slog.String("form", formType)
}

// Component records the subsystem a log record originates from.
func Component(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("component", name)
}
