// Package requestid attaches a correlation identifier to every HTTP
// request. A client-supplied X-Request-ID header is reused when it looks
// sane; otherwise a fresh UUIDv4 is generated. The ID is stored in the
// request context, echoed in the response header, and exposed to the
// structured logger via LoggerExtractor.
package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the canonical request-ID header name.
const Header = "X-Request-ID"

const maxIDLength = 128

var validIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type contextKey struct{}

// WithContext stores the request ID in the context.
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext extracts the request ID, or "" when absent.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

// Middleware ensures every request carries a valid request ID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if !isValid(requestID) {
			requestID = uuid.New().String()
		}
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}

// LoggerExtractor returns a logger context extractor that injects the
// request ID under the key "request_id".
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if requestID := FromContext(ctx); requestID != "" {
			return slog.String("request_id", requestID), true
		}
		return slog.Attr{}, false
	}
}

func isValid(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}
