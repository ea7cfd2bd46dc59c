package forms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router mounts the submission endpoints under /api with the shared
// CORS allow-list. OPTIONS is registered explicitly so preflight
// requests reach the middleware instead of chi's 405 handler.
func Router(svc *Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware(allowedOrigins))

	for pattern, handler := range map[string]http.HandlerFunc{
		"/contact":      svc.HandleContact,
		"/request-demo": svc.HandleDemo,
		"/newsletter":   svc.HandleNewsletter,
	} {
		r.Post(pattern, handler)
		r.Options(pattern, func(http.ResponseWriter, *http.Request) {})
	}

	return r
}
