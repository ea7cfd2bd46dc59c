package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognerax/sitekit/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	var seen string
	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	t.Run("generates an ID when none supplied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses a valid client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "client-id_42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-id_42", seen)
	})

	t.Run("replaces an invalid client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "bad id\nwith newline")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NotEqual(t, "bad id\nwith newline", seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestFromContextMissing(t *testing.T) {
	assert.Empty(t, requestid.FromContext(t.Context()))
	assert.Empty(t, requestid.FromContext(nil)) //nolint:staticcheck
}
