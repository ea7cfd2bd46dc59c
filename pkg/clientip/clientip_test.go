package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognerax/sitekit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "cloudflare header wins",
			headers:    map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"},
			remoteAddr: "10.0.0.1:443",
			want:       "203.0.113.7",
		},
		{
			name:       "first valid forwarded hop",
			headers:    map[string]string{"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.2"},
			remoteAddr: "10.0.0.1:443",
			want:       "198.51.100.1",
		},
		{
			name:       "real ip fallback",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			remoteAddr: "10.0.0.1:443",
			want:       "198.51.100.9",
		},
		{
			name:       "remote addr fallback",
			remoteAddr: "192.0.2.4:54321",
			want:       "192.0.2.4",
		},
		{
			name:       "ipv6 normalized",
			headers:    map[string]string{"CF-Connecting-IP": "2001:DB8::1"},
			remoteAddr: "10.0.0.1:443",
			want:       "2001:db8::1",
		},
		{
			name:       "spoofed header with invalid value ignored",
			headers:    map[string]string{"CF-Connecting-IP": "not-an-ip; rm -rf /"},
			remoteAddr: "192.0.2.4:54321",
			want:       "192.0.2.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(req))
		})
	}
}
