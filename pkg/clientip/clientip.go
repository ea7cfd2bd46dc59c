// Package clientip resolves the originating client address behind the
// proxies this service is deployed after.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the client address for a request. Header priority
// matches the edge layout: Cloudflare first, then the standard
// forwarding headers, then the socket address.
func GetIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for hop := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(hop); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes a candidate address, returning ""
// for anything net.ParseIP rejects so spoofable headers cannot inject
// arbitrary strings downstream.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
