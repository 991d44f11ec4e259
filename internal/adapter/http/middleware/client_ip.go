package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the caller's IP. X-Forwarded-For and X-Real-IP are only
// honored when trustProxyHeaders is set, i.e. behind a reverse proxy that
// overwrites them; otherwise any client could choose its own IP.
func ClientIP(r *http.Request, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if ip := strings.TrimSpace(ips[0]); ip != "" {
				return ip
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
