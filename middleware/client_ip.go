package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// getClientIP resolves the address the rate limiter keys on. Forwarded
// headers are honored only when the direct peer is a private or loopback
// address, i.e. our own reverse proxy; a public peer could otherwise spoof
// X-Forwarded-For and dodge the per-IP limit.
func getClientIP(c *gin.Context) string {
	peer := remoteHost(c.Request.RemoteAddr)

	if !fromTrustedProxy(peer) {
		return peer
	}

	// X-Forwarded-For lists one hop per proxy; the first entry is the
	// original client.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func fromTrustedProxy(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
