// internal/interfaces/http/middleware/security.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/config"
)

// SecurityHeaders sets response headers for a JSON API that hands out
// session ids and bearer tokens. Responses under apiPrefix are never cached,
// since they carry the session id header, tokens and cart contents. HSTS is
// sent only when the session cookie is Secure, that is when served over TLS.
func SecurityHeaders(sess config.SessionConfig, apiPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")

		if sess.Secure {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		if strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Add("Vary", "Cookie, Authorization, "+sessionHeader)
		}

		c.Next()
	}
}
