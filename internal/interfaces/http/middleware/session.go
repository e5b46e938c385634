// internal/interfaces/http/middleware/session.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/session"
)

const sessionHeader = "X-Session-ID"

// SessionStore loads and persists sessions
type SessionStore interface {
	Load(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
}

// Session attaches the caller's session to the request. The id comes from
// the session cookie or the X-Session-ID header and is echoed back on both.
// Values changed by a handler but not yet saved are flushed after it runs.
func Session(store SessionStore, cfg config.SessionConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || id == "" {
			id = c.GetHeader(sessionHeader)
		}

		sess, err := store.Load(c.Request.Context(), id)
		if err != nil {
			logger.WithError(err).Error("Failed to load session")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Session storage unavailable",
			})
			c.Abort()
			return
		}

		c.Set(SessionKey, sess)
		IssueSession(c, cfg, sess)

		c.Next()

		if sess.Dirty() {
			if err := store.Save(context.WithoutCancel(c.Request.Context()), sess); err != nil {
				logger.WithError(err).WithField("session_id", sess.ID).Error("Failed to save session")
			}
		}
	}
}

// IssueSession points the session cookie and header at sess.ID, replacing
// any value set earlier in the request. Must run before the body is written.
func IssueSession(c *gin.Context, cfg config.SessionConfig, sess *session.Session) {
	header := c.Writer.Header()
	if cookies := header.Values("Set-Cookie"); len(cookies) > 0 {
		header.Del("Set-Cookie")
		for _, v := range cookies {
			if !strings.HasPrefix(v, cfg.CookieName+"=") {
				header.Add("Set-Cookie", v)
			}
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, sess.ID, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
	c.Header(sessionHeader, sess.ID)
}

// GetSession returns the session attached by the Session middleware
func GetSession(c *gin.Context) *session.Session {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
