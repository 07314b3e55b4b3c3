package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard/internal/session"
)

const sessionContextKey = "jobboard.session"

// SessionFromContext returns the session the guard attached to the request.
func SessionFromContext(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// RequireSession authenticates the request against the session store and
// slides the session's expiry. The session id travels either in the `sid`
// cookie or as a bearer token; an absent, expired, or corrupt session is a
// plain 401 with no detail.
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := sessionID(c)
		if sid == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		sess, err := s.sessions.Get(c.Request.Context(), sid)
		if err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		if sess == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// Every authenticated request extends the session's life.
		if err := s.sessions.RefreshTTL(c.Request.Context(), sid); err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	const bearer = "Bearer "
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearer) {
		return strings.TrimPrefix(auth, bearer)
	}
	return ""
}
