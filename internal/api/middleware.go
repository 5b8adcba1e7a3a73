package api

import (
	"net/http"
	"strings"
	"time"

	"maitred/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	sessionHeader   = "X-Session-Token"
	requestIDHeader = "X-Request-ID"
	sessionKey      = "session"
)

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Warn("request completed with errors")
		default:
			entry.Debug("request completed")
		}
	}
}

// sessionToken reads the token from the session header, a bearer
// Authorization header or, for WebSocket upgrades, the token query parameter.
func sessionToken(c *gin.Context) string {
	if t := c.GetHeader(sessionHeader); t != "" {
		return t
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}

func (s *Server) requireSession(c *gin.Context) {
	sess, err := s.sessions.Resolve(sessionToken(c))
	if err != nil {
		msg := "Invalid session token"
		if errors.Is(err, session.ErrSessionNotFound) {
			msg = "Session expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	// every request extends the token by one idle period
	if token, err := s.sessions.Token(sess); err == nil {
		c.Header(sessionHeader, token)
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
