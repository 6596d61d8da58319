package middleware

import (
	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/responses"
	"pizza-ordering-api/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Sessions opens the caller's session before the handler runs and commits it
// afterwards. Requests sharing a session run one at a time.
func Sessions(mgr *session.Manager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := mgr.Open(ctx, c.Writer, c.Request)
		if err != nil {
			responses.Error(c, log, apperrors.Internal(err, "Session unavailable"))
			return
		}
		defer sess.Release()

		c.Set(sessionKey, sess)
		c.Next()

		if err := mgr.Commit(ctx, sess); err != nil {
			log.Error(log.WithField(ctx, "path", c.Request.URL.Path), "session.save_failed", err)
		}
	}
}

// SessionFrom returns the session opened by Sessions, or nil.
func SessionFrom(c *gin.Context) *session.Session {
	val, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := val.(*session.Session)
	return sess
}

// IsAdmin reports whether the caller's session carries the admin flag.
func IsAdmin(c *gin.Context) bool {
	sess := SessionFrom(c)
	return sess != nil && sess.State.IsAdmin
}

// AdminRequired rejects callers whose session is not flagged admin.
func AdminRequired(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			responses.Error(c, log, apperrors.New(apperrors.CodeUnauthorized, "Unauthorized"))
			return
		}
		c.Next()
	}
}

// Actor names the admin who triggered a change, for audit rows.
func Actor(c *gin.Context) string {
	if sess := SessionFrom(c); sess != nil && sess.State.AdminUser != "" {
		return sess.State.AdminUser
	}
	return "admin"
}
