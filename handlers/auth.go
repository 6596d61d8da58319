package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"pizza-ordering-api/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginNotConfigured() error {
	return apperrors.New(apperrors.CodeConfiguration, "Admin login is not configured on this server.")
}

func invalidCredentials() error {
	return apperrors.New(apperrors.CodeUnauthorized, "Invalid credentials.")
}

// AdminLogin checks the configured credential and flags the session as admin.
// The session id is regenerated on success.
func (h *Handler) AdminLogin(c *gin.Context) {
	if !h.admin.LoginEnabled() {
		h.fail(c, loginNotConfigured())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		h.fail(c, apperrors.Validation("Please enter both username and password."))
		return
	}
	username := strings.TrimSpace(req.Username)

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.admin.Username)) == 1
	if err := bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(req.Password)); err != nil || !userOK {
		h.log.Warn(h.log.WithField(c.Request.Context(), "username", username), "admin.login_failed")
		h.fail(c, invalidCredentials())
		return
	}

	if err := h.sessions.Regenerate(c.Request.Context(), c.Writer, sess); err != nil {
		h.fail(c, apperrors.Internal(err, "Something went wrong. Please try again."))
		return
	}
	sess.State.IsAdmin = true
	sess.State.AdminUser = h.admin.Username

	h.log.Info(h.log.WithField(c.Request.Context(), "username", username), "admin.login")
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"isAdmin":  true,
		"username": h.admin.Username,
	})
}

// AdminLogout drops the admin flag and rotates the session id. The cart survives.
func (h *Handler) AdminLogout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	wasAdmin := sess.State.IsAdmin
	sess.State.IsAdmin = false
	sess.State.AdminUser = ""
	if wasAdmin {
		if err := h.sessions.Regenerate(c.Request.Context(), c.Writer, sess); err != nil {
			h.fail(c, apperrors.Internal(err, "Failed to end session"))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "isAdmin": false})
}

// AdminSession reports whether the caller is signed in as admin.
func (h *Handler) AdminSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"isAdmin":         sess.State.IsAdmin,
		"username":        sess.State.AdminUser,
		"loginConfigured": h.admin.LoginEnabled(),
	})
}
