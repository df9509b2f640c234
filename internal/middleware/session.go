package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/models"
	"loanrisk/internal/services"
)

// Context keys set by the session middleware.
const (
	usernameKey     = "username"
	roleKey         = "role"
	sessionTokenKey = "sessionToken"
)

// Session verifies the bearer session token against the identity store and
// sets the username, role, and token in the context. Validation touches the
// session's last-activity time.
func Session(identity services.IdentityServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		session, user, err := identity.ValidateSession(parts[1])
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(sessionTokenKey, session.Token)
		c.Set(usernameKey, user.Username)
		c.Set(roleKey, user.Role)
		c.Next()
	}
}

// AdminOnly requires that Session has run and the account holds the admin
// role.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(roleKey)
		if !exists || role.(models.Role) != models.RoleAdmin {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// Username returns the authenticated username from the context.
func Username(c *gin.Context) (string, bool) {
	v, exists := c.Get(usernameKey)
	if !exists {
		return "", false
	}
	return v.(string), true
}

// SessionToken returns the validated bearer token from the context.
func SessionToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(sessionTokenKey)
	if !exists {
		return "", false
	}
	return v.(string), true
}

func abortWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if e, ok := err.(*apperrors.AppError); ok {
		appErr = e
	} else {
		appErr = apperrors.ErrUnauthorized
	}
	c.JSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
	c.Abort()
}

// CORS allows the dashboard frontend to call the API from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
