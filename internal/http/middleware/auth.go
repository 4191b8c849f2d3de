package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leadflow/leadflow-api/internal/service"
)

const currentUserKey = "currentUser"

// Auth validates the Authorization header and attaches the current user.
type Auth struct {
	AuthService *service.AuthService
}

// ValidateJWT ensures the request carries a bearer token for an active user.
func (m *Auth) ValidateJWT(c *gin.Context) {
	token, ok := BearerToken(c.GetHeader("Authorization"))
	if !ok {
		abortUnauthorized(c, "Not authenticated")
		return
	}

	user, err := m.AuthService.CurrentUser(c.Request.Context(), token)
	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			abortUnauthorized(c, authErr.Detail)
			return
		}
		zap.L().Error("resolve current user", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.Set(currentUserKey, user)
	c.Next()
}

// GetCurrentUser returns the user attached by ValidateJWT.
func GetCurrentUser(c *gin.Context) (service.UserView, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return service.UserView{}, false
	}
	user, ok := value.(service.UserView)
	return user, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
