package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/services"
)

// Context keys set by the auth middleware.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// UserLookup loads the account behind a token.
type UserLookup interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// Auth validates bearer tokens and loads the calling user.
type Auth struct {
	tokens *services.JWTService
	users  UserLookup
}

func NewAuth(tokens *services.JWTService, users UserLookup) *Auth {
	return &Auth{tokens: tokens, users: users}
}

func deny(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    apperr.KindAuthorization,
	})
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token == "" {
		return "", false
	}
	return token, true
}

// authenticate resolves the token to an active user.
func (a *Auth) authenticate(c *gin.Context, token string) (*models.User, string) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		log.Printf("🔍 Rejected token on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		return nil, "Token is invalid or expired"
	}
	user, err := a.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, "User associated with token not found"
	}
	if !user.IsActive {
		return nil, "User account is deactivated"
	}
	return user, ""
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ContextUser, *user)
	c.Set(ContextUserID, user.ID)
	c.Set(ContextRole, string(user.Role))
}

// Required rejects requests without a valid bearer token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			deny(c, http.StatusUnauthorized, "Authorization header required")
			return
		}
		user, reason := a.authenticate(c, token)
		if user == nil {
			deny(c, http.StatusUnauthorized, reason)
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// Optional sets the user when a valid token is present and never rejects.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, _ := a.authenticate(c, token); user != nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// WebSocket reads the token from the query string, since browsers cannot
// set headers on a websocket upgrade.
func (a *Auth) WebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			deny(c, http.StatusUnauthorized, "Token required")
			return
		}
		user, reason := a.authenticate(c, token)
		if user == nil {
			deny(c, http.StatusUnauthorized, reason)
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// RequireRole allows only the listed roles. It must run after Required.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.UserRole(c.GetString(ContextRole))
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		deny(c, http.StatusForbidden, "You do not have access to this resource")
	}
}

// RequirePasswordChanged blocks sessions opened with a temporary credential
// until the password has been changed.
func RequirePasswordChanged() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get(ContextUser); ok {
			if user, ok := v.(models.User); ok && user.MustChangePassword {
				deny(c, http.StatusForbidden, "Password change required")
				return
			}
		}
		c.Next()
	}
}
