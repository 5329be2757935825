package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/services"
)

type userMap map[uint]*models.User

func (m userMap) Get(_ context.Context, id uint) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func newRouter(t *testing.T) (*gin.Engine, *services.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := services.NewJWTService("middleware-secret", 1)
	users := userMap{
		1: {ID: 1, Role: models.RoleCustomer, IsActive: true},
		2: {ID: 2, Role: models.RoleAdmin, IsActive: true},
		3: {ID: 3, Role: models.RoleCustomer, IsActive: false},
		4: {ID: 4, Role: models.RoleAgent, IsActive: true, MustChangePassword: true},
	}
	auth := NewAuth(tokens, users)

	r := gin.New()
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID)}) }
	protected := r.Group("/", auth.Required())
	protected.GET("/me", ok)
	protected.GET("/admin", RequireRole(models.RoleAdmin), ok)
	protected.GET("/bookings", RequirePasswordChanged(), ok)
	r.GET("/ws", auth.WebSocket(), ok)
	return r, tokens
}

func bearer(t *testing.T, tokens *services.JWTService, id uint, role models.UserRole) string {
	t.Helper()
	tok, err := tokens.Issue(id, role)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.AccessToken
}

func TestAuthMiddleware(t *testing.T) {
	r, tokens := newRouter(t)
	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Token abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"customer", "/me", bearer(t, tokens, 1, models.RoleCustomer), http.StatusOK},
		{"unknown user", "/me", bearer(t, tokens, 99, models.RoleCustomer), http.StatusUnauthorized},
		{"inactive user", "/me", bearer(t, tokens, 3, models.RoleCustomer), http.StatusUnauthorized},
		{"customer on admin route", "/admin", bearer(t, tokens, 1, models.RoleCustomer), http.StatusForbidden},
		{"admin on admin route", "/admin", bearer(t, tokens, 2, models.RoleAdmin), http.StatusOK},
		{"temp credential session", "/bookings", bearer(t, tokens, 4, models.RoleAgent), http.StatusForbidden},
		{"temp credential may read profile", "/me", bearer(t, tokens, 4, models.RoleAgent), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRoleComesFromStoredUser(t *testing.T) {
	r, tokens := newRouter(t)
	// a token claiming admin for a customer account
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, tokens, 1, models.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWebSocketTokenFromQuery(t *testing.T) {
	r, tokens := newRouter(t)
	tok, _ := tokens.Issue(1, models.RoleCustomer)

	for query, want := range map[string]int{
		"":                           http.StatusUnauthorized,
		"?token=bad":                 http.StatusUnauthorized,
		"?token=" + tok.AccessToken: http.StatusOK,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws"+query, nil))
		if w.Code != want {
			t.Errorf("%q: status = %d, want %d", query, w.Code, want)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	rl.GetLimiterWithConfig("a", 1, 1)
	rl.GetLimiterWithConfig("b", 1, 1)
	rl.lastSeen["a"] = time.Now().Add(-2 * time.Hour)

	if removed := rl.Cleanup(time.Hour); removed != 1 {
		t.Fatalf("removed %d", removed)
	}
	if _, ok := rl.limiters["b"]; !ok {
		t.Fatal("active limiter was dropped")
	}
}

func TestInputValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(InputValidationMiddleware(1024))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.ContentLength = 4096
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized: %d", w.Code)
	}
}
