package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/middleware"
	"repairhub-server/services"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// RegisterAuthRoutes registers registration, login and session routes.
// The session routes stay reachable with a temporary credential so that it
// can be exchanged for a real password.
func RegisterAuthRoutes(router *gin.RouterGroup, h *Handler, auth *middleware.Auth) {
	group := router.Group("/auth")
	{
		group.POST("/register", middleware.AuthRateLimitMiddleware(), h.register)
		group.POST("/login", middleware.AuthRateLimitMiddleware(), h.login)
		group.GET("/me", auth.Required(), h.me)
		group.POST("/change-password", auth.Required(), h.changePassword)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req services.RegisterInput
	if !bind(c, &req) {
		return
	}
	session, err := h.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, session)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	session, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), c.GetUint(middleware.ContextUserID), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Password updated"})
}
