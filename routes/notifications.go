package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/middleware"
)

type pushTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
	DeviceID string `json:"device_id"`
}

// RegisterNotificationRoutes registers device tokens for push delivery.
func RegisterNotificationRoutes(router *gin.RouterGroup, h *Handler) {
	notifications := router.Group("/notifications")
	{
		notifications.POST("/push-tokens", h.registerPushToken)
		notifications.DELETE("/push-tokens", h.unregisterPushToken)
	}
}

func (h *Handler) registerPushToken(c *gin.Context) {
	var req pushTokenRequest
	if !bind(c, &req) {
		return
	}
	token, err := h.Push.Register(c.Request.Context(), c.GetUint(middleware.ContextUserID), req.Token, req.Platform, req.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, token)
}

func (h *Handler) unregisterPushToken(c *gin.Context) {
	var req pushTokenRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Push.Unregister(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Push token removed"})
}
