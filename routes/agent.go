package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/middleware"
	"repairhub-server/models"
	"repairhub-server/services"
)

type onlineRequest struct {
	Online *bool `json:"online" binding:"required"`
}

type statusRequest struct {
	Status  models.BookingStatus `json:"status" binding:"required"`
	Message string               `json:"message"`
}

// RegisterAgentRoutes registers the routes an approved agent works with.
func RegisterAgentRoutes(router *gin.RouterGroup, h *Handler) {
	agent := router.Group("/agent", middleware.RequireRole(models.RoleAgent))
	{
		agent.GET("/profile", h.agentProfile)
		agent.PUT("/profile", h.updateAgentProfile)
		agent.POST("/online", h.setAgentOnline)
		agent.POST("/heartbeat", h.agentHeartbeat)

		agent.GET("/bookings", h.agentBookings)
		agent.POST("/bookings/:id/accept", h.acceptBooking)
		agent.POST("/bookings/:id/decline", h.declineBooking)
		agent.POST("/bookings/:id/status", h.updateBookingStatus)
	}
}

func (h *Handler) agentProfile(c *gin.Context) {
	agent, err := h.Agents.ForUser(c.Request.Context(), c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, agent)
}

func (h *Handler) updateAgentProfile(c *gin.Context) {
	var req services.AgentProfileInput
	if !bind(c, &req) {
		return
	}
	agent, err := h.Agents.UpdateProfile(c.Request.Context(), c.GetUint(middleware.ContextUserID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, agent)
}

func (h *Handler) setAgentOnline(c *gin.Context) {
	var req onlineRequest
	if !bind(c, &req) {
		return
	}
	agent, err := h.Agents.SetOnline(c.Request.Context(), c.GetUint(middleware.ContextUserID), *req.Online)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, agent)
}

func (h *Handler) agentHeartbeat(c *gin.Context) {
	if err := h.Agents.Heartbeat(c.Request.Context(), c.GetUint(middleware.ContextUserID)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) agentBookings(c *gin.Context) {
	page := pageParams(c)
	bookings, total, err := h.Bookings.AgentBookings(c.Request.Context(), c.GetUint(middleware.ContextUserID),
		models.BookingStatus(c.Query("status")), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, bookings, total, page)
}

func (h *Handler) acceptBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.Lifecycle.Accept(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) declineBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	booking, err := h.Lifecycle.Decline(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) updateBookingStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bind(c, &req) {
		return
	}
	booking, err := h.Lifecycle.UpdateStatus(c.Request.Context(), actor(c), id, req.Status, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}
