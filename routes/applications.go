package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/middleware"
	"repairhub-server/models"
	"repairhub-server/services"
)

// RegisterApplicationRoutes registers the public agent application form.
func RegisterApplicationRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("/applications", middleware.AuthRateLimitMiddleware(), h.submitApplication)
}

func (h *Handler) submitApplication(c *gin.Context) {
	var req services.ApplicationInput
	if !bind(c, &req) {
		return
	}
	app, err := h.Apps.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, app)
}

// Admin handlers

func (h *Handler) listApplications(c *gin.Context) {
	page := pageParams(c)
	apps, total, err := h.Apps.List(c.Request.Context(), models.ApplicationStatus(c.Query("status")), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, apps, total, page)
}

func (h *Handler) getApplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.Apps.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, app)
}

// approveApplication returns the temporary credential once; it is not
// stored in plain text anywhere.
func (h *Handler) approveApplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := h.Apps.Approve(c.Request.Context(), id, c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (h *Handler) rejectApplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bind(c, &req) {
		return
	}
	app, err := h.Apps.Reject(c.Request.Context(), id, c.GetUint(middleware.ContextUserID), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, app)
}
