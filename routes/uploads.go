package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/apperr"
	"repairhub-server/middleware"
	"repairhub-server/models"
)

// RegisterUploadRoutes registers image uploads. Applicants are not signed
// in yet, so only booking images require a session.
func RegisterUploadRoutes(router *gin.RouterGroup, h *Handler, auth *middleware.Auth) {
	router.POST("/uploads", auth.Optional(), h.uploadImages)
}

// uploadImages answers 200 with one result per file, even when some of
// them failed.
func (h *Handler) uploadImages(c *gin.Context) {
	purpose := c.DefaultPostForm("purpose", c.Query("purpose"))

	var owner *uint
	if id := c.GetUint(middleware.ContextUserID); id != 0 {
		owner = &id
	}
	if purpose == models.UploadPurposeBookingImage && owner == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Sign in to attach images to a booking",
			"code":    apperr.KindAuthorization,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, apperr.Validation("expected a multipart form with files"))
		return
	}
	results, err := h.Uploads.Upload(c.Request.Context(), owner, purpose, form.File["files"])
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, results)
}
