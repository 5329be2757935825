package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/middleware"
	"repairhub-server/models"
	"repairhub-server/wizard"
)

type reasonRequest struct {
	Reason string `json:"reason"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// RegisterBookingRoutes registers the wizard helpers and the customer's
// booking routes.
func RegisterBookingRoutes(router *gin.RouterGroup, h *Handler) {
	wiz := router.Group("/booking")
	{
		wiz.GET("/schedule", h.bookingSchedule)
		wiz.GET("/quote", h.bookingQuote)
		wiz.POST("/check", h.checkBookingForm)
	}

	bookings := router.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(models.RoleCustomer), h.createBooking)
		bookings.GET("/mine", middleware.RequireRole(models.RoleCustomer), h.myBookings)
		bookings.GET("/code/:code", h.getBookingByCode)
		bookings.GET("/:id", h.getBooking)
		bookings.POST("/:id/cancel", middleware.RequireRole(models.RoleCustomer), h.cancelBooking)
		bookings.POST("/:id/review", middleware.RequireRole(models.RoleCustomer), h.reviewBooking)
	}
}

func (h *Handler) bookingSchedule(c *gin.Context) {
	respond(c, http.StatusOK, h.Bookings.Schedule())
}

func (h *Handler) bookingQuote(c *gin.Context) {
	quote, err := h.Bookings.Quote(c.Request.Context(), c.DefaultQuery("duration", "standard"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, quote)
}

// checkBookingForm reports which wizard steps of a draft are complete.
func (h *Handler) checkBookingForm(c *gin.Context) {
	var form wizard.Form
	if !bind(c, &form) {
		return
	}
	respond(c, http.StatusOK, h.Bookings.CheckForm(form))
}

func (h *Handler) createBooking(c *gin.Context) {
	var form wizard.Form
	if !bind(c, &form) {
		return
	}
	booking, err := h.Bookings.Create(c.Request.Context(), c.GetUint(middleware.ContextUserID), form)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, booking)
}

func (h *Handler) myBookings(c *gin.Context) {
	page := pageParams(c)
	bookings, total, err := h.Bookings.CustomerBookings(c.Request.Context(), c.GetUint(middleware.ContextUserID),
		models.BookingStatus(c.Query("status")), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, bookings, total, page)
}

func (h *Handler) getBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.Bookings.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) getBookingByCode(c *gin.Context) {
	booking, err := h.Bookings.GetByDisplayID(c.Request.Context(), actor(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) cancelBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	booking, err := h.Lifecycle.Cancel(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) reviewBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bind(c, &req) {
		return
	}
	booking, err := h.Lifecycle.Review(c.Request.Context(), actor(c), id, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}
