package routes

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reassignRequest struct {
	AgentID uint `json:"agent_id" binding:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
}

type agentStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type payoutRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// RegisterAdminRoutes registers the back office. The group is already
// restricted to admins.
func RegisterAdminRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.GET("/stats", h.dashboardStats)

	bookings := admin.Group("/bookings")
	{
		bookings.GET("", h.listBookings)
		bookings.GET("/export", h.exportBookings)
		bookings.POST("/:id/reassign", h.reassignBooking)
		bookings.POST("/:id/status", h.updateBookingStatus)
		bookings.POST("/:id/payment", h.updatePaymentStatus)
	}

	applications := admin.Group("/applications")
	{
		applications.GET("", h.listApplications)
		applications.GET("/:id", h.getApplication)
		applications.POST("/:id/approve", h.approveApplication)
		applications.POST("/:id/reject", h.rejectApplication)
	}

	agents := admin.Group("/agents")
	{
		agents.GET("", h.listAgents)
		agents.GET("/:id", h.getAgent)
		agents.PATCH("/:id/status", h.setAgentStatus)
		agents.POST("/:id/payout", h.agentPayout)
	}

	catalog := admin.Group("/catalog")
	{
		catalog.POST("/categories", h.createCategory)
		catalog.PUT("/categories/:id", h.updateCategory)
		catalog.POST("/categories/:id/brands", h.addBrand)
		catalog.PUT("/brands/:id", h.renameBrand)
		catalog.POST("/devices", h.createDevice)
		catalog.PUT("/devices/:id", h.updateDevice)
		catalog.GET("/devices/:id/faults", h.deviceFaults)
		catalog.POST("/devices/:id/faults", h.createFault)
		catalog.PUT("/faults/:id", h.updateFault)
		catalog.DELETE("/faults/:id", h.deactivateFault)
		catalog.POST("/faults/:id/reactivate", h.reactivateFault)
		catalog.GET("/durations", h.allDurationTiers)
		catalog.PUT("/durations", h.saveDurationTier)
	}

	admin.POST("/states", h.createState)
	cities := admin.Group("/cities")
	{
		cities.GET("", h.allCities)
		cities.POST("", h.createCity)
		cities.PUT("/:id", h.updateCity)
		cities.PATCH("/:id/status", h.setCityStatus)
		cities.DELETE("/:id", h.deleteCity)
	}
}

func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.Reports.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (h *Handler) listBookings(c *gin.Context) {
	filter := models.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		Page:   pageParams(c),
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}
	agentID, ok := queryID(c, "agent_id")
	if !ok {
		return
	}
	if customerID != 0 {
		filter.CustomerID = &customerID
	}
	if agentID != 0 {
		filter.AgentID = &agentID
	}

	bookings, total, err := h.Bookings.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, bookings, total, filter.Page)
}

// exportBookings streams the booking list as an xlsx workbook.
func (h *Handler) exportBookings(c *gin.Context) {
	buf, filename, err := h.Reports.ExportBookings(c.Request.Context(), models.BookingStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("📊 Admin %d exported bookings to %s", actor(c).UserID, filename)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) reassignBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reassignRequest
	if !bind(c, &req) {
		return
	}
	booking, err := h.Lifecycle.Reassign(c.Request.Context(), actor(c), id, req.AgentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) updatePaymentStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req paymentStatusRequest
	if !bind(c, &req) {
		return
	}
	booking, err := h.Lifecycle.UpdatePaymentStatus(c.Request.Context(), actor(c), id, req.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, booking)
}

func (h *Handler) listAgents(c *gin.Context) {
	cityID, ok := queryID(c, "city_id")
	if !ok {
		return
	}
	page := pageParams(c)
	agents, total, err := h.Agents.List(c.Request.Context(), cityID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, agents, total, page)
}

func (h *Handler) getAgent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	agent, err := h.Agents.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, agent)
}

func (h *Handler) setAgentStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req agentStatusRequest
	if !bind(c, &req) {
		return
	}
	agent, err := h.Agents.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, agent)
}

func (h *Handler) agentPayout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req payoutRequest
	if !bind(c, &req) {
		return
	}
	agent, err := h.Agents.Payout(c.Request.Context(), id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("💸 Paid out %.2f to agent %d", req.Amount, id)
	respond(c, http.StatusOK, agent)
}
