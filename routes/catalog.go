package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/models"
	"repairhub-server/services"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

type brandRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterCatalogRoutes registers the public catalog reads used by the
// booking wizard. Catalog writes live under the admin group.
func RegisterCatalogRoutes(router *gin.RouterGroup, h *Handler) {
	catalog := router.Group("/catalog")
	{
		catalog.GET("/categories", h.listCategories)
		catalog.GET("/categories/:id/brands", h.listBrands)
		catalog.GET("/devices", h.listDevices)
		catalog.GET("/devices/:id", h.getDevice)
		catalog.GET("/faults", h.selectableFaults)
		catalog.GET("/durations", h.listDurationTiers)
	}
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, categories)
}

func (h *Handler) listBrands(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	brands, err := h.Catalog.Brands(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, brands)
}

func (h *Handler) listDevices(c *gin.Context) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	brandID, ok := queryID(c, "brand_id")
	if !ok {
		return
	}
	devices, err := h.Catalog.Devices(c.Request.Context(), categoryID, brandID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, devices)
}

func (h *Handler) getDevice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	device, err := h.Catalog.Device(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, device)
}

// selectableFaults lists the faults offered for a model, or for every model
// of the brand when the model is custom.
func (h *Handler) selectableFaults(c *gin.Context) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	brandID, ok := queryID(c, "brand_id")
	if !ok {
		return
	}
	faults, err := h.Catalog.SelectableFaults(c.Request.Context(), categoryID, brandID, c.Query("model"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, faults)
}

func (h *Handler) listDurationTiers(c *gin.Context) {
	tiers, err := h.Catalog.DurationTiers(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tiers)
}

// Admin handlers

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if !bind(c, &req) {
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bind(c, &req) {
		return
	}
	category, err := h.Catalog.UpdateCategory(c.Request.Context(), id, req.Name, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

func (h *Handler) addBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req brandRequest
	if !bind(c, &req) {
		return
	}
	brand, err := h.Catalog.AddBrand(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, brand)
}

func (h *Handler) renameBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req brandRequest
	if !bind(c, &req) {
		return
	}
	brand, err := h.Catalog.RenameBrand(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, brand)
}

func (h *Handler) createDevice(c *gin.Context) {
	var req services.DeviceInput
	if !bind(c, &req) {
		return
	}
	device, err := h.Catalog.CreateDevice(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, device)
}

func (h *Handler) updateDevice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.DeviceInput
	if !bind(c, &req) {
		return
	}
	device, err := h.Catalog.UpdateDevice(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, device)
}

func (h *Handler) deviceFaults(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	faults, err := h.Catalog.DeviceFaults(c.Request.Context(), id, c.Query("include_inactive") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, faults)
}

func (h *Handler) createFault(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.FaultInput
	if !bind(c, &req) {
		return
	}
	fault, err := h.Catalog.CreateFault(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, fault)
}

func (h *Handler) updateFault(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.FaultInput
	if !bind(c, &req) {
		return
	}
	fault, err := h.Catalog.UpdateFault(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, fault)
}

// deactivateFault hides a fault from new bookings; existing bookings keep
// their snapshot.
func (h *Handler) deactivateFault(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeactivateFault(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Fault deactivated"})
}

func (h *Handler) reactivateFault(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.ReactivateFault(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Fault reactivated"})
}

func (h *Handler) allDurationTiers(c *gin.Context) {
	tiers, err := h.Catalog.DurationTiers(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tiers)
}

func (h *Handler) saveDurationTier(c *gin.Context) {
	var req models.DurationTier
	if !bind(c, &req) {
		return
	}
	tier, err := h.Catalog.SaveDurationTier(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tier)
}
