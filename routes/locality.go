package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairhub-server/services"
)

type stateRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type cityStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// RegisterLocalityRoutes registers the public state and city reads.
func RegisterLocalityRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/states", h.listStates)
	router.GET("/cities", h.listCities)
	router.GET("/cities/:id", h.getCity)
	router.GET("/cities/:id/agents", h.availableAgents)
}

func (h *Handler) listStates(c *gin.Context) {
	states, err := h.Locality.States(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, states)
}

// listCities returns active cities, optionally of one state.
func (h *Handler) listCities(c *gin.Context) {
	stateID, ok := queryID(c, "state_id")
	if !ok {
		return
	}
	cities, err := h.Locality.Cities(c.Request.Context(), stateID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cities)
}

func (h *Handler) getCity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	city, err := h.Locality.City(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, city)
}

// availableAgents lists active, online agents of a city, nearest first.
func (h *Handler) availableAgents(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	agents, err := h.Agents.Available(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, agents)
}

// Admin handlers

func (h *Handler) createState(c *gin.Context) {
	var req stateRequest
	if !bind(c, &req) {
		return
	}
	state, err := h.Locality.CreateState(c.Request.Context(), req.Name, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, state)
}

func (h *Handler) allCities(c *gin.Context) {
	stateID, ok := queryID(c, "state_id")
	if !ok {
		return
	}
	cities, err := h.Locality.Cities(c.Request.Context(), stateID, false)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cities)
}

func (h *Handler) createCity(c *gin.Context) {
	var req services.CityInput
	if !bind(c, &req) {
		return
	}
	city, err := h.Locality.CreateCity(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, city)
}

func (h *Handler) updateCity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.CityInput
	if !bind(c, &req) {
		return
	}
	city, err := h.Locality.UpdateCity(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, city)
}

func (h *Handler) setCityStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req cityStatusRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Locality.SetCityActive(c.Request.Context(), id, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "is_active": *req.IsActive})
}

func (h *Handler) deleteCity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Locality.DeleteCity(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "City deleted"})
}
