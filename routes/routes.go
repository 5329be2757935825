package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"repairhub-server/apperr"
	"repairhub-server/middleware"
	"repairhub-server/models"
	"repairhub-server/services"
	ws "repairhub-server/websocket"
)

// Handler carries the services behind every route.
type Handler struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Locality  *services.LocalityService
	Agents    *services.AgentService
	Apps      *services.ApplicationService
	Bookings  *services.BookingService
	Lifecycle *services.LifecycleService
	Uploads   *services.UploadService
	Reports   *services.ReportService
	Push      *services.PushService
	Hub       *ws.Hub
}

// RegisterRoutes mounts the health check and the /api/v1 tree.
func RegisterRoutes(router *gin.Engine, h *Handler, auth *middleware.Auth) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "RepairHub server is running",
			"time":    time.Now().UTC(),
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		RegisterAuthRoutes(apiV1, h, auth)
		RegisterCatalogRoutes(apiV1, h)
		RegisterLocalityRoutes(apiV1, h)
		RegisterApplicationRoutes(apiV1, h)
		RegisterUploadRoutes(apiV1, h, auth)

		// everything below needs a session that has left its temporary credential
		protected := apiV1.Group("", auth.Required(), middleware.RequirePasswordChanged())
		RegisterBookingRoutes(protected, h)
		RegisterAgentRoutes(protected, h)
		RegisterNotificationRoutes(protected, h)

		admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		RegisterAdminRoutes(admin, h)

		apiV1.GET("/ws", auth.WebSocket(), h.serveWebSocket)
	}
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:    http.StatusBadRequest,
	apperr.KindConflict:      http.StatusConflict,
	apperr.KindAuthorization: http.StatusForbidden,
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindDependency:    http.StatusBadGateway,
}

// respondError writes the error body for err. Unclassified errors are
// reported as dependency failures without leaking their text.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || kind == apperr.KindDependency {
		log.Printf("❌ %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   apperr.MessageOf(err),
		"code":    kind,
	})
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondPage(c *gin.Context, data interface{}, total int64, page models.Page) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"total":   total,
		"page":    page.Page,
		"limit":   page.Limit,
	})
}

// bind decodes the JSON body into v, answering 400 when it cannot.
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional numeric query parameter; absent means zero.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) models.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return models.Page{Page: page, Limit: limit}
}

func actor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID: c.GetUint(middleware.ContextUserID),
		Role:   models.UserRole(c.GetString(middleware.ContextRole)),
	}
}

func (h *Handler) serveWebSocket(c *gin.Context) {
	ws.ServeWebSocket(h.Hub, c.Writer, c.Request, c.GetUint(middleware.ContextUserID), c.GetString(middleware.ContextRole))
}
