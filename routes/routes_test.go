package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"repairhub-server/middleware"
	"repairhub-server/models"
	"repairhub-server/repository"
	"repairhub-server/routes"
	"repairhub-server/services"
	"repairhub-server/testsupport"
	"repairhub-server/utils"
	ws "repairhub-server/websocket"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Total   int64           `json:"total"`
}

// servers counts test servers so each gets its own client address and
// therefore its own auth rate limit bucket.
var servers atomic.Int32

type server struct {
	t      *testing.T
	ip     string
	router *gin.Engine
	tokens *services.JWTService
	users  *repository.UserRepository
	agents *repository.AgentRepository

	city   *models.City
	device *models.Device
	fault  *models.Fault
	brand  *models.Brand
	mobile uint
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testsupport.NewDB(t)
	ctx := context.Background()

	catalogRepo := repository.NewCatalogRepository(db)
	localityRepo := repository.NewLocalityRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	pushRepo := repository.NewPushTokenRepository(db)

	tokens := services.NewJWTService("routes-secret", 1)
	auth := services.NewAuthService(userRepo, localityRepo, tokens)
	h := &routes.Handler{
		Auth:     auth,
		Catalog:  services.NewCatalogService(catalogRepo),
		Locality: services.NewLocalityService(localityRepo),
		Agents:   services.NewAgentService(agentRepo, localityRepo, 15*time.Minute),
		Apps:     services.NewApplicationService(appRepo, agentRepo, localityRepo, userRepo, uploadRepo, auth),
		Bookings: services.NewBookingService(bookingRepo, catalogRepo, localityRepo, agentRepo, userRepo, uploadRepo, nil,
			services.BookingSettings{BasePrice: 2000, MaxImages: 5, WindowDays: 2, Location: time.UTC}),
		Lifecycle: services.NewLifecycleService(bookingRepo, agentRepo, nil),
		Reports:   services.NewReportService(bookingRepo, agentRepo, appRepo, userRepo),
		Push:      services.NewPushService(pushRepo),
		Hub:       ws.NewHub(),
	}

	router := gin.New()
	routes.RegisterRoutes(router, h, middleware.NewAuth(tokens, userRepo))

	s := &server{
		t: t, router: router, tokens: tokens, users: userRepo, agents: agentRepo,
		ip: fmt.Sprintf("10.0.%d.1:40000", servers.Add(1)),
	}

	state, err := h.Locality.CreateState(ctx, "West Bengal", "wb")
	s.must(err)
	s.city, err = h.Locality.CreateCity(ctx, services.CityInput{
		Name: "Kolkata", StateID: state.ID, Pincodes: []string{"700001"}, Latitude: 22.57, Longitude: 88.36,
	})
	s.must(err)
	categories, err := h.Catalog.Categories(ctx)
	s.must(err)
	for _, c := range categories {
		if c.Name == "Mobile" {
			s.mobile = c.ID
		}
	}
	s.brand, err = h.Catalog.AddBrand(ctx, s.mobile, "Apple")
	s.must(err)
	s.device, err = h.Catalog.CreateDevice(ctx, services.DeviceInput{CategoryID: s.mobile, BrandID: s.brand.ID, Model: "iPhone 14"})
	s.must(err)
	s.fault, err = h.Catalog.CreateFault(ctx, s.device.ID, services.FaultInput{Name: "Screen Cracked", Price: 80})
	s.must(err)
	return s
}

func (s *server) must(err error) {
	s.t.Helper()
	if err != nil {
		s.t.Fatal(err)
	}
}

func (s *server) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		s.must(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = s.ip
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		s.must(json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (s *server) decode(env envelope, v interface{}) {
	s.t.Helper()
	s.must(json.Unmarshal(env.Data, v))
}

func (s *server) user(email string, role models.UserRole) (*models.User, string) {
	s.t.Helper()
	hash, err := utils.HashPassword("password123")
	s.must(err)
	u := &models.User{FullName: email, Email: email, PasswordHash: hash, Role: role, CityID: &s.city.ID, IsActive: true}
	s.must(s.users.Create(context.Background(), u))
	tok, err := s.tokens.Issue(u.ID, role)
	s.must(err)
	return u, tok.AccessToken
}

func (s *server) agent(email string) (*models.Agent, string) {
	s.t.Helper()
	u, tok := s.user(email, models.RoleAgent)
	a := &models.Agent{UserID: u.ID, ShopName: "Fixit", CityID: s.city.ID, Latitude: 22.58, Longitude: 88.36, IsActive: true, IsOnline: true}
	s.must(s.agents.Create(context.Background(), a))
	return a, tok
}

func (s *server) bookingForm(agentID uint) gin.H {
	return gin.H{
		"category_id":    s.mobile,
		"brand_id":       s.brand.ID,
		"model":          "iPhone 14",
		"faults":         []models.FaultSnapshot{s.fault.Snapshot()},
		"service_type":   models.ServiceLocalDropoff,
		"agent_id":       agentID,
		"duration_type":  "standard",
		"payment_method": models.PaymentCash,
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	code, _ := s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
}

func TestErrorBodies(t *testing.T) {
	s := newServer(t)
	_, customer := s.user("asha@example.com", models.RoleCustomer)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		code   string
	}{
		{"validation", http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "x@example.com"}, http.StatusBadRequest, "validation_failure"},
		{"conflict", http.MethodPost, "/api/v1/auth/register", "", gin.H{"full_name": "A", "email": "asha@example.com", "password": "password123"}, http.StatusConflict, "conflict_failure"},
		{"bad login", http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "asha@example.com", "password": "wrong-password"}, http.StatusForbidden, "authorization_failure"},
		{"not found", http.MethodGet, "/api/v1/cities/999", "", nil, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/api/v1/bookings/abc", customer, nil, http.StatusBadRequest, "validation_failure"},
		{"admin only", http.MethodGet, "/api/v1/admin/stats", customer, nil, http.StatusForbidden, "authorization_failure"},
		{"agent only", http.MethodPost, "/api/v1/agent/online", customer, gin.H{"online": true}, http.StatusForbidden, "authorization_failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(tt.method, tt.path, tt.token, tt.body)
			if code != tt.status || env.Code != tt.code || env.Success || env.Error == "" {
				t.Fatalf("got %d %+v", code, env)
			}
		})
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newServer(t)
	code, env := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"full_name": "Asha", "email": "Asha@Example.com", "password": "password123", "city_id": s.city.ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("register = %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "asha@example.com", "password": "password123"})
	if code != http.StatusOK {
		t.Fatalf("login = %d %+v", code, env)
	}
	var session services.Session
	s.decode(env, &session)

	code, env = s.do(http.MethodGet, "/api/v1/auth/me", session.Token.AccessToken, nil)
	var me models.User
	s.decode(env, &me)
	if code != http.StatusOK || me.Email != "asha@example.com" || me.Role != models.RoleCustomer {
		t.Fatalf("me = %d %+v", code, me)
	}
}

func TestCatalogReads(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/catalog/faults?category_id=%d&brand_id=%d&model=iPhone+14", s.mobile, s.brand.ID), "", nil)
	var faults []models.Fault
	s.decode(env, &faults)
	if code != http.StatusOK || len(faults) != 1 || faults[0].Name != "Screen Cracked" {
		t.Fatalf("faults = %d %+v", code, faults)
	}

	code, env = s.do(http.MethodGet, "/api/v1/catalog/durations", "", nil)
	var tiers []models.DurationTier
	s.decode(env, &tiers)
	if code != http.StatusOK || len(tiers) == 0 {
		t.Fatalf("durations = %d %+v", code, tiers)
	}

	code, env = s.do(http.MethodGet, "/api/v1/booking/quote?duration=express", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("quote without session = %d", code)
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	_, customer := s.user("asha@example.com", models.RoleCustomer)
	agent, agentToken := s.agent("fixit@example.com")
	_, admin := s.user("admin@example.com", models.RoleAdmin)

	code, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/cities/%d/agents", s.city.ID), "", nil)
	if code != http.StatusOK {
		t.Fatalf("available agents = %d", code)
	}

	code, env = s.do(http.MethodPost, "/api/v1/bookings", customer, s.bookingForm(agent.ID))
	if code != http.StatusCreated {
		t.Fatalf("create = %d %+v", code, env)
	}
	var booking models.Booking
	s.decode(env, &booking)
	if booking.Status != models.BookingStatusAssigned || booking.DisplayID == "" {
		t.Fatalf("booking = %+v", booking)
	}

	code, _ = s.do(http.MethodGet, "/api/v1/bookings/code/"+booking.DisplayID, customer, nil)
	if code != http.StatusOK {
		t.Fatalf("by display id = %d", code)
	}

	path := fmt.Sprintf("/api/v1/agent/bookings/%d", booking.ID)
	if code, env = s.do(http.MethodPost, path+"/accept", agentToken, nil); code != http.StatusOK {
		t.Fatalf("accept = %d %+v", code, env)
	}
	if code, env = s.do(http.MethodPost, path+"/status", agentToken, gin.H{"status": "completed"}); code != http.StatusOK {
		t.Fatalf("complete = %d %+v", code, env)
	}
	if code, env = s.do(http.MethodPost, path+"/status", agentToken, gin.H{"status": "pending"}); code != http.StatusConflict {
		t.Fatalf("reopen = %d %+v", code, env)
	}

	review := fmt.Sprintf("/api/v1/bookings/%d/review", booking.ID)
	if code, env = s.do(http.MethodPost, review, customer, gin.H{"rating": 5, "comment": "great"}); code != http.StatusOK {
		t.Fatalf("review = %d %+v", code, env)
	}
	if code, _ = s.do(http.MethodPost, review, customer, gin.H{"rating": 4}); code != http.StatusConflict {
		t.Fatalf("second review = %d", code)
	}

	code, env = s.do(http.MethodGet, "/api/v1/admin/bookings?status=completed", admin, nil)
	if code != http.StatusOK || env.Total != 1 {
		t.Fatalf("admin list = %d total %d", code, env.Total)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings/export", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Disposition") == "" || w.Body.Len() == 0 {
		t.Fatalf("export = %d %q", w.Code, w.Header().Get("Content-Disposition"))
	}
}

func TestOtherCustomersCannotSeeBooking(t *testing.T) {
	s := newServer(t)
	_, owner := s.user("asha@example.com", models.RoleCustomer)
	_, other := s.user("bina@example.com", models.RoleCustomer)
	agent, _ := s.agent("fixit@example.com")

	_, env := s.do(http.MethodPost, "/api/v1/bookings", owner, s.bookingForm(agent.ID))
	var booking models.Booking
	s.decode(env, &booking)

	path := fmt.Sprintf("/api/v1/bookings/%d", booking.ID)
	if code, _ := s.do(http.MethodGet, path, other, nil); code != http.StatusForbidden {
		t.Fatalf("other customer view = %d", code)
	}
	if code, _ := s.do(http.MethodPost, path+"/cancel", other, nil); code != http.StatusForbidden {
		t.Fatalf("other customer cancel = %d", code)
	}
	if code, env := s.do(http.MethodPost, path+"/cancel", owner, gin.H{"reason": "changed my mind"}); code != http.StatusOK {
		t.Fatalf("owner cancel = %d %+v", code, env)
	}
}

func TestApplicationApprovalAndTemporaryCredential(t *testing.T) {
	s := newServer(t)
	_, admin := s.user("admin@example.com", models.RoleAdmin)

	code, env := s.do(http.MethodPost, "/api/v1/applications", "", services.ApplicationInput{
		Name: "Ravi Das", Email: "ravi@example.com", Phone: "9830000000",
		ShopName: "Ravi Mobiles", ShopAddress: "4 Lindsay Street", CityID: s.city.ID, Pincode: "700001",
		ExperienceBand: "3-5", Specializations: []string{"Mobile Phone Repair"},
		IDProof: "https://cdn.test/id.jpg", ShopImages: []string{"https://cdn.test/shop.jpg"},
	})
	if code != http.StatusCreated {
		t.Fatalf("submit = %d %+v", code, env)
	}
	var app models.AgentApplication
	s.decode(env, &app)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/applications/%d/approve", app.ID), admin, nil)
	if code != http.StatusOK {
		t.Fatalf("approve = %d %+v", code, env)
	}
	var result services.ApprovalResult
	s.decode(env, &result)

	_, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": result.Email, "password": result.TempCredential})
	var session services.Session
	s.decode(env, &session)
	if !session.MustChangePassword {
		t.Fatal("temporary session should require a password change")
	}
	token := session.Token.AccessToken

	if code, _ = s.do(http.MethodGet, "/api/v1/agent/profile", token, nil); code != http.StatusForbidden {
		t.Fatalf("profile before change = %d", code)
	}
	code, env = s.do(http.MethodPost, "/api/v1/auth/change-password", token, gin.H{
		"current_password": result.TempCredential, "new_password": "a-real-password",
	})
	if code != http.StatusOK {
		t.Fatalf("change password = %d %+v", code, env)
	}
	if code, env = s.do(http.MethodGet, "/api/v1/agent/profile", token, nil); code != http.StatusOK {
		t.Fatalf("profile after change = %d %+v", code, env)
	}
}

func TestUploadsNeedSessionForBookingImages(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads?purpose=booking_image", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous booking upload = %d", w.Code)
	}
}
