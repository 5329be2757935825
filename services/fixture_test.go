package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"repairhub-server/models"
	"repairhub-server/repository"
	"repairhub-server/services"
	"repairhub-server/testsupport"
	"repairhub-server/utils"
	"repairhub-server/wizard"
)

type sentEvent struct {
	UserID uint
	Event  services.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint, e services.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{UserID: userID, Event: e})
	return n.err
}

func (n *recordingNotifier) sentTo(userID uint, eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e.UserID == userID && e.Event.Type == eventType {
			count++
		}
	}
	return count
}

type fakeStorage struct {
	mu      sync.Mutex
	stored  map[string]string
	deleted []string
}

// Upload fails for content "boom" so tests can exercise per-file isolation.
func (s *fakeStorage) Upload(_ context.Context, r io.Reader, folder, name string) (services.StoredObject, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return services.StoredObject{}, err
	}
	if string(data) == "boom" {
		return services.StoredObject{}, errors.New("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	publicID := folder + "/" + name
	s.stored[publicID] = string(data)
	return services.StoredObject{PublicID: publicID, URL: "https://cdn.test/" + publicID}, nil
}

func (s *fakeStorage) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stored, publicID)
	s.deleted = append(s.deleted, publicID)
	return nil
}

type fakeGeocoder struct {
	result *utils.GeocodingResult
	err    error
}

func (g fakeGeocoder) Geocode(context.Context, string) (*utils.GeocodingResult, error) {
	return g.result, g.err
}

type fixture struct {
	ctx context.Context

	catalogRepo  *repository.CatalogRepository
	localityRepo *repository.LocalityRepository
	agentRepo    *repository.AgentRepository
	appRepo      *repository.ApplicationRepository
	bookingRepo  *repository.BookingRepository
	userRepo     *repository.UserRepository
	uploadRepo   *repository.UploadRepository
	pushRepo     *repository.PushTokenRepository

	notifier  *recordingNotifier
	storage   *fakeStorage
	tokens    *services.JWTService
	catalog   *services.CatalogService
	locality  *services.LocalityService
	agents    *services.AgentService
	auth      *services.AuthService
	apps      *services.ApplicationService
	bookings  *services.BookingService
	lifecycle *services.LifecycleService
	uploads   *services.UploadService
	reports   *services.ReportService

	city      *models.City
	otherCity *models.City
	mobile    models.Category
	apple     *models.Brand
	iphone    *models.Device
	screen    *models.Fault
	battery   *models.Fault

	customer  *models.User
	agentUser *models.User
	agent     *models.Agent
	admin     services.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testsupport.NewDB(t)
	f := &fixture{
		ctx:          context.Background(),
		catalogRepo:  repository.NewCatalogRepository(db),
		localityRepo: repository.NewLocalityRepository(db),
		agentRepo:    repository.NewAgentRepository(db),
		appRepo:      repository.NewApplicationRepository(db),
		bookingRepo:  repository.NewBookingRepository(db),
		userRepo:     repository.NewUserRepository(db),
		uploadRepo:   repository.NewUploadRepository(db),
		pushRepo:     repository.NewPushTokenRepository(db),
		notifier:     &recordingNotifier{},
		storage:      &fakeStorage{},
		tokens:       services.NewJWTService("test-secret", 1),
	}

	f.catalog = services.NewCatalogService(f.catalogRepo)
	f.locality = services.NewLocalityService(f.localityRepo)
	f.agents = services.NewAgentService(f.agentRepo, f.localityRepo, 15*time.Minute)
	f.auth = services.NewAuthService(f.userRepo, f.localityRepo, f.tokens)
	f.apps = services.NewApplicationService(f.appRepo, f.agentRepo, f.localityRepo, f.userRepo, f.uploadRepo, f.auth)
	f.bookings = services.NewBookingService(f.bookingRepo, f.catalogRepo, f.localityRepo, f.agentRepo,
		f.userRepo, f.uploadRepo, f.notifier, services.BookingSettings{
			BasePrice:  2000,
			MaxImages:  5,
			WindowDays: 2,
			Location:   time.UTC,
		})
	f.lifecycle = services.NewLifecycleService(f.bookingRepo, f.agentRepo, f.notifier)
	f.uploads = services.NewUploadService(f.storage, f.uploadRepo, "repairhub", 5, 24*time.Hour)
	f.reports = services.NewReportService(f.bookingRepo, f.agentRepo, f.appRepo, f.userRepo)

	f.seedWorld(t)
	return f
}

func (f *fixture) seedWorld(t *testing.T) {
	t.Helper()
	ctx := f.ctx

	state, err := f.locality.CreateState(ctx, "West Bengal", "wb")
	must(t, err)
	f.city, err = f.locality.CreateCity(ctx, services.CityInput{
		Name: "Kolkata", StateID: state.ID, Pincodes: []string{"700001", "700016"},
		Latitude: 22.5726, Longitude: 88.3639,
	})
	must(t, err)
	f.otherCity, err = f.locality.CreateCity(ctx, services.CityInput{
		Name: "Howrah", StateID: state.ID, Pincodes: []string{"711101"},
		Latitude: 22.5958, Longitude: 88.2636,
	})
	must(t, err)

	categories, err := f.catalog.Categories(ctx)
	must(t, err)
	for _, c := range categories {
		if c.Name == "Mobile" {
			f.mobile = c
		}
	}
	f.apple, err = f.catalog.AddBrand(ctx, f.mobile.ID, "Apple")
	must(t, err)
	f.iphone, err = f.catalog.CreateDevice(ctx, services.DeviceInput{CategoryID: f.mobile.ID, BrandID: f.apple.ID, Model: "iPhone 14"})
	must(t, err)
	f.screen, err = f.catalog.CreateFault(ctx, f.iphone.ID, services.FaultInput{Name: "Screen Cracked", Price: 80})
	must(t, err)
	f.battery, err = f.catalog.CreateFault(ctx, f.iphone.ID, services.FaultInput{Name: "Battery Drain", Price: 40})
	must(t, err)

	f.customer = f.user(t, "asha@example.com", models.RoleCustomer, &f.city.ID)
	f.agentUser = f.user(t, "fixit@example.com", models.RoleAgent, &f.city.ID)
	f.agent = &models.Agent{
		UserID: f.agentUser.ID, ShopName: "Fixit Kolkata", CityID: f.city.ID,
		Latitude: 22.58, Longitude: 88.36, IsActive: true, IsOnline: true,
		RatingAverage: 4.8, RatingCount: 245,
	}
	must(t, f.agentRepo.Create(ctx, f.agent))

	adminUser := f.user(t, "admin@example.com", models.RoleAdmin, nil)
	f.admin = services.Actor{UserID: adminUser.ID, Role: models.RoleAdmin}
}

func (f *fixture) user(t *testing.T, email string, role models.UserRole, cityID *uint) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	must(t, err)
	u := &models.User{FullName: email, Email: email, PasswordHash: hash, Role: role, CityID: cityID, IsActive: true}
	must(t, f.userRepo.Create(f.ctx, u))
	return u
}

// addAgent creates another approved agent.
func (f *fixture) addAgent(t *testing.T, email string, cityID uint, online bool) (*models.User, *models.Agent) {
	t.Helper()
	u := f.user(t, email, models.RoleAgent, &cityID)
	a := &models.Agent{UserID: u.ID, ShopName: email, CityID: cityID, IsActive: true, IsOnline: online}
	must(t, f.agentRepo.Create(f.ctx, a))
	return u, a
}

func (f *fixture) customerActor() services.Actor {
	return services.Actor{UserID: f.customer.ID, Role: models.RoleCustomer}
}

func (f *fixture) agentActor() services.Actor {
	return services.Actor{UserID: f.agentUser.ID, Role: models.RoleAgent}
}

// dropoffForm is the local dropoff booking used throughout the tests.
func (f *fixture) dropoffForm() wizard.Form {
	return wizard.Apply(wizard.Form{},
		wizard.SelectCategory{CategoryID: f.mobile.ID},
		wizard.SelectBrand{BrandID: f.apple.ID},
		wizard.SelectModel{Model: "iPhone 14"},
		wizard.ToggleFault{Fault: f.screen.Snapshot()},
		wizard.SelectServiceType{ServiceType: models.ServiceLocalDropoff},
		wizard.SelectAgent{AgentID: f.agent.ID},
		wizard.SelectDuration{Name: "standard"},
		wizard.SelectPayment{Method: models.PaymentCash},
	)
}

func (f *fixture) createBooking(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.bookings.Create(f.ctx, f.customer.ID, f.dropoffForm())
	must(t, err)
	return b
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

type namedFile struct {
	name string
	data string
}

func fileHeaders(t *testing.T, files ...namedFile) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		must(t, err)
		_, err = part.Write([]byte(f.data))
		must(t, err)
	}
	must(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	must(t, err)
	return form.File["files"]
}
