package services

import (
	"context"
	"io"
	"time"

	"repairhub-server/models"
)

// The stores below are implemented by the repository package.

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error

	ListBrands(ctx context.Context, categoryID uint) ([]models.Brand, error)
	GetBrand(ctx context.Context, id uint) (*models.Brand, error)
	FindOrCreateBrand(ctx context.Context, categoryID uint, name string) (*models.Brand, error)
	UpdateBrand(ctx context.Context, brand *models.Brand) error

	ListDevices(ctx context.Context, categoryID, brandID uint) ([]models.Device, error)
	GetDevice(ctx context.Context, id uint) (*models.Device, error)
	FindDevice(ctx context.Context, categoryID, brandID uint, model string) (*models.Device, error)
	CreateDevice(ctx context.Context, device *models.Device) error
	UpdateDevice(ctx context.Context, device *models.Device) error

	ListFaults(ctx context.Context, deviceID uint, activeOnly bool) ([]models.Fault, error)
	GetFault(ctx context.Context, id uint) (*models.Fault, error)
	GetFaults(ctx context.Context, ids []uint) ([]models.Fault, error)
	CreateFault(ctx context.Context, fault *models.Fault) error
	UpdateFault(ctx context.Context, fault *models.Fault) error
	SetFaultActive(ctx context.Context, id uint, active bool) error

	ListDurationTiers(ctx context.Context, activeOnly bool) ([]models.DurationTier, error)
	GetDurationTier(ctx context.Context, name string) (*models.DurationTier, error)
	SaveDurationTier(ctx context.Context, tier *models.DurationTier) error
}

type LocalityStore interface {
	ListStates(ctx context.Context) ([]models.State, error)
	GetState(ctx context.Context, id uint) (*models.State, error)
	CreateState(ctx context.Context, state *models.State) error

	ListCities(ctx context.Context, stateID uint, activeOnly bool) ([]models.City, error)
	GetCity(ctx context.Context, id uint) (*models.City, error)
	ActiveNameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	CreateCity(ctx context.Context, city *models.City) error
	UpdateCity(ctx context.Context, city *models.City) error
	SetCityActive(ctx context.Context, id uint, active bool) error
	DeleteCity(ctx context.Context, id uint) error
}

type AgentStore interface {
	Create(ctx context.Context, agent *models.Agent) error
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*models.Agent, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Agent, error)
	ListAvailable(ctx context.Context, cityID uint) ([]models.Agent, error)
	List(ctx context.Context, cityID uint, page models.Page) ([]models.Agent, int64, error)
	SetOnline(ctx context.Context, id uint, online bool, at time.Time) error
	Touch(ctx context.Context, id uint, at time.Time) error
	SetActive(ctx context.Context, id uint, active bool) error
	UpdateProfile(ctx context.Context, agent *models.Agent) error
	RecordPayout(ctx context.Context, id uint, amount float64) error
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type ApplicationStore interface {
	Create(ctx context.Context, app *models.AgentApplication) error
	Get(ctx context.Context, id uint) (*models.AgentApplication, error)
	HasPendingForEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, status models.ApplicationStatus, page models.Page) ([]models.AgentApplication, int64, error)
	MarkApproved(ctx context.Context, id, reviewerID, agentID uint, at time.Time) error
	MarkRejected(ctx context.Context, id, reviewerID uint, reason string, at time.Time) error
	CountPending(ctx context.Context) (int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	Get(ctx context.Context, id uint) (*models.Booking, error)
	GetByDisplayID(ctx context.Context, displayID string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error)
	Transition(ctx context.Context, id uint, t models.BookingTransition) (*models.Booking, error)
	AddReview(ctx context.Context, id uint, rating int, comment string, entry models.TimelineEntry) (*models.Booking, error)
	Count(ctx context.Context, statuses ...models.BookingStatus) (int64, error)
	PaidRevenue(ctx context.Context) (float64, error)
}

type UserStore interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	ConsumeTempCredential(ctx context.Context, id uint, at time.Time) error
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type UploadStore interface {
	Record(ctx context.Context, upload *models.Upload) error
	Claim(ctx context.Context, urls []string, at time.Time) error
	ListOrphans(ctx context.Context, cutoff time.Time, limit int) ([]models.Upload, error)
	Delete(ctx context.Context, id uint) error
}

// ObjectStorage stores image bytes and returns a stable public reference.
type ObjectStorage interface {
	Upload(ctx context.Context, r io.Reader, folder, name string) (StoredObject, error)
	Delete(ctx context.Context, publicID string) error
}

type StoredObject struct {
	PublicID string
	URL      string
}

// AccountProvisioner creates login accounts for approved agents.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, req AccountRequest) (uint, error)
	DeleteAccount(ctx context.Context, id uint) error
}

type AccountRequest struct {
	Name           string
	Email          string
	Phone          string
	TempCredential string
	Role           models.UserRole
	CityID         uint
}

// Notifier publishes best-effort events to a user. Implementations must not
// block the caller for long and failures are never fatal.
type Notifier interface {
	Notify(ctx context.Context, userID uint, event Event) error
}

type Event struct {
	Type  string                 `json:"type"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uint, Event) error { return nil }

type PushTokenStore interface {
	Upsert(ctx context.Context, token *models.PushToken) error
	ActiveTokens(ctx context.Context, userID uint) ([]string, error)
	Deactivate(ctx context.Context, token string) error
}
