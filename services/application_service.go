package services

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/utils"
)

const tempCredentialLength = 10

// Geocoder resolves a postal address to coordinates. A nil result means the
// address was not found.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*utils.GeocodingResult, error)
}

// ApplicationService runs the agent application workflow:
// pending -> approved | rejected, both terminal.
type ApplicationService struct {
	apps        ApplicationStore
	agents      AgentStore
	cities      LocalityStore
	users       UserStore
	uploads     UploadStore
	provisioner AccountProvisioner
	geocoder    Geocoder
	clock       Clock
}

func NewApplicationService(apps ApplicationStore, agents AgentStore, cities LocalityStore, users UserStore,
	uploads UploadStore, provisioner AccountProvisioner) *ApplicationService {
	return &ApplicationService{
		apps:        apps,
		agents:      agents,
		cities:      cities,
		users:       users,
		uploads:     uploads,
		provisioner: provisioner,
	}
}

// WithGeocoder enables shop address lookup on approval.
func (s *ApplicationService) WithGeocoder(g Geocoder) *ApplicationService {
	s.geocoder = g
	return s
}

type ApplicationInput struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ShopName        string   `json:"shop_name"`
	ShopAddress     string   `json:"shop_address"`
	CityID          uint     `json:"city_id"`
	Pincode         string   `json:"pincode"`
	ExperienceBand  string   `json:"experience_band"`
	Specializations []string `json:"specializations"`
	IDProof         string   `json:"id_proof"`
	ShopImages      []string `json:"shop_images"`
}

func (in ApplicationInput) validate() (*models.AgentApplication, error) {
	app := &models.AgentApplication{
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:          strings.TrimSpace(in.Phone),
		ShopName:       strings.TrimSpace(in.ShopName),
		ShopAddress:    strings.TrimSpace(in.ShopAddress),
		CityID:         in.CityID,
		Pincode:        strings.TrimSpace(in.Pincode),
		ExperienceBand: strings.TrimSpace(in.ExperienceBand),
		IDProof:        strings.TrimSpace(in.IDProof),
		Status:         models.ApplicationPending,
	}

	required := []struct{ field, value string }{
		{"name", app.Name},
		{"email", app.Email},
		{"phone", app.Phone},
		{"shop name", app.ShopName},
		{"shop address", app.ShopAddress},
		{"pincode", app.Pincode},
		{"id proof", app.IDProof},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, apperr.Validation("%s is required", r.field)
		}
	}
	if _, err := mail.ParseAddress(app.Email); err != nil {
		return nil, apperr.Validation("email address is not valid")
	}
	if app.CityID == 0 {
		return nil, apperr.Validation("city is required")
	}
	if !models.IsValidExperienceBand(app.ExperienceBand) {
		return nil, apperr.Validation("experience must be one of %s", strings.Join(models.ExperienceBands, ", "))
	}
	specs, err := validateSpecializations(in.Specializations)
	if err != nil {
		return nil, err
	}
	app.Specializations = specs

	for _, img := range in.ShopImages {
		if img = strings.TrimSpace(img); img != "" {
			app.ShopImages = append(app.ShopImages, img)
		}
	}
	if len(app.ShopImages) > models.MaxShopImages {
		return nil, apperr.Validation("at most %d shop images are allowed", models.MaxShopImages)
	}
	return app, nil
}

// Submit records a new pending application. Only one unresolved application
// per email is allowed and the email must not belong to an existing account.
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput) (*models.AgentApplication, error) {
	app, err := in.validate()
	if err != nil {
		return nil, err
	}

	city, err := s.cities.GetCity(ctx, app.CityID)
	if err != nil {
		return nil, err
	}
	if !city.IsActive {
		return nil, apperr.Validation("%s is not currently served", city.Name)
	}
	if !city.HasPincode(app.Pincode) {
		return nil, apperr.Validation("pincode %s is not served in %s", app.Pincode, city.Name)
	}

	pending, err := s.apps.HasPendingForEmail(ctx, app.Email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("an application for %s is already awaiting review", app.Email)
	}
	taken, err := s.users.EmailTaken(ctx, app.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("an account with email %s already exists", app.Email)
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	refs := append([]string{app.IDProof}, app.ShopImages...)
	if err := s.uploads.Claim(ctx, refs, s.clock.now()); err != nil {
		log.Printf("⚠️ Failed to claim uploads for application %d: %v", app.ID, err)
	}
	log.Printf("📝 Agent application %d submitted for %s", app.ID, app.ShopName)
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.AgentApplication, error) {
	return s.apps.Get(ctx, id)
}

func (s *ApplicationService) List(ctx context.Context, status models.ApplicationStatus, page models.Page) ([]models.AgentApplication, int64, error) {
	switch status {
	case "", models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		return nil, 0, apperr.Validation("unknown application status %q", status)
	}
	return s.apps.List(ctx, status, page)
}

// ApprovalResult is handed back to the reviewing admin, who relays the
// temporary credential to the applicant.
type ApprovalResult struct {
	Application    *models.AgentApplication `json:"application"`
	Agent          *models.Agent            `json:"agent"`
	Email          string                   `json:"email"`
	TempCredential string                   `json:"temp_credential"`
}

// Approve provisions the agent account and record for a pending application.
// Steps already taken are undone when a later step fails.
func (s *ApplicationService) Approve(ctx context.Context, id, reviewerID uint) (*ApprovalResult, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, apperr.Conflict("application has already been %s", app.Status)
	}

	city, err := s.cities.GetCity(ctx, app.CityID)
	if err != nil {
		return nil, err
	}

	credential, err := utils.GenerateTempCredential(tempCredentialLength)
	if err != nil {
		return nil, apperr.Dependency(err, "failed to generate a temporary credential")
	}

	userID, err := s.provisioner.CreateAccount(ctx, AccountRequest{
		Name:           app.Name,
		Email:          app.Email,
		Phone:          app.Phone,
		TempCredential: credential,
		Role:           models.RoleAgent,
		CityID:         app.CityID,
	})
	if err != nil {
		return nil, err
	}

	lat, lng := s.locateShop(ctx, app, city)
	appID := app.ID
	agent := &models.Agent{
		UserID:          userID,
		ApplicationID:   &appID,
		ShopName:        app.ShopName,
		ShopStreet:      app.ShopAddress,
		ShopCity:        city.Name,
		ShopPincode:     app.Pincode,
		CityID:          app.CityID,
		Latitude:        lat,
		Longitude:       lng,
		Specializations: app.Specializations,
		ExperienceBand:  app.ExperienceBand,
		ShopImages:      app.ShopImages,
		IsActive:        true,
	}
	if city.State != nil {
		agent.ShopState = city.State.Name
	}

	if err := s.agents.Create(ctx, agent); err != nil {
		s.undoAccount(ctx, userID)
		return nil, err
	}

	if err := s.apps.MarkApproved(ctx, app.ID, reviewerID, agent.ID, s.clock.now()); err != nil {
		if delErr := s.agents.Delete(ctx, agent.ID); delErr != nil {
			log.Printf("❌ Failed to remove agent %d after approval error: %v", agent.ID, delErr)
		}
		s.undoAccount(ctx, userID)
		return nil, err
	}

	approved, err := s.apps.Get(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Application %d approved by admin %d, agent %d created", app.ID, reviewerID, agent.ID)
	return &ApprovalResult{
		Application:    approved,
		Agent:          agent,
		Email:          app.Email,
		TempCredential: credential,
	}, nil
}

func (s *ApplicationService) undoAccount(ctx context.Context, userID uint) {
	if err := s.provisioner.DeleteAccount(ctx, userID); err != nil {
		log.Printf("❌ Failed to remove account %d after approval error: %v", userID, err)
	}
}

// locateShop geocodes the shop address, falling back to the city centre.
func (s *ApplicationService) locateShop(ctx context.Context, app *models.AgentApplication, city *models.City) (float64, float64) {
	if s.geocoder == nil {
		return city.Latitude, city.Longitude
	}
	address := fmt.Sprintf("%s, %s %s", app.ShopAddress, city.Name, app.Pincode)
	res, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Printf("⚠️ Geocoding failed for application %d: %v", app.ID, err)
		return city.Latitude, city.Longitude
	}
	if res == nil {
		return city.Latitude, city.Longitude
	}
	return res.Latitude, res.Longitude
}

// Reject resolves a pending application with a mandatory reason.
func (s *ApplicationService) Reject(ctx context.Context, id, reviewerID uint, reason string) (*models.AgentApplication, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("a rejection reason is required")
	}
	if err := s.apps.MarkRejected(ctx, id, reviewerID, reason, s.clock.now()); err != nil {
		return nil, err
	}
	log.Printf("🚫 Application %d rejected by admin %d", id, reviewerID)
	return s.apps.Get(ctx, id)
}
