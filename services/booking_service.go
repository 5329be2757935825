package services

import (
	"context"
	"log"
	"strings"
	"time"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/wizard"
)

// Notification event types.
const (
	EventNewBooking     = "new_booking"
	EventBookingUpdated = "booking_updated"
)

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

func (a Actor) ref() *uint {
	id := a.UserID
	return &id
}

type BookingSettings struct {
	BasePrice  float64
	MaxImages  int
	WindowDays int
	Location   *time.Location
}

// BookingService is the booking engine: it validates a submitted wizard form
// against the catalog, the agent directory and the locality store, prices it
// and persists the booking.
type BookingService struct {
	bookings BookingStore
	catalog  CatalogStore
	cities   LocalityStore
	agents   AgentStore
	users    UserStore
	uploads  UploadStore
	notifier Notifier
	settings BookingSettings
	clock    Clock
}

func NewBookingService(bookings BookingStore, catalog CatalogStore, cities LocalityStore, agents AgentStore,
	users UserStore, uploads UploadStore, notifier Notifier, settings BookingSettings) *BookingService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &BookingService{
		bookings: bookings,
		catalog:  catalog,
		cities:   cities,
		agents:   agents,
		users:    users,
		uploads:  uploads,
		notifier: notifier,
		settings: settings,
	}
}

func (s *BookingService) today() time.Time {
	return s.clock.now().In(s.settings.Location)
}

// Schedule lists the selectable collection/delivery dates and time slots.
type Schedule struct {
	Dates     []string `json:"dates"`
	TimeSlots []string `json:"time_slots"`
}

func (s *BookingService) Schedule() Schedule {
	return Schedule{
		Dates:     wizard.ScheduleWindow(s.today(), s.settings.WindowDays),
		TimeSlots: wizard.TimeSlots(),
	}
}

// FormCheck reports the completion of each wizard step for a form.
type FormCheck struct {
	Steps        map[string]bool `json:"steps"`
	FirstInvalid int             `json:"first_invalid_step"`
	CanSubmit    bool            `json:"can_submit"`
}

func (s *BookingService) CheckForm(form wizard.Form) FormCheck {
	check := FormCheck{Steps: make(map[string]bool, 4)}
	for step := wizard.StepDevice; step <= wizard.StepPayment; step++ {
		check.Steps[step.String()] = wizard.StepValid(form, step)
	}
	check.FirstInvalid = int(wizard.FirstInvalidStep(form))
	check.CanSubmit = check.FirstInvalid == 0
	return check
}

// Quote is the price breakdown for a duration tier.
type Quote struct {
	BasePrice           float64 `json:"base_price"`
	DurationExtraCharge float64 `json:"duration_extra_charge"`
	Discount            float64 `json:"discount"`
	TotalAmount         float64 `json:"total_amount"`
}

// Quote prices a duration tier. Promo codes never change the price.
func (s *BookingService) Quote(ctx context.Context, durationType string) (*Quote, error) {
	tier, err := s.selectableTier(ctx, durationType)
	if err != nil {
		return nil, err
	}
	q := price(s.settings.BasePrice, tier)
	return &q, nil
}

func price(base float64, tier *models.DurationTier) Quote {
	return Quote{
		BasePrice:           base,
		DurationExtraCharge: tier.ExtraCharge,
		Discount:            0,
		TotalAmount:         base + tier.ExtraCharge,
	}
}

func (s *BookingService) selectableTier(ctx context.Context, name string) (*models.DurationTier, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperr.Validation("duration is required")
	}
	tier, err := s.catalog.GetDurationTier(ctx, name)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Validation("unknown duration %q", name)
		}
		return nil, err
	}
	if !tier.IsActive {
		return nil, apperr.Validation("duration %q is not offered", name)
	}
	return tier, nil
}

// resolvedDevice is the catalog side of a submitted form.
type resolvedDevice struct {
	category *models.Category
	brand    *models.Brand
	device   *models.Device
	faults   []models.FaultSnapshot
}

func (s *BookingService) resolveDevice(ctx context.Context, form wizard.Form) (*resolvedDevice, error) {
	category, err := s.catalog.GetCategory(ctx, form.CategoryID)
	if err != nil {
		return nil, err
	}
	brand, err := s.catalog.GetBrand(ctx, form.BrandID)
	if err != nil {
		return nil, err
	}
	if brand.CategoryID != category.ID {
		return nil, apperr.Validation("brand %s does not belong to %s", brand.Name, category.Name)
	}
	out := &resolvedDevice{category: category, brand: brand}

	model := strings.TrimSpace(form.Model)
	if !form.CustomModel {
		device, err := s.catalog.FindDevice(ctx, category.ID, brand.ID, model)
		if err != nil {
			return nil, err
		}
		out.device = device
	}

	ids := form.FaultIDs()
	faults, err := s.catalog.GetFaults(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Fault, len(faults))
	for _, f := range faults {
		byID[f.ID] = f
	}

	deviceOK := make(map[uint]bool)
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("fault %d not found", id)
		}
		if !f.IsActive {
			return nil, apperr.Validation("fault %q is no longer offered", f.Name)
		}
		if out.device != nil {
			if f.DeviceID != out.device.ID {
				return nil, apperr.Validation("fault %q does not apply to %s", f.Name, out.device.Model)
			}
		} else {
			// custom models may use faults of any device of the same brand
			ok, seen := deviceOK[f.DeviceID]
			if !seen {
				d, err := s.catalog.GetDevice(ctx, f.DeviceID)
				if err != nil {
					return nil, err
				}
				ok = d.CategoryID == category.ID && d.BrandID == brand.ID
				deviceOK[f.DeviceID] = ok
			}
			if !ok {
				return nil, apperr.Validation("fault %q does not apply to %s %s", f.Name, brand.Name, category.Name)
			}
		}
		out.faults = append(out.faults, f.Snapshot())
	}
	return out, nil
}

// resolveFulfilment checks the agent and the address for the chosen channel.
// It returns the agent (nil for postal) and the booking's city.
func (s *BookingService) resolveFulfilment(ctx context.Context, customer *models.User, form wizard.Form) (*models.Agent, *models.City, error) {
	cityID := form.CityID
	if cityID == 0 && customer.CityID != nil {
		cityID = *customer.CityID
	}

	var agent *models.Agent
	if form.ServiceType != models.ServicePostal {
		a, err := s.agents.Get(ctx, form.AgentID)
		if err != nil {
			return nil, nil, err
		}
		if !a.Available() {
			return nil, nil, apperr.Conflict("%s is not taking bookings right now", a.ShopName)
		}
		if cityID == 0 {
			cityID = a.CityID
		}
		if a.CityID != cityID {
			return nil, nil, apperr.Validation("%s does not serve your city", a.ShopName)
		}
		agent = a
	}

	if cityID == 0 {
		return agent, nil, nil
	}
	city, err := s.cities.GetCity(ctx, cityID)
	if err != nil {
		return nil, nil, err
	}
	if form.ServiceType == models.ServiceLocalDropoff {
		return agent, city, nil
	}
	if !city.IsActive {
		return nil, nil, apperr.Validation("%s is not currently served", city.Name)
	}
	if !city.HasPincode(strings.TrimSpace(form.Pincode)) {
		return nil, nil, apperr.Validation("pincode %s is not served in %s", form.Pincode, city.Name)
	}
	return agent, city, nil
}

// Create validates a complete form and persists the booking. The booking
// starts as assigned when an agent is attached and pending otherwise, with a
// single created entry on its timeline.
func (s *BookingService) Create(ctx context.Context, customerID uint, form wizard.Form) (*models.Booking, error) {
	if step := wizard.FirstInvalidStep(form); step != 0 {
		return nil, apperr.Validation("step %d (%s) is incomplete", step, step)
	}
	if err := wizard.ValidateSchedule(form, s.today(), s.settings.WindowDays); err != nil {
		return nil, err
	}
	if len(form.Images) > s.settings.MaxImages {
		return nil, apperr.Validation("at most %d images are allowed", s.settings.MaxImages)
	}

	customer, err := s.users.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolveDevice(ctx, form)
	if err != nil {
		return nil, err
	}
	agent, city, err := s.resolveFulfilment(ctx, customer, form)
	if err != nil {
		return nil, err
	}
	tier, err := s.selectableTier(ctx, form.DurationType)
	if err != nil {
		return nil, err
	}
	quote := price(s.settings.BasePrice, tier)

	now := s.clock.now()
	booking := &models.Booking{
		CustomerID:             customer.ID,
		CategoryID:             resolved.category.ID,
		CategoryName:           resolved.category.Name,
		BrandID:                resolved.brand.ID,
		BrandName:              resolved.brand.Name,
		Model:                  strings.TrimSpace(form.Model),
		CustomModel:            form.CustomModel,
		Faults:                 resolved.faults,
		CustomFaultDescription: strings.TrimSpace(form.CustomFaultDescription),
		Images:                 form.Images,
		ServiceType:            form.ServiceType,
		DurationType:           tier.Name,
		PromoCode:              strings.TrimSpace(form.PromoCode),
		PaymentMethod:          form.PaymentMethod,
		PaymentStatus:          models.PaymentStatusPending,
		BasePrice:              quote.BasePrice,
		DurationExtraCharge:    quote.DurationExtraCharge,
		Discount:               quote.Discount,
		TotalAmount:            quote.TotalAmount,
		Status:                 models.BookingStatusPending,
		Timeline: []models.TimelineEntry{{
			Status:    models.TimelineCreated,
			Message:   "Booking created",
			ActorID:   &customer.ID,
			ActorRole: string(models.RoleCustomer),
			CreatedAt: now,
		}},
	}
	if resolved.device != nil {
		booking.DeviceID = &resolved.device.ID
	}
	if form.ServiceType != models.ServiceLocalDropoff {
		booking.Street = strings.TrimSpace(form.Street)
		booking.Pincode = strings.TrimSpace(form.Pincode)
	}
	if city != nil {
		booking.CityID = &city.ID
	}
	if form.ServiceType == models.ServiceCollectionDelivery {
		booking.CollectionDate, booking.CollectionTime = form.CollectionDate, form.CollectionTime
		booking.DeliveryDate, booking.DeliveryTime = form.DeliveryDate, form.DeliveryTime
	}
	if agent != nil {
		booking.AgentID = &agent.ID
		booking.Status = models.BookingStatusAssigned
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		log.Printf("❌ Failed to save booking for customer %d: %v", customer.ID, err)
		return nil, err
	}
	log.Printf("✅ Booking %s created (%s, total %.2f)", booking.DisplayID, booking.Status, booking.TotalAmount)

	if len(booking.Images) > 0 {
		if err := s.uploads.Claim(ctx, booking.Images, now); err != nil {
			log.Printf("⚠️ Failed to claim images for booking %s: %v", booking.DisplayID, err)
		}
	}
	if agent != nil {
		notify(ctx, s.notifier, agent.UserID, Event{
			Type:  EventNewBooking,
			Title: "New booking",
			Body:  booking.DisplayID + " for " + booking.BrandName + " " + booking.Model,
			Data:  map[string]interface{}{"booking_id": booking.ID, "display_id": booking.DisplayID},
		})
	}
	return booking, nil
}

// Get returns a booking visible to actor: its customer, its agent or an admin.
func (s *BookingService) Get(ctx context.Context, actor Actor, id uint) (*models.Booking, error) {
	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) GetByDisplayID(ctx context.Context, actor Actor, displayID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByDisplayID(ctx, strings.ToUpper(strings.TrimSpace(displayID)))
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) authorizeView(ctx context.Context, actor Actor, booking *models.Booking) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if booking.CustomerID == actor.UserID {
			return nil
		}
	case models.RoleAgent:
		agent, err := s.agents.GetByUserID(ctx, actor.UserID)
		if err == nil && booking.IsAssignedTo(agent.ID) {
			return nil
		}
	}
	return apperr.Unauthorized("you do not have access to this booking")
}

// CustomerBookings lists the caller's own bookings, newest first.
func (s *BookingService) CustomerBookings(ctx context.Context, customerID uint, status models.BookingStatus, page models.Page) ([]models.Booking, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("unknown booking status %q", status)
	}
	return s.bookings.List(ctx, models.BookingFilter{Status: status, CustomerID: &customerID, Page: page})
}

// AgentBookings lists bookings currently assigned to the agent behind userID.
func (s *BookingService) AgentBookings(ctx context.Context, userID uint, status models.BookingStatus, page models.Page) ([]models.Booking, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("unknown booking status %q", status)
	}
	agent, err := s.agents.GetByUserID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, 0, apperr.Unauthorized("account is not linked to an agent")
		}
		return nil, 0, err
	}
	return s.bookings.List(ctx, models.BookingFilter{Status: status, AgentID: &agent.ID, Page: page})
}

// List is the admin view over every booking.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.Validation("unknown booking status %q", filter.Status)
	}
	return s.bookings.List(ctx, filter)
}

// notify delivers best effort; failures are only logged.
func notify(ctx context.Context, n Notifier, userID uint, event Event) {
	if err := n.Notify(ctx, userID, event); err != nil {
		log.Printf("⚠️ Notification %s to user %d failed: %v", event.Type, userID, err)
	}
}
