package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

// agentTransitions lists the moves an assigned agent may make on their own.
var agentTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:    {models.BookingStatusAssigned, models.BookingStatusCancelled},
	models.BookingStatusAssigned:   {models.BookingStatusInProgress, models.BookingStatusCancelled},
	models.BookingStatusInProgress: {models.BookingStatusCompleted},
}

var openStatuses = []models.BookingStatus{
	models.BookingStatusPending,
	models.BookingStatusAssigned,
	models.BookingStatusInProgress,
}

func agentMayMove(from, to models.BookingStatus) bool {
	for _, s := range agentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LifecycleService applies post-creation changes to bookings. Every change
// is a guarded update plus one appended timeline entry.
type LifecycleService struct {
	bookings BookingStore
	agents   AgentStore
	notifier Notifier
	clock    Clock
}

func NewLifecycleService(bookings BookingStore, agents AgentStore, notifier Notifier) *LifecycleService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LifecycleService{bookings: bookings, agents: agents, notifier: notifier}
}

func (s *LifecycleService) agentFor(ctx context.Context, userID uint) (*models.Agent, error) {
	agent, err := s.agents.GetByUserID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("account is not linked to an agent")
		}
		return nil, err
	}
	return agent, nil
}

// assignedBooking loads a booking and checks it belongs to the agent.
func (s *LifecycleService) assignedBooking(ctx context.Context, userID, bookingID uint) (*models.Agent, *models.Booking, error) {
	agent, err := s.agentFor(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !booking.IsAssignedTo(agent.ID) {
		return nil, nil, apperr.Unauthorized("booking %s is not assigned to you", booking.DisplayID)
	}
	return agent, booking, nil
}

func (s *LifecycleService) entry(actor Actor, status, message string) models.TimelineEntry {
	return models.TimelineEntry{
		Status:    status,
		Message:   message,
		ActorID:   actor.ref(),
		ActorRole: string(actor.Role),
		CreatedAt: s.clock.now(),
	}
}

func (s *LifecycleService) notifyCustomer(ctx context.Context, booking *models.Booking, body string) {
	notify(ctx, s.notifier, booking.CustomerID, Event{
		Type:  EventBookingUpdated,
		Title: "Booking " + booking.DisplayID,
		Body:  body,
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"display_id": booking.DisplayID,
			"status":     booking.Status,
		},
	})
}

// Reassign gives an open booking to another agent and forces it to assigned.
func (s *LifecycleService) Reassign(ctx context.Context, admin Actor, bookingID, agentID uint) (*models.Booking, error) {
	if agentID == 0 {
		return nil, apperr.Validation("agent is required")
	}
	agent, err := s.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		return nil, apperr.Conflict("%s is deactivated", agent.ShopName)
	}
	before, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.Transition(ctx, bookingID, models.BookingTransition{
		From:    openStatuses,
		Status:  models.BookingStatusAssigned,
		AgentID: &agent.ID,
		Entry:   s.entry(admin, models.TimelineReassigned, "Booking reassigned to "+agent.ShopName),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🔁 Booking %s reassigned to agent %d by admin %d", booking.DisplayID, agent.ID, admin.UserID)

	notify(ctx, s.notifier, agent.UserID, Event{
		Type:  EventNewBooking,
		Title: "New booking",
		Body:  booking.DisplayID + " was assigned to you",
		Data:  map[string]interface{}{"booking_id": booking.ID, "display_id": booking.DisplayID},
	})
	if before.AgentID != nil && *before.AgentID != agent.ID {
		if prev, err := s.agents.Get(ctx, *before.AgentID); err == nil {
			notify(ctx, s.notifier, prev.UserID, Event{
				Type:  EventBookingUpdated,
				Title: "Booking " + booking.DisplayID,
				Body:  "This booking was moved to another agent",
				Data:  map[string]interface{}{"booking_id": booking.ID, "display_id": booking.DisplayID},
			})
		}
	}
	s.notifyCustomer(ctx, booking, "Your repair is now handled by "+agent.ShopName)
	return booking, nil
}

// Accept moves a pending or assigned booking to in-progress.
func (s *LifecycleService) Accept(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error) {
	agent, _, err := s.assignedBooking(ctx, actor.UserID, bookingID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.Transition(ctx, bookingID, models.BookingTransition{
		From:           []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAssigned},
		RequireAgentID: &agent.ID,
		Status:         models.BookingStatusInProgress,
		Entry:          s.entry(actor, models.TimelineAccepted, "Accepted by "+agent.ShopName),
	})
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, booking, agent.ShopName+" accepted your repair")
	return booking, nil
}

// Decline releases the booking back to pending with no agent.
func (s *LifecycleService) Decline(ctx context.Context, actor Actor, bookingID uint, reason string) (*models.Booking, error) {
	agent, _, err := s.assignedBooking(ctx, actor.UserID, bookingID)
	if err != nil {
		return nil, err
	}
	message := "Declined by " + agent.ShopName
	if reason = strings.TrimSpace(reason); reason != "" {
		message += ": " + reason
	}
	booking, err := s.bookings.Transition(ctx, bookingID, models.BookingTransition{
		From:           []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAssigned},
		RequireAgentID: &agent.ID,
		Status:         models.BookingStatusPending,
		ClearAgent:     true,
		Entry:          s.entry(actor, models.TimelineDeclined, message),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("↩️ Booking %s declined by agent %d", booking.DisplayID, agent.ID)
	s.notifyCustomer(ctx, booking, "We are finding another repair shop for you")
	return booking, nil
}

// UpdateStatus pushes an explicit status. Admins may set any status; agents
// follow agentTransitions on their own bookings.
func (s *LifecycleService) UpdateStatus(ctx context.Context, actor Actor, bookingID uint, status models.BookingStatus, message string) (*models.Booking, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown booking status %q", status)
	}

	var (
		booking *models.Booking
		t       models.BookingTransition
	)
	switch actor.Role {
	case models.RoleAdmin:
		b, err := s.bookings.Get(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		switch status {
		case models.BookingStatusAssigned:
			if b.AgentID == nil {
				return nil, apperr.Conflict("booking %s has no agent; reassign it instead", b.DisplayID)
			}
			t.RequireAgentID = b.AgentID
		case models.BookingStatusPending:
			t.ClearAgent = true
		}
		booking = b
	case models.RoleAgent:
		agent, b, err := s.assignedBooking(ctx, actor.UserID, bookingID)
		if err != nil {
			return nil, err
		}
		if !agentMayMove(b.Status, status) {
			return nil, apperr.Conflict("a %s booking cannot be moved to %s", b.Status, status)
		}
		t.RequireAgentID = &agent.ID
		booking = b
	default:
		return nil, apperr.Unauthorized("only admins and the assigned agent can change a booking's status")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = fmt.Sprintf("Status changed to %s", status)
	}
	t.From = []models.BookingStatus{booking.Status}
	t.Status = status
	t.CreditAgent = status == models.BookingStatusCompleted
	t.Entry = s.entry(actor, string(status), message)

	updated, err := s.bookings.Transition(ctx, bookingID, t)
	if err != nil {
		return nil, err
	}
	log.Printf("📋 Booking %s: %s -> %s by %s %d", updated.DisplayID, booking.Status, status, actor.Role, actor.UserID)
	s.notifyCustomer(ctx, updated, message)
	return updated, nil
}

// Cancel lets the owning customer cancel before work starts.
func (s *LifecycleService) Cancel(ctx context.Context, actor Actor, bookingID uint, reason string) (*models.Booking, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != actor.UserID {
		return nil, apperr.Unauthorized("you can only cancel your own bookings")
	}
	message := "Cancelled by customer"
	if reason = strings.TrimSpace(reason); reason != "" {
		message += ": " + reason
	}
	updated, err := s.bookings.Transition(ctx, bookingID, models.BookingTransition{
		From:   []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAssigned},
		Status: models.BookingStatusCancelled,
		Entry:  s.entry(actor, string(models.BookingStatusCancelled), message),
	})
	if err != nil {
		return nil, err
	}
	if booking.AgentID != nil {
		if agent, err := s.agents.Get(ctx, *booking.AgentID); err == nil {
			notify(ctx, s.notifier, agent.UserID, Event{
				Type:  EventBookingUpdated,
				Title: "Booking " + updated.DisplayID,
				Body:  "The customer cancelled this booking",
				Data:  map[string]interface{}{"booking_id": updated.ID, "status": updated.Status},
			})
		}
	}
	return updated, nil
}

// Review records the customer's single rating of a completed booking.
func (s *LifecycleService) Review(ctx context.Context, actor Actor, bookingID uint, rating int, comment string) (*models.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > 1000 {
		return nil, apperr.Validation("comment is too long")
	}
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != actor.UserID {
		return nil, apperr.Unauthorized("you can only review your own bookings")
	}
	if booking.HasReview() {
		return nil, apperr.Conflict("booking %s has already been reviewed", booking.DisplayID)
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, apperr.Conflict("only completed bookings can be reviewed")
	}
	entry := s.entry(actor, models.TimelineReviewed, fmt.Sprintf("Rated %d/5 by customer", rating))
	return s.bookings.AddReview(ctx, bookingID, rating, comment, entry)
}

// UpdatePaymentStatus records a payment outcome on the booking.
func (s *LifecycleService) UpdatePaymentStatus(ctx context.Context, admin Actor, bookingID uint, status models.PaymentStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown payment status %q", status)
	}
	booking, err := s.bookings.Transition(ctx, bookingID, models.BookingTransition{
		PaymentStatus: status,
		Entry:         s.entry(admin, "payment_"+string(status), "Payment marked "+string(status)),
	})
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, booking, "Payment status: "+string(status))
	return booking, nil
}
