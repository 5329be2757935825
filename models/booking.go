package models

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusInProgress BookingStatus = "in-progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAssigned, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceLocalDropoff       ServiceType = "local_dropoff"
	ServiceCollectionDelivery ServiceType = "collection_delivery"
	ServicePostal             ServiceType = "postal"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceLocalDropoff, ServiceCollectionDelivery, ServicePostal:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCash   PaymentMethod = "cash"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentOnline || p == PaymentCash
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// FaultSnapshot is the point-in-time copy of a fault stored on a booking.
type FaultSnapshot struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Booking struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	DisplayID  string `json:"display_id" gorm:"size:40;uniqueIndex;not null"`
	CustomerID uint   `json:"customer_id" gorm:"not null;index"`
	AgentID    *uint  `json:"agent_id" gorm:"index"`

	DeviceID     *uint  `json:"device_id"`
	CategoryID   uint   `json:"category_id" gorm:"not null"`
	CategoryName string `json:"category_name" gorm:"size:100"`
	BrandID      uint   `json:"brand_id" gorm:"not null"`
	BrandName    string `json:"brand_name" gorm:"size:100"`
	Model        string `json:"model" gorm:"size:150;not null"`
	CustomModel  bool   `json:"custom_model" gorm:"not null;default:false"`

	Faults                 []FaultSnapshot `json:"faults" gorm:"type:text;serializer:json"`
	CustomFaultDescription string          `json:"custom_fault_description" gorm:"size:2000"`
	Images                 []string        `json:"images" gorm:"type:text;serializer:json"`

	ServiceType    ServiceType `json:"service_type" gorm:"type:varchar(30);not null"`
	Street         string      `json:"street" gorm:"size:500"`
	Pincode        string      `json:"pincode" gorm:"size:10"`
	CityID         *uint       `json:"city_id"`
	CollectionDate string      `json:"collection_date" gorm:"size:10"`
	CollectionTime string      `json:"collection_time" gorm:"size:5"`
	DeliveryDate   string      `json:"delivery_date" gorm:"size:10"`
	DeliveryTime   string      `json:"delivery_time" gorm:"size:5"`

	DurationType  string        `json:"duration_type" gorm:"size:50;not null"`
	PromoCode     string        `json:"promo_code" gorm:"size:50"`
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`

	BasePrice           float64 `json:"base_price" gorm:"type:decimal(10,2);not null"`
	DurationExtraCharge float64 `json:"duration_extra_charge" gorm:"type:decimal(10,2);not null"`
	Discount            float64 `json:"discount" gorm:"type:decimal(10,2);not null;default:0"`
	TotalAmount         float64 `json:"total_amount" gorm:"type:decimal(10,2);not null"`

	Status   BookingStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	Timeline []TimelineEntry `json:"timeline" gorm:"foreignKey:BookingID"`

	ReviewRating  *int       `json:"review_rating"`
	ReviewComment string     `json:"review_comment" gorm:"size:1000"`
	ReviewedAt    *time.Time `json:"reviewed_at"`

	// CreditedAt records when the job was added to the agent's earnings.
	CreditedAt *time.Time `json:"credited_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Booking) TableName() string {
	return "bookings"
}

// HasReview reports whether the customer already reviewed the booking.
func (b Booking) HasReview() bool {
	return b.ReviewRating != nil
}

// IsAssignedTo reports whether agentID is the booking's current agent.
func (b Booking) IsAssignedTo(agentID uint) bool {
	return b.AgentID != nil && *b.AgentID == agentID
}

// FormatDisplayID renders the human readable booking code for a row id.
func FormatDisplayID(id uint) string {
	return fmt.Sprintf("REP%03d", id)
}

// TimelineEntry is one append-only audit record on a booking.
type TimelineEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BookingID uint      `json:"booking_id" gorm:"not null;index"`
	Status    string    `json:"status" gorm:"size:40;not null"`
	Message   string    `json:"message" gorm:"size:500"`
	ActorID   *uint     `json:"actor_id"`
	ActorRole string    `json:"actor_role" gorm:"size:20"`
	CreatedAt time.Time `json:"timestamp" gorm:"not null"`
}

func (TimelineEntry) TableName() string {
	return "booking_timeline_entries"
}

// Timeline entry statuses that are events rather than booking states.
const (
	TimelineCreated    = "created"
	TimelineAccepted   = "accepted"
	TimelineDeclined   = "declined"
	TimelineReassigned = "reassigned"
	TimelineReviewed   = "reviewed"
)

// BookingFilter narrows booking listings.
type BookingFilter struct {
	Status     BookingStatus
	CustomerID *uint
	AgentID    *uint
	Page       Page
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// BookingTransition describes one guarded change to a booking. The change
// applies only if the booking is in one of From (any status when empty) and,
// when RequireAgentID is set, is assigned to that agent.
type BookingTransition struct {
	From           []BookingStatus
	RequireAgentID *uint

	Status        BookingStatus
	AgentID       *uint
	ClearAgent    bool
	PaymentStatus PaymentStatus

	// CreditAgent adds the job and its amount to the agent's earnings,
	// unless the booking was already credited.
	CreditAgent bool

	Entry TimelineEntry
}
