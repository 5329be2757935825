package models

import "time"

// Agent is an approved repair shop. Agents are only created by approving an
// AgentApplication.
type Agent struct {
	ID              uint     `json:"id" gorm:"primaryKey"`
	UserID          uint     `json:"user_id" gorm:"not null;uniqueIndex"`
	ApplicationID   *uint    `json:"application_id" gorm:"index"`
	ShopName        string   `json:"shop_name" gorm:"size:255;not null"`
	ShopStreet      string   `json:"shop_street" gorm:"size:500"`
	ShopCity        string   `json:"shop_city" gorm:"size:100"`
	ShopPincode     string   `json:"shop_pincode" gorm:"size:10"`
	ShopState       string   `json:"shop_state" gorm:"size:100"`
	CityID          uint     `json:"city_id" gorm:"not null;index"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	Specializations []string `json:"specializations" gorm:"type:text;serializer:json"`
	ExperienceBand  string   `json:"experience_band" gorm:"size:10"`
	ShopImages      []string `json:"shop_images" gorm:"type:text;serializer:json"`

	RatingAverage   float64 `json:"rating_average" gorm:"not null;default:0"`
	RatingCount     int     `json:"rating_count" gorm:"not null;default:0"`
	CompletedJobs   int     `json:"completed_jobs" gorm:"not null;default:0"`
	EarningsTotal   float64 `json:"earnings_total" gorm:"type:decimal(12,2);not null;default:0"`
	EarningsPaid    float64 `json:"earnings_paid" gorm:"type:decimal(12,2);not null;default:0"`
	EarningsPending float64 `json:"earnings_pending" gorm:"type:decimal(12,2);not null;default:0"`

	IsOnline  bool       `json:"is_online" gorm:"not null;index"`
	IsActive  bool       `json:"is_active" gorm:"not null;index"`
	LastSeen  *time.Time `json:"last_seen"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Agent) TableName() string {
	return "agents"
}

// Available reports whether the agent can take new bookings.
func (a Agent) Available() bool {
	return a.IsActive && a.IsOnline
}

// AgentWithDistance is an agent ranked by distance from a customer.
type AgentWithDistance struct {
	Agent
	DistanceKm float64 `json:"distance_km"`
}
