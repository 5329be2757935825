package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

var ExperienceBands = []string{"0-1", "1-3", "3-5", "5-10", "10+"}

var Specializations = []string{
	"Mobile Phone Repair",
	"Tablet Repair",
	"Laptop Repair",
	"Smartwatch Repair",
	"Audio Device Repair",
	"Gaming Console Repair",
}

const MaxShopImages = 5

type AgentApplication struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	Name            string            `json:"name" gorm:"size:255;not null"`
	Email           string            `json:"email" gorm:"size:255;not null;index"`
	Phone           string            `json:"phone" gorm:"size:20;not null"`
	ShopName        string            `json:"shop_name" gorm:"size:255;not null"`
	ShopAddress     string            `json:"shop_address" gorm:"size:500;not null"`
	CityID          uint              `json:"city_id" gorm:"not null"`
	Pincode         string            `json:"pincode" gorm:"size:10;not null"`
	ExperienceBand  string            `json:"experience_band" gorm:"size:10;not null"`
	Specializations []string          `json:"specializations" gorm:"type:text;serializer:json"`
	IDProof         string            `json:"id_proof" gorm:"size:500"`
	ShopImages      []string          `json:"shop_images" gorm:"type:text;serializer:json"`
	Status          ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewedBy      *uint             `json:"reviewed_by"`
	ReviewedAt      *time.Time        `json:"reviewed_at"`
	RejectionReason string            `json:"rejection_reason" gorm:"size:1000"`
	AgentID         *uint             `json:"agent_id"`
	CreatedAt       time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (AgentApplication) TableName() string {
	return "agent_applications"
}

func (a AgentApplication) IsPending() bool {
	return a.Status == ApplicationPending
}

func IsValidExperienceBand(band string) bool {
	for _, b := range ExperienceBands {
		if b == band {
			return true
		}
	}
	return false
}

func IsValidSpecialization(s string) bool {
	for _, v := range Specializations {
		if v == s {
			return true
		}
	}
	return false
}
