package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAgent    UserRole = "agent"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	FullName     string   `json:"full_name" gorm:"size:255;not null"`
	Email        string   `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone        string   `json:"phone" gorm:"size:20"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	CityID       *uint    `json:"city_id"`
	IsActive     bool     `json:"is_active" gorm:"not null"`

	// Accounts provisioned through agent approval start with a single-use
	// temporary credential and must change it after the first login.
	MustChangePassword   bool       `json:"must_change_password" gorm:"not null;default:false"`
	TempCredentialUsedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate defaults the role to customer.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// IsValidRole checks if the user role is valid
func (u *User) IsValidRole() bool {
	switch u.Role {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

func (u *User) IsAgent() bool {
	return u.Role == RoleAgent
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
