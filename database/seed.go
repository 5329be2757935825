package database

import (
	"errors"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"repairhub-server/config"
	"repairhub-server/models"
)

// DefaultDurationTiers are created on first start.
var DefaultDurationTiers = []models.DurationTier{
	{Name: "express", Label: "Express (Same Day)", Description: "Repaired the same day", ExtraCharge: 1000, SortOrder: 1, IsActive: true},
	{Name: "standard", Label: "Standard (1-2 Days)", Description: "Repaired within two days", ExtraCharge: 500, SortOrder: 2, IsActive: true},
	{Name: "economy", Label: "Economy (3-5 Days)", Description: "Repaired within five days", ExtraCharge: 0, SortOrder: 3, IsActive: true},
}

var DefaultCategories = []models.Category{
	{Name: "Mobile", Icon: "smartphone"},
	{Name: "Tablet", Icon: "tablet"},
	{Name: "Laptop", Icon: "laptop"},
	{Name: "Smartwatch", Icon: "watch"},
	{Name: "Audio", Icon: "headphones"},
	{Name: "Gaming Console", Icon: "gamepad"},
}

// Seed inserts default reference data and the bootstrap admin. Existing rows
// are left alone.
func Seed(db *gorm.DB, cfg *config.Config) error {
	for _, tier := range DefaultDurationTiers {
		t := tier
		if err := db.Where("name = ?", t.Name).FirstOrCreate(&t).Error; err != nil {
			return err
		}
	}

	for _, category := range DefaultCategories {
		c := category
		if err := db.Where("name = ?", c.Name).FirstOrCreate(&c).Error; err != nil {
			return err
		}
	}

	if cfg != nil && cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := seedAdmin(db, cfg.Admin); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(db *gorm.DB, admin config.AdminConfig) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := models.User{
		FullName:     admin.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	log.Printf("✅ Bootstrap admin %s created", email)
	return nil
}
