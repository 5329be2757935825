package models

import "time"

type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Icon      string    `json:"icon" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Category) TableName() string {
	return "categories"
}

// Brand names are unique within a category.
type Brand struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CategoryID uint      `json:"category_id" gorm:"not null;uniqueIndex:idx_brand_category_name"`
	Name       string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_brand_category_name"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Brand) TableName() string {
	return "brands"
}

// Device is identified by its (category, brand, model) triple.
type Device struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CategoryID uint      `json:"category_id" gorm:"not null;uniqueIndex:idx_device_identity"`
	BrandID    uint      `json:"brand_id" gorm:"not null;uniqueIndex:idx_device_identity"`
	Model      string    `json:"model" gorm:"size:150;not null;uniqueIndex:idx_device_identity"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Brand    *Brand    `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

func (Device) TableName() string {
	return "devices"
}

// Fault is a priced defect for a device. Faults are never removed, only
// deactivated, so bookings keep a consistent snapshot of what was selected.
type Fault struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	DeviceID    uint      `json:"device_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:150;not null"`
	Description string    `json:"description" gorm:"size:1000"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Fault) TableName() string {
	return "faults"
}

// Snapshot copies the fields a booking keeps for this fault.
func (f Fault) Snapshot() FaultSnapshot {
	return FaultSnapshot{ID: f.ID, Name: f.Name, Price: f.Price}
}

// DurationTier is an admin configured turnaround option.
type DurationTier struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:50;uniqueIndex;not null"`
	Label       string    `json:"label" gorm:"size:100"`
	Description string    `json:"description" gorm:"size:255"`
	ExtraCharge float64   `json:"extra_charge" gorm:"type:decimal(10,2);not null"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (DurationTier) TableName() string {
	return "duration_tiers"
}
