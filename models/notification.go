package models

import "time"

// PushToken is a device registration used when a user has no live socket.
type PushToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Token     string    `json:"token" gorm:"size:500;not null;uniqueIndex"`
	Platform  string    `json:"platform" gorm:"size:20;not null"` // ios, android, web
	DeviceID  string    `json:"device_id" gorm:"size:255"`
	Active    bool      `json:"active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PushToken) TableName() string {
	return "push_tokens"
}

// Upload tracks an object stored for a booking or application so that
// references never claimed by a submission can be removed later.
type Upload struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	PublicID  string     `json:"public_id" gorm:"size:255;uniqueIndex;not null"`
	URL       string     `json:"url" gorm:"size:500;uniqueIndex;not null"`
	OwnerID   *uint      `json:"owner_id" gorm:"index"`
	Purpose   string     `json:"purpose" gorm:"size:40;not null"`
	ClaimedAt *time.Time `json:"claimed_at" gorm:"index"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
}

func (Upload) TableName() string {
	return "uploads"
}

const (
	UploadPurposeBookingImage = "booking_image"
	UploadPurposeIDProof      = "id_proof"
	UploadPurposeShopImage    = "shop_image"
)
