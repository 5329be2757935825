package models

import "time"

type State struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Code string `json:"code" gorm:"size:10"`
}

func (State) TableName() string {
	return "states"
}

// City is hard deleted, unlike faults.
type City struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null;index"`
	StateID   uint      `json:"state_id" gorm:"not null;index"`
	Pincodes  []string  `json:"pincodes" gorm:"type:text;serializer:json"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsActive  bool      `json:"is_active" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	State *State `json:"state,omitempty" gorm:"foreignKey:StateID"`
}

func (City) TableName() string {
	return "cities"
}

// HasPincode reports whether pincode is served by the city.
func (c City) HasPincode(pincode string) bool {
	for _, p := range c.Pincodes {
		if p == pincode {
			return true
		}
	}
	return false
}
