package model

import (
	"time"
)

const (
	TypeCustomer = "customer"
	TypeBusiness = "business"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	FirstName    string   `gorm:"size:150" json:"first_name"`
	LastName     string   `gorm:"size:150" json:"last_name"`
	Type         string   `gorm:"size:20;not null;default:'customer'" json:"type"`
	IsStaff      bool     `gorm:"not null;default:false" json:"-"`
	Profile      *Profile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Profile extends a User with contact details and the mirrored account type.
// The free-text fields default to empty strings and are never null in output.
type Profile struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user"`
	User         *User  `gorm:"foreignKey:UserID" json:"-"`
	File         string `gorm:"size:500" json:"file"`
	Location     string `gorm:"size:255;not null;default:''" json:"location"`
	Tel          string `gorm:"size:50;not null;default:''" json:"tel"`
	Description  string `gorm:"type:text;not null;default:''" json:"description"`
	WorkingHours string `gorm:"size:255;not null;default:''" json:"working_hours"`
	Type         string `gorm:"size:20;not null" json:"type"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// OwnedBy reports the linked user id, not the profile row's own id.
func (p *Profile) OwnedBy() uint {
	return p.UserID
}
