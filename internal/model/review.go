package model

import (
	"time"
)

// Review is customer feedback for a business user. At most one review may
// exist per (reviewer, business_user) pair, enforced by the composite unique
// index behind the service pre-check.
type Review struct {
	ID             uint  `gorm:"primaryKey" json:"id"`
	BusinessUserID uint  `gorm:"not null;index;uniqueIndex:idx_reviewer_business" json:"business_user"`
	BusinessUser   *User `gorm:"foreignKey:BusinessUserID;constraint:OnDelete:CASCADE" json:"-"`
	ReviewerID     uint  `gorm:"not null;index;uniqueIndex:idx_reviewer_business" json:"reviewer"`
	Reviewer       *User `gorm:"foreignKey:ReviewerID;constraint:OnDelete:CASCADE" json:"-"`

	Rating      int    `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) OwnedBy() uint {
	return r.ReviewerID
}
