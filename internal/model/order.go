package model

import (
	"time"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order links a customer to a business user. The pricing/terms fields are a
// point-in-time snapshot copied from the source OfferDetail at creation and
// frozen thereafter; later edits to the detail never reach historical orders.
type Order struct {
	ID             uint  `gorm:"primaryKey" json:"id"`
	CustomerUserID uint  `gorm:"not null;index" json:"customer_user"`
	CustomerUser   *User `gorm:"foreignKey:CustomerUserID;constraint:OnDelete:CASCADE" json:"-"`
	BusinessUserID uint  `gorm:"not null;index" json:"business_user"`
	BusinessUser   *User `gorm:"foreignKey:BusinessUserID;constraint:OnDelete:CASCADE" json:"-"`

	// Audit reference to the source detail. Deleting a detail that still has
	// orders is blocked, not cascaded.
	OfferDetailID *uint        `gorm:"index" json:"-"`
	OfferDetail   *OfferDetail `gorm:"foreignKey:OfferDetailID;constraint:OnDelete:RESTRICT" json:"-"`

	Title              string   `gorm:"size:255;not null" json:"title"`
	Revisions          int      `gorm:"not null" json:"revisions"`
	DeliveryTimeInDays int      `gorm:"not null" json:"delivery_time_in_days"`
	Price              float64  `gorm:"not null" json:"price"`
	Features           []string `gorm:"serializer:json" json:"features"`
	OfferType          string   `gorm:"size:20;not null" json:"offer_type"`

	Status string `gorm:"size:20;not null;default:'in_progress'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OwnedBy reports the business party; order status updates are gated on it.
func (o *Order) OwnedBy() uint {
	return o.BusinessUserID
}
