package model

import (
	"time"
)

const (
	OfferTypeBasic    = "basic"
	OfferTypeStandard = "standard"
	OfferTypePremium  = "premium"
)

// OfferTypes lists the valid tiers in their canonical order. Every offer
// carries exactly one detail per tier.
var OfferTypes = []string{OfferTypeBasic, OfferTypeStandard, OfferTypePremium}

func ValidOfferType(t string) bool {
	for _, v := range OfferTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Offer struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	OwnerID     uint          `gorm:"not null;index" json:"user"`
	Owner       *User         `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Image       string        `gorm:"size:500" json:"image"`
	Description string        `gorm:"type:text" json:"description"`
	Details     []OfferDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Offer) OwnedBy() uint {
	return o.OwnerID
}

// OfferDetail is one tier of an offer. OfferType is unique within the parent
// offer and immutable after creation; patches address details by tier, never
// by row id.
type OfferDetail struct {
	ID                 uint     `gorm:"primaryKey" json:"id"`
	OfferID            uint     `gorm:"not null;index;uniqueIndex:idx_offer_tier" json:"-"`
	Title              string   `gorm:"size:255;not null" json:"title"`
	Revisions          int      `gorm:"not null" json:"revisions"`
	DeliveryTimeInDays int      `gorm:"not null" json:"delivery_time_in_days"`
	Price              float64  `gorm:"not null" json:"price"`
	Features           []string `gorm:"serializer:json" json:"features"`
	OfferType          string   `gorm:"size:20;not null;uniqueIndex:idx_offer_tier" json:"offer_type"`
}
