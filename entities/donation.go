package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
)

type Donation struct {
	ID                 uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	DonorID            uuid.UUID            `gorm:"type:uuid;not null;index" json:"donor_id"`
	Type               string               `gorm:"not null" json:"type"` // cooked or grocery
	Items              domain.DonationItems `gorm:"type:text" json:"items"`
	Category           string               `json:"category"`
	FoodType           string               `json:"food_type"`
	PickupAddress      string               `gorm:"not null" json:"pickup_address"`
	PickupLat          *float64             `json:"pickup_lat,omitempty"`
	PickupLng          *float64             `json:"pickup_lng,omitempty"`
	Contact            string               `json:"contact"`
	Status             string               `gorm:"index" json:"status"` // Available, Claimed, Collected
	ClaimedBy          *uuid.UUID           `gorm:"type:uuid;index" json:"claimed_by"`
	ClaimedAt          *time.Time           `json:"claimed_at"`
	ConfirmationStatus string               `json:"confirmation_status"` // Pending, Confirmed, Rejected
	FulfillmentMethod  *string              `json:"fulfillment_method"`  // pickup, delivery or NULL
	ConfirmedAt        *time.Time           `json:"confirmed_at"`
	CompletedAt        *time.Time           `json:"completed_at"`

	Donor    *User `gorm:"foreignKey:DonorID"`
	Claimant *User `gorm:"foreignKey:ClaimedBy"`
	Timestamp
}

// LifecycleStatus returns the stored status, reading a missing value as Available.
func (d *Donation) LifecycleStatus() domain.DonationStatus {
	return domain.DonationStatus(d.Status).Normalize()
}

func (d *Donation) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return d.validateEnums()
}

// validateEnums rejects unknown values of the closed enumerations before they
// reach the table.
func (d *Donation) validateEnums() error {
	kind, err := d.Items.Kind()
	if err != nil {
		return err
	}
	if !domain.DonationType(d.Type).Valid() {
		return domain.ErrInvalidDonationType
	}
	if kind != domain.DonationType(d.Type) {
		return domain.ErrInvalidDonationItems
	}
	if !domain.ValidCategory(d.Category) {
		return domain.ErrInvalidCategory
	}
	if !domain.ValidFoodType(d.FoodType) {
		return domain.ErrInvalidFoodType
	}
	if !domain.DonationStatus(d.Status).Valid() {
		return domain.ErrInvalidDonationStatus
	}
	if !domain.ConfirmationStatus(d.ConfirmationStatus).Valid() {
		return domain.ErrInvalidConfirmation
	}
	if d.FulfillmentMethod != nil && !domain.FulfillmentMethod(*d.FulfillmentMethod).Valid() {
		return domain.ErrInvalidFulfillmentMethod
	}
	return nil
}
