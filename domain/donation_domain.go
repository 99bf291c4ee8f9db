package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessCreateDonation    = "donation created successfully"
	MessageSuccessGetDonations      = "donations retrieved successfully"
	MessageSuccessGetDonation       = "donation retrieved successfully"
	MessageSuccessDeleteDonation    = "donation deleted successfully"
	MessageSuccessClaimDonation     = "donation claimed successfully"
	MessageSuccessConfirmDonation   = "donation claim decision saved"
	MessageSuccessCollectDonation   = "donation marked as collected"
	MessageSuccessUploadImage       = "donation image uploaded successfully"
	MessageSuccessGetClaims         = "claims retrieved successfully"
	MessageSuccessGetDonorStats     = "donor statistics retrieved successfully"
	MessageSuccessGetLeaderboard    = "leaderboard retrieved successfully"
	MessageSuccessGetRecentActivity = "recent activity retrieved successfully"

	MessageFailedCreateDonation    = "failed to create donation"
	MessageFailedGetDonations      = "failed to retrieve donations"
	MessageFailedGetDonation       = "failed to retrieve donation"
	MessageFailedDeleteDonation    = "failed to delete donation"
	MessageFailedClaimDonation     = "failed to claim donation"
	MessageFailedConfirmDonation   = "failed to confirm donation"
	MessageFailedCollectDonation   = "failed to mark donation as collected"
	MessageFailedUploadImage       = "failed to upload donation image"
	MessageFailedGetClaims         = "failed to fetch claims"
	MessageFailedGetDonorStats     = "failed to compute donor stats"
	MessageFailedGetLeaderboard    = "failed to fetch leaderboard"
	MessageFailedGetRecentActivity = "failed to fetch recent activity"

	ErrDonationNotFound         = fmt.Errorf("%w: donation not found", ErrNotFound)
	ErrInvalidDonationID        = fmt.Errorf("%w: invalid donation id", ErrValidation)
	ErrInvalidDonationType      = fmt.Errorf("%w: invalid donation type", ErrValidation)
	ErrInvalidDonationItems     = fmt.Errorf("%w: donation items must match the donation type", ErrValidation)
	ErrInvalidCategory          = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidFoodType          = fmt.Errorf("%w: invalid food type", ErrValidation)
	ErrInvalidDonationStatus    = fmt.Errorf("%w: invalid donation status", ErrValidation)
	ErrInvalidConfirmation      = fmt.Errorf("%w: invalid confirmation status", ErrValidation)
	ErrInvalidDecision          = fmt.Errorf("%w: invalid decision", ErrValidation)
	ErrInvalidFulfillmentMethod = fmt.Errorf("%w: invalid fulfillment method", ErrValidation)
	ErrInvalidCoordinates       = fmt.Errorf("%w: invalid coordinates", ErrValidation)
	ErrMissingPickupAddress     = fmt.Errorf("%w: pickup address is required", ErrValidation)

	ErrNotDonationOwner         = fmt.Errorf("%w: only the donor can confirm or reject this claim", ErrAuthorization)
	ErrNotDonationParticipant   = fmt.Errorf("%w: not authorized to mark as collected", ErrAuthorization)
	ErrUnauthorizedDonation     = fmt.Errorf("%w: unauthorized access to donation", ErrAuthorization)
	ErrCannotClaimOwnDonation   = fmt.Errorf("%w: donors cannot claim their own donation", ErrAuthorization)
	ErrDonationAlreadyClaimed   = fmt.Errorf("%w: this donation has already been claimed", ErrConflict)
	ErrDonationNotClaimed       = fmt.Errorf("%w: donation has no pending claim", ErrConflict)
	ErrDonationNotConfirmed     = fmt.Errorf("%w: donation claim has not been confirmed", ErrConflict)
	ErrDonationAlreadyCollected = fmt.Errorf("%w: donation has already been collected", ErrConflict)
	ErrDonationNotAvailable     = fmt.Errorf("%w: donation is no longer available", ErrConflict)
)

type DonationType string

const (
	DonationTypeCooked  DonationType = "cooked"
	DonationTypeGrocery DonationType = "grocery"
)

func (t DonationType) Valid() bool {
	return t == DonationTypeCooked || t == DonationTypeGrocery
}

type DonationStatus string

const (
	StatusAvailable DonationStatus = "Available"
	StatusClaimed   DonationStatus = "Claimed"
	StatusCollected DonationStatus = "Collected"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusClaimed, StatusCollected:
		return true
	}
	return false
}

// Normalize maps the empty status of legacy rows to Available.
func (s DonationStatus) Normalize() DonationStatus {
	if s == "" {
		return StatusAvailable
	}
	return s
}

type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "Pending"
	ConfirmationConfirmed ConfirmationStatus = "Confirmed"
	ConfirmationRejected  ConfirmationStatus = "Rejected"
)

func (s ConfirmationStatus) Valid() bool {
	switch s {
	case ConfirmationPending, ConfirmationConfirmed, ConfirmationRejected:
		return true
	}
	return false
}

type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "pickup"
	FulfillmentDelivery FulfillmentMethod = "delivery"
)

func (m FulfillmentMethod) Valid() bool {
	return m == FulfillmentPickup || m == FulfillmentDelivery
}

var (
	Categories = []string{"fruits", "vegetables", "grains", "dairy", "meat", "baked", "prepared", "other"}
	FoodTypes  = []string{"veg", "non-veg", "vegan"}
)

const (
	DefaultCategory = "other"
	DefaultFoodType = "veg"
)

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func ValidFoodType(f string) bool {
	for _, v := range FoodTypes {
		if v == f {
			return true
		}
	}
	return false
}

type (
	CookedItem struct {
		DishName   string `json:"dish_name" validate:"required"`
		Servings   int    `json:"servings" validate:"required,min=1"`
		BestBefore string `json:"best_before,omitempty"`
		Notes      string `json:"notes,omitempty"`
		Image      string `json:"image,omitempty"`
	}

	GroceryItem struct {
		ItemName   string  `json:"item_name" validate:"required"`
		Quantity   float64 `json:"quantity" validate:"required,gt=0"`
		Unit       string  `json:"unit" validate:"required"`
		ExpiryDate string  `json:"expiry_date,omitempty"`
		Notes      string  `json:"notes,omitempty"`
		Image      string  `json:"image,omitempty"`
	}

	// DonationItems holds exactly one variant, selected by the donation type.
	DonationItems struct {
		Cooked  *CookedItem  `json:"cooked,omitempty"`
		Grocery *GroceryItem `json:"grocery,omitempty"`
	}

	Coordinates struct {
		Lat float64 `json:"lat" validate:"min=-90,max=90"`
		Lng float64 `json:"lng" validate:"min=-180,max=180"`
	}

	CreateDonationRequest struct {
		Type          DonationType  `json:"type" validate:"required,oneof=cooked grocery"`
		Items         DonationItems `json:"items"`
		Category      string        `json:"category" validate:"omitempty,oneof=fruits vegetables grains dairy meat baked prepared other"`
		FoodType      string        `json:"food_type" validate:"omitempty,oneof=veg non-veg vegan"`
		PickupAddress string        `json:"pickup_address" validate:"required"`
		PickupCoords  *Coordinates  `json:"pickup_coords,omitempty"`
		Contact       string        `json:"contact" validate:"omitempty"`
	}

	ListDonationsRequest struct {
		Type string `query:"type" validate:"omitempty,oneof=cooked grocery"`
		City string `query:"city"`
	}

	ConfirmDonationRequest struct {
		Decision ConfirmationStatus `json:"decision" validate:"required"`
		Method   FulfillmentMethod  `json:"method"`
	}

	UploadDonationImageRequest struct {
		Image *multipart.FileHeader `json:"image" form:"image" validate:"required"`
	}

	UserSummary struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email,omitempty"`
		Phone    string `json:"phone,omitempty"`
		Location string `json:"location,omitempty"`
		Avatar   string `json:"avatar,omitempty"`
	}

	Donation struct {
		ID                 string             `json:"id"`
		DonorID            string             `json:"donor_id"`
		Donor              *UserSummary       `json:"donor,omitempty"`
		Type               DonationType       `json:"type"`
		Items              DonationItems      `json:"items"`
		Category           string             `json:"category"`
		FoodType           string             `json:"food_type"`
		PickupAddress      string             `json:"pickup_address"`
		PickupCoords       *Coordinates       `json:"pickup_coords,omitempty"`
		Contact            string             `json:"contact,omitempty"`
		Status             DonationStatus     `json:"status"`
		ClaimedBy          *string            `json:"claimed_by"`
		Claimant           *UserSummary       `json:"claimant,omitempty"`
		ClaimedAt          *time.Time         `json:"claimed_at"`
		ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
		FulfillmentMethod  *FulfillmentMethod `json:"fulfillment_method"`
		ConfirmedAt        *time.Time         `json:"confirmed_at"`
		CompletedAt        *time.Time         `json:"completed_at"`
		CreatedAt          time.Time          `json:"created_at"`
		UpdatedAt          time.Time          `json:"updated_at"`
	}
)

// Kind reports which variant is populated. Zero or two variants is invalid.
func (i DonationItems) Kind() (DonationType, error) {
	switch {
	case i.Cooked != nil && i.Grocery == nil:
		return DonationTypeCooked, nil
	case i.Grocery != nil && i.Cooked == nil:
		return DonationTypeGrocery, nil
	default:
		return "", ErrInvalidDonationItems
	}
}

// SetImage writes the image reference into whichever variant is populated.
func (i *DonationItems) SetImage(url string) {
	if i.Cooked != nil {
		i.Cooked.Image = url
	}
	if i.Grocery != nil {
		i.Grocery.Image = url
	}
}

// Value stores the items as a JSON document.
func (i DonationItems) Value() (driver.Value, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (i *DonationItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*i = DonationItems{}
		return nil
	case []byte:
		return json.Unmarshal(v, i)
	case string:
		return json.Unmarshal([]byte(v), i)
	default:
		return fmt.Errorf("unsupported items column type %T", src)
	}
}
