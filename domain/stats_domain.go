package domain

import "time"

const (
	RecentDonationsLimit = 5
	LeaderboardLimit     = 10
	RecentActivityLimit  = 10
)

type (
	RecentDonation struct {
		ID                 string             `json:"id"`
		Type               DonationType       `json:"type"`
		Status             DonationStatus     `json:"status"`
		CreatedAt          time.Time          `json:"created_at"`
		ConfirmedAt        *time.Time         `json:"confirmed_at"`
		CompletedAt        *time.Time         `json:"completed_at"`
		ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
		FulfillmentMethod  *FulfillmentMethod `json:"fulfillment_method"`
	}

	DonorStats struct {
		TotalDonations     int64            `json:"total_donations"`
		CollectedDonations int64            `json:"collected_donations"`
		PendingDonations   int64            `json:"pending_donations"`
		LastDonationAt     *time.Time       `json:"last_donation_at"`
		Recent             []RecentDonation `json:"recent"`
	}

	LeaderboardEntry struct {
		DonorID        string `json:"donor_id"`
		Name           string `json:"name"`
		Avatar         string `json:"avatar"`
		CollectedCount int64  `json:"collected_count"`
	}

	ActivityEntry struct {
		ID          string       `json:"id"`
		Type        DonationType `json:"type"`
		CompletedAt *time.Time   `json:"completed_at"`
		Donor       UserSummary  `json:"donor"`
	}
)
