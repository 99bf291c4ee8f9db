package donation

import (
	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
)

func toDomainDonation(d *entities.Donation) *domain.Donation {
	result := &domain.Donation{
		ID:                 d.ID.String(),
		DonorID:            d.DonorID.String(),
		Donor:              toUserSummary(d.Donor),
		Type:               domain.DonationType(d.Type),
		Items:              d.Items,
		Category:           d.Category,
		FoodType:           d.FoodType,
		PickupAddress:      d.PickupAddress,
		Contact:            d.Contact,
		Status:             d.LifecycleStatus(),
		Claimant:           toUserSummary(d.Claimant),
		ClaimedAt:          d.ClaimedAt,
		ConfirmationStatus: domain.ConfirmationStatus(d.ConfirmationStatus),
		ConfirmedAt:        d.ConfirmedAt,
		CompletedAt:        d.CompletedAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if d.PickupLat != nil && d.PickupLng != nil {
		result.PickupCoords = &domain.Coordinates{Lat: *d.PickupLat, Lng: *d.PickupLng}
	}
	if d.ClaimedBy != nil {
		claimedBy := d.ClaimedBy.String()
		result.ClaimedBy = &claimedBy
	}
	if d.FulfillmentMethod != nil {
		method := domain.FulfillmentMethod(*d.FulfillmentMethod)
		result.FulfillmentMethod = &method
	}
	return result
}

func toDomainDonations(donations []*entities.Donation) []*domain.Donation {
	result := make([]*domain.Donation, 0, len(donations))
	for _, d := range donations {
		result = append(result, toDomainDonation(d))
	}
	return result
}

func toUserSummary(u *entities.User) *domain.UserSummary {
	if u == nil {
		return nil
	}
	return &domain.UserSummary{
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Location: u.Location,
		Avatar:   u.Avatar,
	}
}
