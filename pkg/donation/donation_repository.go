package donation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
)

// availableClause matches rows that can be claimed. Rows written before the
// status column existed carry NULL or an empty string and count as Available.
const availableClause = "(status = ? OR status IS NULL OR status = '')"

type (
	DonationFilter struct {
		Type string
		City string
	}

	DonationRepository interface {
		CreateDonation(ctx context.Context, donation *entities.Donation) error
		GetDonationByID(ctx context.Context, id uuid.UUID) (*entities.Donation, error)
		GetDonations(ctx context.Context, filter DonationFilter) ([]*entities.Donation, error)
		GetClaimedBy(ctx context.Context, receiverID uuid.UUID) ([]*entities.Donation, error)
		UpdateItems(ctx context.Context, id, donorID uuid.UUID, items domain.DonationItems) (bool, error)

		ClaimIfAvailable(ctx context.Context, id, receiverID uuid.UUID, at time.Time) (bool, error)
		ConfirmClaim(ctx context.Context, id, claimantID uuid.UUID, method domain.FulfillmentMethod, at time.Time) (bool, error)
		RejectClaim(ctx context.Context, id, claimantID uuid.UUID, at time.Time) (bool, error)
		MarkCollected(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
		DeleteIfAvailable(ctx context.Context, id, donorID uuid.UUID) (bool, error)
	}

	donationRepository struct {
		db *gorm.DB
	}
)

func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) CreateDonation(ctx context.Context, donation *entities.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

func (r *donationRepository) GetDonationByID(ctx context.Context, id uuid.UUID) (*entities.Donation, error) {
	var donation entities.Donation
	if err := r.db.WithContext(ctx).
		Preload("Donor").
		Preload("Claimant").
		Where("id = ?", id).
		First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *donationRepository) GetDonations(ctx context.Context, filter DonationFilter) ([]*entities.Donation, error) {
	var donations []*entities.Donation

	query := r.db.WithContext(ctx).
		Preload("Donor").
		Preload("Claimant")

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.City != "" {
		query = query.Where("LOWER(pickup_address) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.City))+"%")
	}

	if err := query.Order("created_at DESC").Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *donationRepository) GetClaimedBy(ctx context.Context, receiverID uuid.UUID) ([]*entities.Donation, error) {
	var donations []*entities.Donation
	if err := r.db.WithContext(ctx).
		Preload("Donor").
		Where("claimed_by = ?", receiverID).
		Order("created_at DESC").
		Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *donationRepository) UpdateItems(ctx context.Context, id, donorID uuid.UUID, items domain.DonationItems) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Donation{}).
		Where("id = ? AND donor_id = ?", id, donorID).
		Where(availableClause, string(domain.StatusAvailable)).
		Update("items", items)
	return result.RowsAffected == 1, result.Error
}

// ClaimIfAvailable is the compare-and-swap behind a claim: the status guard and
// the write happen in one UPDATE, so of many concurrent callers exactly one
// sees a row affected.
func (r *donationRepository) ClaimIfAvailable(ctx context.Context, id, receiverID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Donation{}).
		Where("id = ?", id).
		Where(availableClause, string(domain.StatusAvailable)).
		Updates(map[string]interface{}{
			"status":              string(domain.StatusClaimed),
			"claimed_by":          receiverID,
			"claimed_at":          at,
			"confirmation_status": string(domain.ConfirmationPending),
		})
	return result.RowsAffected == 1, result.Error
}

func (r *donationRepository) ConfirmClaim(ctx context.Context, id, claimantID uuid.UUID, method domain.FulfillmentMethod, at time.Time) (bool, error) {
	if !method.Valid() {
		return false, domain.ErrInvalidFulfillmentMethod
	}
	result := r.pendingClaim(ctx, id, claimantID).
		Updates(map[string]interface{}{
			"confirmation_status": string(domain.ConfirmationConfirmed),
			"fulfillment_method":  string(method),
			"confirmed_at":        at,
		})
	return result.RowsAffected == 1, result.Error
}

// RejectClaim records the rejection and reopens the donation in the same
// statement, so the status and claimant are never observed out of step.
func (r *donationRepository) RejectClaim(ctx context.Context, id, claimantID uuid.UUID, at time.Time) (bool, error) {
	result := r.pendingClaim(ctx, id, claimantID).
		Updates(map[string]interface{}{
			"confirmation_status": string(domain.ConfirmationRejected),
			"confirmed_at":        at,
			"status":              string(domain.StatusAvailable),
			"claimed_by":          nil,
			"claimed_at":          nil,
			"fulfillment_method":  nil,
		})
	return result.RowsAffected == 1, result.Error
}

func (r *donationRepository) MarkCollected(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Donation{}).
		Where("id = ? AND status = ? AND confirmation_status = ?",
			id, string(domain.StatusClaimed), string(domain.ConfirmationConfirmed)).
		Updates(map[string]interface{}{
			"status":       string(domain.StatusCollected),
			"completed_at": at,
		})
	return result.RowsAffected == 1, result.Error
}

func (r *donationRepository) DeleteIfAvailable(ctx context.Context, id, donorID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND donor_id = ?", id, donorID).
		Where(availableClause, string(domain.StatusAvailable)).
		Delete(&entities.Donation{})
	return result.RowsAffected == 1, result.Error
}

func (r *donationRepository) pendingClaim(ctx context.Context, id, claimantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&entities.Donation{}).
		Where("id = ? AND status = ? AND confirmation_status = ? AND claimed_by = ?",
			id, string(domain.StatusClaimed), string(domain.ConfirmationPending), claimantID)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
