package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
)

// pendingClause counts open donations, including legacy rows without a status.
const pendingClause = "(status IN (?, ?) OR status IS NULL OR status = '')"

type (
	DonorCounts struct {
		Total     int64
		Collected int64
		Pending   int64
	}

	LeaderboardRow struct {
		DonorID        uuid.UUID
		Name           string
		Avatar         string
		CollectedCount int64
	}

	StatsRepository interface {
		CountByDonor(ctx context.Context, donorID uuid.UUID) (DonorCounts, error)
		GetRecentByDonor(ctx context.Context, donorID uuid.UUID, limit int) ([]*entities.Donation, error)
		GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
		GetRecentCollected(ctx context.Context, limit int) ([]*entities.Donation, error)
	}

	statsRepository struct {
		db *gorm.DB
	}
)

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{
		db: db,
	}
}

func (r *statsRepository) CountByDonor(ctx context.Context, donorID uuid.UUID) (DonorCounts, error) {
	var counts DonorCounts
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entities.Donation{}).Where("donor_id = ?", donorID)
	}

	if err := base().Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status = ?", string(domain.StatusCollected)).Count(&counts.Collected).Error; err != nil {
		return counts, err
	}
	if err := base().
		Where(pendingClause, string(domain.StatusAvailable), string(domain.StatusClaimed)).
		Count(&counts.Pending).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (r *statsRepository) GetRecentByDonor(ctx context.Context, donorID uuid.UUID, limit int) ([]*entities.Donation, error) {
	var donations []*entities.Donation
	if err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

// GetLeaderboard ranks donors by collected donations. Ties are ordered by name
// and then id so the ranking is stable between calls.
func (r *statsRepository) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	if err := r.db.WithContext(ctx).
		Table("donations AS d").
		Select("d.donor_id AS donor_id, u.name AS name, u.avatar AS avatar, COUNT(*) AS collected_count").
		Joins("JOIN users AS u ON u.id = d.donor_id").
		Where("d.status = ?", string(domain.StatusCollected)).
		Group("d.donor_id, u.name, u.avatar").
		Order("collected_count DESC, u.name ASC, d.donor_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *statsRepository) GetRecentCollected(ctx context.Context, limit int) ([]*entities.Donation, error) {
	var donations []*entities.Donation
	if err := r.db.WithContext(ctx).
		Preload("Donor").
		Where("status = ?", string(domain.StatusCollected)).
		Order("completed_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func lastDonationAt(recent []*entities.Donation) *time.Time {
	if len(recent) == 0 {
		return nil
	}
	t := recent[0].CreatedAt
	return &t
}
