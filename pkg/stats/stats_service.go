package stats

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
	"Food-Rescue-Hub/internal/metrics"
	"Food-Rescue-Hub/internal/utils/cache"
)

const (
	LeaderboardCacheKey    = "stats:leaderboard"
	RecentActivityCacheKey = "stats:activity:recent"
	DefaultCacheTTL        = 30 * time.Second
)

type (
	StatsService interface {
		GetDonorStats(ctx context.Context, donorID string) (*domain.DonorStats, error)
		GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
		GetRecentActivity(ctx context.Context) ([]domain.ActivityEntry, error)
		InvalidateViews(ctx context.Context)
	}

	statsService struct {
		statsRepository StatsRepository
		cache           cache.Cache
		ttl             time.Duration
		metrics         *metrics.Metrics
		// generation moves on every invalidation so a read that started
		// before it never leaves its result in the cache.
		generation      atomic.Uint64
	}
)

func NewStatsService(statsRepository StatsRepository, c cache.Cache, ttl time.Duration, m *metrics.Metrics) StatsService {
	if c == nil {
		c = cache.NewNoop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &statsService{
		statsRepository: statsRepository,
		cache:           c,
		ttl:             ttl,
		metrics:         m,
	}
}

func (s *statsService) GetDonorStats(ctx context.Context, donorID string) (*domain.DonorStats, error) {
	id, err := uuid.Parse(donorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	counts, err := s.statsRepository.CountByDonor(ctx, id)
	if err != nil {
		return nil, domain.Internal(err)
	}
	recent, err := s.statsRepository.GetRecentByDonor(ctx, id, domain.RecentDonationsLimit)
	if err != nil {
		return nil, domain.Internal(err)
	}

	stats := &domain.DonorStats{
		TotalDonations:     counts.Total,
		CollectedDonations: counts.Collected,
		PendingDonations:   counts.Pending,
		LastDonationAt:     lastDonationAt(recent),
		Recent:             make([]domain.RecentDonation, 0, len(recent)),
	}
	for _, d := range recent {
		entry := domain.RecentDonation{
			ID:                 d.ID.String(),
			Type:               domain.DonationType(d.Type),
			Status:             d.LifecycleStatus(),
			CreatedAt:          d.CreatedAt,
			ConfirmedAt:        d.ConfirmedAt,
			CompletedAt:        d.CompletedAt,
			ConfirmationStatus: domain.ConfirmationStatus(d.ConfirmationStatus),
		}
		if d.FulfillmentMethod != nil {
			method := domain.FulfillmentMethod(*d.FulfillmentMethod)
			entry.FulfillmentMethod = &method
		}
		stats.Recent = append(stats.Recent, entry)
	}
	return stats, nil
}

func (s *statsService) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var cached []domain.LeaderboardEntry
	if s.lookup(ctx, "leaderboard", LeaderboardCacheKey, &cached) {
		return cached, nil
	}
	gen := s.generation.Load()

	rows, err := s.statsRepository.GetLeaderboard(ctx, domain.LeaderboardLimit)
	if err != nil {
		return nil, domain.Internal(err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			DonorID:        row.DonorID.String(),
			Name:           row.Name,
			Avatar:         row.Avatar,
			CollectedCount: row.CollectedCount,
		})
	}

	s.store(ctx, gen, LeaderboardCacheKey, entries)
	return entries, nil
}

func (s *statsService) GetRecentActivity(ctx context.Context) ([]domain.ActivityEntry, error) {
	var cached []domain.ActivityEntry
	if s.lookup(ctx, "activity", RecentActivityCacheKey, &cached) {
		return cached, nil
	}
	gen := s.generation.Load()

	donations, err := s.statsRepository.GetRecentCollected(ctx, domain.RecentActivityLimit)
	if err != nil {
		return nil, domain.Internal(err)
	}

	entries := make([]domain.ActivityEntry, 0, len(donations))
	for _, d := range donations {
		entries = append(entries, domain.ActivityEntry{
			ID:          d.ID.String(),
			Type:        domain.DonationType(d.Type),
			CompletedAt: d.CompletedAt,
			Donor:       donorSummary(d),
		})
	}

	s.store(ctx, gen, RecentActivityCacheKey, entries)
	return entries, nil
}

// InvalidateViews drops the cached leaderboard and activity feed. It runs after
// a committed write, so it ignores cancellation of the caller's request. Cache
// errors are logged and otherwise ignored; the entries expire on their own.
func (s *statsService) InvalidateViews(ctx context.Context) {
	s.generation.Add(1)
	if err := s.cache.Delete(context.WithoutCancel(ctx), LeaderboardCacheKey, RecentActivityCacheKey); err != nil {
		log.Warnw("stats cache invalidation failed", "error", err)
	}
}

func (s *statsService) lookup(ctx context.Context, view, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warnw("stats cache read failed", "key", key, "error", err)
		hit = false
	}
	s.metrics.IncrementCacheLookup(view, hit)
	return hit
}

// store caches a view computed at generation gen. An invalidation that lands
// between the check and the write is caught by the second check.
func (s *statsService) store(ctx context.Context, gen uint64, key string, value interface{}) {
	if s.generation.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Warnw("stats cache write failed", "key", key, "error", err)
		return
	}
	if s.generation.Load() != gen {
		if err := s.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
			log.Warnw("stats cache invalidation failed", "key", key, "error", err)
		}
	}
}

func donorSummary(d *entities.Donation) domain.UserSummary {
	summary := domain.UserSummary{ID: d.DonorID.String()}
	if d.Donor != nil {
		summary.Name = d.Donor.Name
		summary.Avatar = d.Donor.Avatar
	}
	return summary
}
