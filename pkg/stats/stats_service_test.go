package stats

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
	"Food-Rescue-Hub/internal/metrics"
	"Food-Rescue-Hub/internal/testutil"
)

type memoryCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	deletes  int
	afterSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = raw
	hook := c.afterSet
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.deletes++
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// pausingRepository holds the first leaderboard and activity read after the
// database answered, until release is closed.
type pausingRepository struct {
	StatsRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausingRepository(repo StatsRepository) *pausingRepository {
	return &pausingRepository{
		StatsRepository: repo,
		read:            make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (r *pausingRepository) pause() {
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
}

func (r *pausingRepository) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := r.StatsRepository.GetLeaderboard(ctx, limit)
	r.pause()
	return rows, err
}

func (r *pausingRepository) GetRecentCollected(ctx context.Context, limit int) ([]*entities.Donation, error) {
	rows, err := r.StatsRepository.GetRecentCollected(ctx, limit)
	r.pause()
	return rows, err
}

func collect(t *testing.T, db *gorm.DB, donor *entities.User, completedAt time.Time) *entities.Donation {
	t.Helper()
	d := testutil.CreateDonation(t, db, donor, domain.StatusAvailable)
	require.NoError(t, db.Model(&entities.Donation{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"status":              string(domain.StatusCollected),
		"confirmation_status": string(domain.ConfirmationConfirmed),
		"completed_at":        completedAt,
	}).Error)
	return d
}

func TestGetDonorStats_Counts(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(NewStatsRepository(db), nil, 0, nil)
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)
	other := testutil.CreateUser(t, db, "other", domain.RoleDonor)

	testutil.CreateDonation(t, db, donor, domain.StatusAvailable)
	testutil.CreateDonation(t, db, donor, domain.StatusClaimed)
	collect(t, db, donor, time.Now().UTC())
	testutil.CreateDonation(t, db, other, domain.StatusAvailable)

	stats, err := svc.GetDonorStats(context.Background(), donor.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalDonations)
	assert.EqualValues(t, 1, stats.CollectedDonations)
	assert.EqualValues(t, 2, stats.PendingDonations)
	assert.Len(t, stats.Recent, 3)
	assert.NotNil(t, stats.LastDonationAt)
}

func TestGetDonorStats_LegacyStatusCountsAsPending(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(NewStatsRepository(db), nil, 0, nil)
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)

	d := testutil.CreateDonation(t, db, donor, domain.StatusAvailable)
	require.NoError(t, db.Exec("UPDATE donations SET status = NULL WHERE id = ?", d.ID).Error)

	stats, err := svc.GetDonorStats(context.Background(), donor.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.PendingDonations)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, domain.StatusAvailable, stats.Recent[0].Status)
}

func TestGetDonorStats_Empty(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(NewStatsRepository(db), nil, 0, nil)
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)

	stats, err := svc.GetDonorStats(context.Background(), donor.ID.String())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDonations)
	assert.Nil(t, stats.LastDonationAt)
	assert.NotNil(t, stats.Recent)
	assert.Empty(t, stats.Recent)

	_, err = svc.GetDonorStats(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetLeaderboard_OrdersByCountThenName(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(NewStatsRepository(db), nil, 0, nil)

	asha := testutil.CreateUser(t, db, "Asha", domain.RoleDonor)
	bina := testutil.CreateUser(t, db, "Bina", domain.RoleDonor)
	chen := testutil.CreateUser(t, db, "Chen", domain.RoleDonor)
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		collect(t, db, asha, now)
	}
	for i := 0; i < 7; i++ {
		collect(t, db, chen, now)
		collect(t, db, bina, now)
	}
	testutil.CreateDonation(t, db, asha, domain.StatusAvailable)

	board, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "Bina", board[0].Name)
	assert.Equal(t, "Chen", board[1].Name)
	assert.Equal(t, "Asha", board[2].Name)
	assert.EqualValues(t, 7, board[0].CollectedCount)
	assert.EqualValues(t, 5, board[2].CollectedCount)
	assert.Equal(t, asha.ID.String(), board[2].DonorID)
}

func TestGetLeaderboard_EmptyIsNotNil(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(NewStatsRepository(db), nil, 0, nil)

	board, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, board)
	assert.Empty(t, board)

	activity, err := svc.GetRecentActivity(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, activity)
	assert.Empty(t, activity)
}

func TestGetRecentActivity_NewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(NewStatsRepository(db), nil, 0, nil)
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older := collect(t, db, donor, base)
	newer := collect(t, db, donor, base.Add(time.Hour))
	testutil.CreateDonation(t, db, donor, domain.StatusClaimed)

	activity, err := svc.GetRecentActivity(context.Background())
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, newer.ID.String(), activity[0].ID)
	assert.Equal(t, older.ID.String(), activity[1].ID)
	assert.Equal(t, "donor", activity[0].Donor.Name)
	require.NotNil(t, activity[0].CompletedAt)
}

func TestViewsAreCachedUntilInvalidated(t *testing.T) {
	db := testutil.NewDB(t)
	c := newMemoryCache()
	svc := NewStatsService(NewStatsRepository(db), c, time.Minute, metrics.New())
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)
	ctx := context.Background()

	collect(t, db, donor, time.Now().UTC())
	board, err := svc.GetLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 1)
	_, err = svc.GetRecentActivity(ctx)
	require.NoError(t, err)

	collect(t, db, donor, time.Now().UTC())
	board, err = svc.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, board[0].CollectedCount, "served from cache")

	svc.InvalidateViews(ctx)
	assert.Equal(t, 1, c.deletes)

	board, err = svc.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, board[0].CollectedCount)

	activity, err := svc.GetRecentActivity(ctx)
	require.NoError(t, err)
	assert.Len(t, activity, 2)
}

func TestInvalidationDuringReadIsNotOverwritten(t *testing.T) {
	ctx := context.Background()

	t.Run("leaderboard", func(t *testing.T) {
		db := testutil.NewDB(t)
		c := newMemoryCache()
		repo := newPausingRepository(NewStatsRepository(db))
		svc := NewStatsService(repo, c, time.Minute, nil)
		donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)
		collect(t, db, donor, time.Now().UTC())

		done := make(chan []domain.LeaderboardEntry)
		go func() {
			board, _ := svc.GetLeaderboard(ctx)
			done <- board
		}()

		<-repo.read
		collect(t, db, donor, time.Now().UTC())
		svc.InvalidateViews(ctx)
		close(repo.release)

		stale := <-done
		require.Len(t, stale, 1)
		assert.EqualValues(t, 1, stale[0].CollectedCount)
		assert.False(t, c.has(LeaderboardCacheKey))

		board, err := svc.GetLeaderboard(ctx)
		require.NoError(t, err)
		require.Len(t, board, 1)
		assert.EqualValues(t, 2, board[0].CollectedCount)
	})

	t.Run("activity", func(t *testing.T) {
		db := testutil.NewDB(t)
		c := newMemoryCache()
		repo := newPausingRepository(NewStatsRepository(db))
		svc := NewStatsService(repo, c, time.Minute, nil)
		donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)
		collect(t, db, donor, time.Now().UTC())

		done := make(chan []domain.ActivityEntry)
		go func() {
			activity, _ := svc.GetRecentActivity(ctx)
			done <- activity
		}()

		<-repo.read
		collect(t, db, donor, time.Now().UTC())
		svc.InvalidateViews(ctx)
		close(repo.release)

		assert.Len(t, <-done, 1)
		assert.False(t, c.has(RecentActivityCacheKey))

		activity, err := svc.GetRecentActivity(ctx)
		require.NoError(t, err)
		assert.Len(t, activity, 2)
	})
}

func TestInvalidationDuringCacheWriteIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	c := newMemoryCache()
	svc := NewStatsService(NewStatsRepository(db), c, time.Minute, nil)
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)
	collect(t, db, donor, time.Now().UTC())

	var once sync.Once
	c.afterSet = func() {
		once.Do(func() { svc.InvalidateViews(ctx) })
	}

	_, err := svc.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.False(t, c.has(LeaderboardCacheKey))
}

func TestInvalidateViews_IgnoresCancelledRequest(t *testing.T) {
	db := testutil.NewDB(t)
	c := newMemoryCache()
	svc := NewStatsService(NewStatsRepository(db), c, time.Minute, nil)
	donor := testutil.CreateUser(t, db, "donor", domain.RoleDonor)
	collect(t, db, donor, time.Now().UTC())

	_, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	require.True(t, c.has(LeaderboardCacheKey))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.InvalidateViews(ctx)

	assert.False(t, c.has(LeaderboardCacheKey))
	assert.Equal(t, 1, c.deletes)
}
