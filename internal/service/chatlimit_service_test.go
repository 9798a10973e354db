package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/repository"
	"github.com/soulspace/soulspace_server/internal/testutil"
)

func TestChatLimitService_CheckLimit_NewUserCreatesDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)

	result := service.CheckLimit(user.ID, model.TierFree)
	assert.True(t, result.Allowed)
	assert.Equal(t, 5, result.DailyLimit)
	assert.Equal(t, 0, result.Used)
	assert.Equal(t, 5, result.Remaining)
	require.NotNil(t, result.ResetTime)

	// Exactly one row, with free-tier defaults
	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	sub, err := subRepo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, sub.Tier)
	assert.Equal(t, 0, sub.DailyChatsUsed)
	assert.Equal(t, model.SubStatusActive, sub.Status)
	assert.NotNil(t, sub.LastResetDate)
}

func TestChatLimitService_CheckLimit_FreeTierEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, testutil.WithChatsUsed(4))

	result := service.CheckLimit(user.ID, model.TierFree)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
	assert.Empty(t, result.UpgradeMessage)

	require.NoError(t, db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).
		Update("daily_chats_used", 5).Error)

	result = service.CheckLimit(user.ID, model.TierFree)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 5, result.Used)
	assert.Equal(t, "Daily limit reached. Upgrade to Premium for 10 daily chats.", result.UpgradeMessage)
	assert.Equal(t, "/pricing?plan=premium", result.UpgradeURL)
}

func TestChatLimitService_CheckLimit_PremiumUpgradePrompt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithTier(model.TierPremium), testutil.WithChatsUsed(10))

	result := service.CheckLimit(user.ID, model.TierPremium)
	assert.False(t, result.Allowed)
	assert.Equal(t, 10, result.DailyLimit)
	assert.Equal(t, "Daily limit reached. Upgrade to Transformation for unlimited chats.", result.UpgradeMessage)
	assert.Equal(t, "/pricing?plan=transformation", result.UpgradeURL)
}

func TestChatLimitService_CheckLimit_TransformationNeverBlocks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithTier(model.TierTransformation), testutil.WithChatsUsed(1000000))

	result := service.CheckLimit(user.ID, model.TierTransformation)
	assert.True(t, result.Allowed)
	assert.Equal(t, LimitUnlimited, result.DailyLimit)
	assert.Equal(t, LimitUnlimited, result.Remaining)
	assert.Equal(t, 1000000, result.Used)
}

func TestChatLimitService_CheckLimit_UnknownTierUsesFreeLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, testutil.WithChatsUsed(5))

	result := service.CheckLimit(user.ID, "platinum")
	assert.False(t, result.Allowed)
	assert.Equal(t, 5, result.DailyLimit)
	assert.Equal(t, "Daily chat limit reached. Please try again tomorrow.", result.UpgradeMessage)
}

func TestChatLimitService_CheckLimit_ResetsAcrossUTCDayBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithTier(model.TierPremium),
		testutil.WithChatsUsed(10),
		testutil.WithLastReset(yesterday))

	result := service.CheckLimit(user.ID, model.TierPremium)
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.Used)
	assert.Equal(t, 10, result.Remaining)

	// Reset is persisted and lastResetDate moved forward
	sub, err := subRepo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sub.DailyChatsUsed)
	require.NotNil(t, sub.LastResetDate)
	assert.True(t, sub.LastResetDate.After(yesterday))
}

func TestShouldReset_UTCCalendarDayNotRolling24h(t *testing.T) {
	// 23:59 yesterday vs 00:01 today: under 24h elapsed, still resets
	lastReset := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 0, 1, 0, 0, time.UTC)
	assert.True(t, shouldReset(&lastReset, now))

	// 00:01 today vs 23:59 today: nearly 24h elapsed, no reset
	lastReset = time.Date(2025, 3, 10, 0, 1, 0, 0, time.UTC)
	now = time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.False(t, shouldReset(&lastReset, now))

	// Same instant
	assert.False(t, shouldReset(&now, now))

	// Never reset before
	assert.True(t, shouldReset(nil, now))

	// Month boundary
	lastReset = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	now = time.Date(2025, 4, 1, 0, 0, 1, 0, time.UTC)
	assert.True(t, shouldReset(&lastReset, now))
}

func TestShouldReset_ComparesInUTC(t *testing.T) {
	// 2025-03-10 01:00 UTC expressed in a UTC-8 zone is still the
	// 10th in UTC even though it is the 9th locally.
	loc := time.FixedZone("UTC-8", -8*3600)
	lastReset := time.Date(2025, 3, 9, 17, 0, 0, 0, loc) // 2025-03-10 01:00 UTC
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	assert.False(t, shouldReset(&lastReset, now))
}

func TestNextResetTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 45, 0, time.UTC)
	reset := nextResetTime(now)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), reset)

	// Rolls into the next month
	now = time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	reset = nextResetTime(now)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), reset)
}

func TestChatLimitService_IncrementUsage_CountsExactly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID)

	// Interleave checks with increments; checks must not consume
	for i := 0; i < 3; i++ {
		service.CheckLimit(user.ID, model.TierFree)
		service.IncrementUsage(user.ID)
	}

	sub, err := subRepo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sub.DailyChatsUsed)
}

func TestChatLimitService_IncrementUsage_MissingSubscriptionNoops(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	// Never panics, never creates a row
	service.IncrementUsage(999)

	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestChatLimitService_IncrementUsage_UnlimitedTierNotMetered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, testutil.WithTier(model.TierTransformation))

	service.IncrementUsage(user.ID)

	sub, err := subRepo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sub.DailyChatsUsed)
}

func TestChatLimitService_FailsOpenWhenStoreDown(t *testing.T) {
	db := testutil.SetupTestDB(t)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, testutil.WithChatsUsed(5))

	// Kill the connection: every store call now errors
	testutil.BreakTestDB(t, db)

	result := service.CheckLimit(user.ID, model.TierFree)
	assert.True(t, result.Allowed)
	assert.Equal(t, LimitUnknown, result.DailyLimit)
	assert.Equal(t, LimitUnknown, result.Remaining)
	assert.Nil(t, result.ResetTime)

	// Increment swallows the error too
	service.IncrementUsage(user.ID)

	// Tier resolution degrades to free
	assert.Equal(t, model.TierFree, service.ResolveTier(user.ID))
}

func TestChatLimitService_CheckGuestLimit(t *testing.T) {
	service := NewChatLimitService(nil) // pure function, no store needed

	for _, count := range []int{0, 1} {
		result := service.CheckGuestLimit(count)
		assert.True(t, result.Allowed, "count %d should be allowed", count)
		assert.Equal(t, 2, result.Limit)
		assert.Equal(t, 2-count, result.Remaining)
		assert.Empty(t, result.Message)
	}

	for _, count := range []int{2, 3, 100} {
		result := service.CheckGuestLimit(count)
		assert.False(t, result.Allowed, "count %d should be blocked", count)
		assert.Equal(t, 0, result.Remaining)
		assert.Equal(t, "You've used your 2 free chats! Sign up for 5 daily chats.", result.Message)
		assert.Equal(t, "/signup?source=guest_limit", result.SignupURL)
	}
}

func TestChatLimitService_ResolveTier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	subRepo := repository.NewSubscriptionRepository(db)
	service := NewChatLimitService(subRepo)

	user := testutil.TestUser(t, db)

	// No row yet: free
	assert.Equal(t, model.TierFree, service.ResolveTier(user.ID))

	testutil.TestSubscription(t, db, user.ID, testutil.WithTier(model.TierPremium))
	assert.Equal(t, model.TierPremium, service.ResolveTier(user.ID))
}
