package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/repository"
	"github.com/soulspace/soulspace_server/internal/testutil"
)

func setupUserService(t *testing.T, db *gorm.DB) *UserService {
	t.Helper()

	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	limiter := NewChatLimitService(subRepo)

	return NewUserService(userRepo, limiter, nil, &config.Config{})
}

func TestUserService_GetProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupUserService(t, db)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithTier(model.TierPremium), testutil.WithChatsUsed(3))

	info, err := service.GetProfile(user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.Username, info.Username)
	assert.Equal(t, model.TierPremium, info.Tier)
	require.NotNil(t, info.QuotaInfo)
	assert.Equal(t, 10, info.QuotaInfo.DailyLimit)
	assert.Equal(t, 3, info.QuotaInfo.Used)
	assert.Equal(t, 7, info.QuotaInfo.Remaining)
	assert.NotEmpty(t, info.QuotaInfo.ResetTime)
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupUserService(t, db)

	_, err := service.GetProfile(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_GetQuota_NewUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupUserService(t, db)

	user := testutil.TestUser(t, db)

	quota := service.GetQuota(user.ID)
	assert.Equal(t, model.TierFree, quota.Tier)
	assert.Equal(t, 5, quota.DailyLimit)
	assert.Equal(t, 0, quota.Used)
	assert.Equal(t, 5, quota.Remaining)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupUserService(t, db)

	user := testutil.TestUser(t, db)

	newName := "renamed_seeker"
	newBio := "Walking the path."

	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &newName,
		Bio:      &newBio,
	})

	require.NoError(t, err)
	assert.Equal(t, newName, info.Username)
	assert.Equal(t, newBio, info.Bio)

	updated, err := repository.NewUserRepository(db).GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Username)
}

func TestUserService_UpdateProfile_UsernameTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupUserService(t, db)

	testutil.TestUser(t, db, testutil.WithUsername("occupied"))
	user := testutil.TestUser(t, db)

	taken := "occupied"
	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &taken,
	})

	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserService_UploadAvatar_NoStorage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupUserService(t, db)

	user := testutil.TestUser(t, db)

	_, err := service.UploadAvatar(user.ID, nil, "a.png")
	assert.Error(t, err)
}
