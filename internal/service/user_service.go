package service

import (
	"errors"
	"io"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/oss"
	"github.com/soulspace/soulspace_server/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	limiter   *ChatLimitService
	ossClient *oss.Client
	cfg       *config.Config
}

func NewUserService(userRepo *repository.UserRepository, limiter *ChatLimitService, ossClient *oss.Client, cfg *config.Config) *UserService {
	return &UserService{
		userRepo:  userRepo,
		limiter:   limiter,
		ossClient: ossClient,
		cfg:       cfg,
	}
}

// GetProfile returns the user's profile with the quota snapshot.
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.buildUserInfoWithQuota(user), nil
}

// GetQuota returns just the quota snapshot, for the frontend's chat
// counter widget.
func (s *UserService) GetQuota(userID int64) *dto.QuotaInfo {
	tier := s.limiter.ResolveTier(userID)
	result := s.limiter.CheckLimit(userID, tier)
	return quotaInfoFromResult(result)
}

// UpdateProfile changes username and bio.
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameExists
		}
		user.Username = *req.Username
	}

	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return s.buildUserInfoWithQuota(user), nil
}

// UploadAvatar stores an avatar image and records its URL.
func (s *UserService) UploadAvatar(userID int64, file io.Reader, filename string) (string, error) {
	if s.ossClient == nil {
		return "", errors.New("object storage is not configured")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}

	avatarURL, err := s.ossClient.UploadAvatar(userID, data, ext)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{
		"avatar_url": avatarURL,
	}); err != nil {
		return "", err
	}

	return avatarURL, nil
}

func (s *UserService) buildUserInfoWithQuota(user *model.User) *dto.UserInfo {
	tier := model.TierFree
	if s.limiter != nil {
		tier = s.limiter.ResolveTier(user.ID)
	}

	info := &dto.UserInfo{
		ID:            user.ID,
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		Bio:           user.Bio,
		Tier:          tier,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}

	if user.Email != nil {
		info.Email = *user.Email
	}

	if s.limiter != nil {
		info.QuotaInfo = quotaInfoFromResult(s.limiter.CheckLimit(user.ID, tier))
	}

	return info
}

func quotaInfoFromResult(result *LimitResult) *dto.QuotaInfo {
	info := &dto.QuotaInfo{
		Tier:       result.Tier,
		DailyLimit: result.DailyLimit,
		Used:       result.Used,
		Remaining:  result.Remaining,
	}
	if result.ResetTime != nil {
		info.ResetTime = result.ResetTime.Format(time.RFC3339)
	}
	return info
}
