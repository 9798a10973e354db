package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/email"
	"github.com/soulspace/soulspace_server/internal/pkg/jwt"
	"github.com/soulspace/soulspace_server/internal/pkg/oauth"
	"github.com/soulspace/soulspace_server/internal/pkg/queue"
	"github.com/soulspace/soulspace_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("email is already registered")
	ErrUsernameExists     = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidVerifyCode  = errors.New("verification code is invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService struct {
	userRepo    *repository.UserRepository
	limiter     *ChatLimitService
	crmQueue    *queue.Queue
	mailer      *email.Service
	cfg         *config.Config
	googleOAuth *oauth.GoogleOAuth
}

func NewAuthService(userRepo *repository.UserRepository, limiter *ChatLimitService, crmQueue *queue.Queue, mailer *email.Service, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		limiter:  limiter,
		crmQueue: crmQueue,
		mailer:   mailer,
		cfg:      cfg,
		googleOAuth: oauth.NewGoogleOAuth(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURI,
		),
	}
}

// Register creates a new account and sends the verification email.
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	exists, err = s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyCode, err := generateRandomCode(32)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	expiresAt := time.Now().Add(24 * time.Hour)

	user := &model.User{
		Username:              req.Username,
		Email:                 &req.Email,
		PasswordHash:          &passwordStr,
		VerificationCode:      &verifyCode,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerificationCode(req.Email, verifyCode); err != nil {
			log.Printf("Auth: failed to send verification email to user %d: %v", user.ID, err)
		}
	}

	// Development convenience: verify immediately in debug mode
	if s.cfg.Server.Mode == "debug" {
		user.EmailVerified = true
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	return &dto.RegisterResponse{
		UserID: user.ID,
	}, nil
}

// Login authenticates with email and password.
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Verified email is required in production, skipped in debug
	if !user.EmailVerified && s.cfg.Server.Mode != "debug" {
		return nil, ErrEmailNotVerified
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  s.buildUserInfo(user),
	}, nil
}

// VerifyEmail consumes the verification code, activates the account
// and queues the CRM contact sync.
func (s *AuthService) VerifyEmail(code string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByVerificationCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerifyCode
		}
		return nil, err
	}

	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return nil, ErrInvalidVerifyCode
	}

	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	s.enqueueCRMSync(user, "signup")

	if s.mailer != nil && user.Email != nil {
		if err := s.mailer.SendWelcome(*user.Email, user.Username); err != nil {
			log.Printf("Auth: failed to send welcome email to user %d: %v", user.ID, err)
		}
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  s.buildUserInfo(user),
	}, nil
}

// GetUserByID loads a user by primary key.
func (s *AuthService) GetUserByID(id int64) (*model.User, error) {
	return s.userRepo.GetByID(id)
}

// GetGoogleAuthURL builds the Google consent URL for the given state.
func (s *AuthService) GetGoogleAuthURL(state string) string {
	return s.googleOAuth.GetAuthURL(state)
}

// GoogleCallback handles the OAuth redirect: exchanges the code,
// creates the account on first login and returns a session token.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	token, err := s.googleOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	googleUser, err := s.googleOAuth.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get google user: %w", err)
	}

	user, err := s.userRepo.GetByGoogleID(googleUser.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user == nil {
		username := usernameFromEmail(googleUser.Email, googleUser.Name)
		user = &model.User{
			Username:      username,
			GoogleID:      &googleUser.ID,
			AvatarURL:     googleUser.Picture,
			EmailVerified: true, // Google has already verified the address
		}

		if googleUser.Email != "" {
			user.Email = &googleUser.Email
		}

		exists, _ := s.userRepo.ExistsByUsername(user.Username)
		if exists {
			user.Username = fmt.Sprintf("%s_%s", username, googleUser.ID[:6])
		}

		if err := s.userRepo.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		s.enqueueCRMSync(user, "oauth_google")
	}

	jwtToken, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: jwtToken,
		User:  s.buildUserInfo(user),
	}, nil
}

// enqueueCRMSync pushes a contact sync task. Failures are logged only;
// CRM sync must never block signup.
func (s *AuthService) enqueueCRMSync(user *model.User, source string) {
	if s.crmQueue == nil {
		return
	}

	msg := &queue.SyncMessage{
		Action:   queue.ActionUpsertContact,
		UserID:   user.ID,
		Username: user.Username,
		Tier:     model.TierFree,
		Source:   source,
	}
	if user.Email != nil {
		msg.Email = *user.Email
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.crmQueue.Push(ctx, msg); err != nil {
		log.Printf("Auth: failed to enqueue CRM sync for user %d: %v", user.ID, err)
	}
}

func (s *AuthService) buildUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:            user.ID,
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		Bio:           user.Bio,
		EmailVerified: user.EmailVerified,
	}

	if user.Email != nil {
		info.Email = *user.Email
	}

	if s.limiter != nil {
		info.Tier = s.limiter.ResolveTier(user.ID)
	} else {
		info.Tier = model.TierFree
	}

	return info
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// usernameFromEmail derives a starter username for OAuth signups.
func usernameFromEmail(emailAddr, name string) string {
	if emailAddr != "" {
		for i := 0; i < len(emailAddr); i++ {
			if emailAddr[i] == '@' {
				return emailAddr[:i]
			}
		}
	}
	if name != "" {
		return name
	}
	return "seeker"
}
