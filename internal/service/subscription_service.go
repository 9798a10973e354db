package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/pkg/email"
	"github.com/soulspace/soulspace_server/internal/pkg/queue"
	"github.com/soulspace/soulspace_server/internal/pkg/ws"
	"github.com/soulspace/soulspace_server/internal/repository"
)

var ErrUnknownTier = errors.New("unknown subscription tier")

// SubscriptionService applies tier changes coming from the billing
// backend. The limiter reads tiers; this is the only writer.
type SubscriptionService struct {
	subRepo  *repository.SubscriptionRepository
	userRepo *repository.UserRepository
	crmQueue *queue.Queue
	mailer   *email.Service
	hub      *ws.Hub
	cfg      *config.Config
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, userRepo *repository.UserRepository, crmQueue *queue.Queue, mailer *email.Service, hub *ws.Hub, cfg *config.Config) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		crmQueue: crmQueue,
		mailer:   mailer,
		hub:      hub,
		cfg:      cfg,
	}
}

// ChangeTier moves the user to a new tier. The daily counter is left
// untouched: usage already consumed today still counts against the new
// limit.
func (s *SubscriptionService) ChangeTier(userID int64, tier string) error {
	if _, ok := map[string]bool{
		model.TierFree:           true,
		model.TierPremium:        true,
		model.TierTransformation: true,
	}[tier]; !ok {
		return ErrUnknownTier
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// Ensure the row exists before updating; users who never chatted
	// have no subscription yet.
	if _, err := s.subRepo.GetByUserID(userID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now()
		sub := &model.Subscription{
			UserID:        userID,
			Tier:          tier,
			LastResetDate: &now,
			Status:        model.SubStatusActive,
		}
		if err := s.subRepo.Create(sub); err == nil {
			s.notifyTierChange(user, tier)
			return nil
		}
		// Lost the insert race, fall through to the update
	}

	if err := s.subRepo.UpdateTier(userID, tier, model.SubStatusActive); err != nil {
		return err
	}

	s.notifyTierChange(user, tier)
	return nil
}

func (s *SubscriptionService) notifyTierChange(user *model.User, tier string) {
	if s.hub != nil {
		if err := s.hub.SendToUser(user.ID, &ws.Message{
			Type: ws.TypeTierChanged,
			Data: map[string]string{"tier": tier},
		}); err != nil {
			log.Printf("Subscription: failed to push tier change for user %d: %v", user.ID, err)
		}
	}

	if s.mailer != nil && user.Email != nil {
		if err := s.mailer.SendTierUpgraded(*user.Email, user.Username, tier); err != nil {
			log.Printf("Subscription: failed to send tier email to user %d: %v", user.ID, err)
		}
	}

	if s.crmQueue != nil {
		msg := &queue.SyncMessage{
			Action:   queue.ActionUpdateTier,
			UserID:   user.ID,
			Username: user.Username,
			Tier:     tier,
		}
		if user.Email != nil {
			msg.Email = *user.Email
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.crmQueue.Push(ctx, msg); err != nil {
			log.Printf("Subscription: failed to enqueue CRM sync for user %d: %v", user.ID, err)
		}
	}
}
