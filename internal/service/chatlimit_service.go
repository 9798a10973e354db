package service

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/repository"
)

// Sentinel values reported in LimitResult.DailyLimit / Remaining.
// LimitUnknown is returned when the store could not be read and the
// limiter fails open.
const (
	LimitUnlimited = -1
	LimitUnknown   = -2
)

// GuestChatLimit is the lifetime-session ceiling for unauthenticated
// visitors. Guests have no daily window, just this absolute cap
// validated against a client-reported count.
const GuestChatLimit = 2

// Daily chat limits per tier. Fixed by product, deliberately not
// runtime-configurable.
var tierDailyLimits = map[string]int{
	model.TierFree:           5,
	model.TierPremium:        10,
	model.TierTransformation: LimitUnlimited,
}

// LimitResult is what a chat request is decided on. There is no error
// variant: any store failure is mapped to an allowed result with
// unknown quota inside CheckLimit. A broken limiter must never block
// the chat feature itself.
type LimitResult struct {
	Allowed        bool
	Tier           string
	DailyLimit     int
	Used           int
	Remaining      int
	ResetTime      *time.Time
	UpgradeMessage string
	UpgradeURL     string
}

// GuestResult is the decision for an unauthenticated request.
type GuestResult struct {
	Allowed   bool
	Limit     int
	Used      int
	Remaining int
	Message   string
	SignupURL string
}

// ChatLimitService enforces the per-tier daily chat quota. It is
// stateless apart from the injected store; construct once at startup
// and share across handlers.
type ChatLimitService struct {
	subRepo *repository.SubscriptionRepository
}

func NewChatLimitService(subRepo *repository.SubscriptionRepository) *ChatLimitService {
	return &ChatLimitService{subRepo: subRepo}
}

// ResolveTier returns the user's current tier, defaulting to free when
// no subscription row exists or the store cannot be read.
func (s *ChatLimitService) ResolveTier(userID int64) string {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("ChatLimit: failed to resolve tier for user %d: %v", userID, err)
		}
		return model.TierFree
	}
	return sub.Tier
}

// CheckLimit decides whether the user may start another chat turn
// today. The subscription row is created lazily with free-tier
// defaults on first contact, and the daily counter is rolled over
// lazily when a UTC calendar day boundary has passed since the last
// reset. Fail-open: any store error yields an allowed result with
// DailyLimit/Remaining = LimitUnknown and a nil ResetTime.
func (s *ChatLimitService) CheckLimit(userID int64, tier string) *LimitResult {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("ChatLimit: failed to load subscription for user %d: %v", userID, err)
			return s.failOpen(tier)
		}
		sub, err = s.createDefault(userID)
		if err != nil {
			log.Printf("ChatLimit: failed to create subscription for user %d: %v", userID, err)
			return s.failOpen(tier)
		}
	}

	if shouldReset(sub.LastResetDate, time.Now()) {
		now := time.Now()
		if err := s.subRepo.ResetDaily(sub.ID, now); err != nil {
			log.Printf("ChatLimit: failed to reset daily counter for user %d: %v", userID, err)
			return s.failOpen(tier)
		}
		sub.DailyChatsUsed = 0
		sub.LastResetDate = &now
	}

	limit := dailyLimitFor(tier)
	reset := nextResetTime(time.Now())

	if limit == LimitUnlimited {
		// Counter is still reported for analytics but never blocks.
		return &LimitResult{
			Allowed:    true,
			Tier:       tier,
			DailyLimit: LimitUnlimited,
			Used:       sub.DailyChatsUsed,
			Remaining:  LimitUnlimited,
			ResetTime:  &reset,
		}
	}

	remaining := limit - sub.DailyChatsUsed
	if remaining < 0 {
		remaining = 0
	}

	result := &LimitResult{
		Allowed:    sub.DailyChatsUsed < limit,
		Tier:       tier,
		DailyLimit: limit,
		Used:       sub.DailyChatsUsed,
		Remaining:  remaining,
		ResetTime:  &reset,
	}

	if !result.Allowed {
		result.UpgradeMessage, result.UpgradeURL = upgradePrompt(tier)
	}

	return result
}

// IncrementUsage consumes one chat turn. It is only called after a
// successful AI reply, so failures here must never surface to the
// caller: the turn already happened. Absent rows are logged and
// skipped; CheckLimit owns row creation.
func (s *ChatLimitService) IncrementUsage(userID int64) {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("ChatLimit: no subscription for user %d, skipping usage increment", userID)
		} else {
			log.Printf("ChatLimit: failed to load subscription for user %d: %v", userID, err)
		}
		return
	}

	if dailyLimitFor(sub.Tier) == LimitUnlimited {
		return
	}

	if err := s.subRepo.IncrementChatsUsed(sub.ID); err != nil {
		log.Printf("ChatLimit: failed to increment usage for user %d: %v", userID, err)
	}
}

// CheckGuestLimit validates a client-reported guest chat count against
// the fixed ceiling. Pure function: no storage, no clock. The count is
// trusted by design; this is a soft limit, not a security boundary.
func (s *ChatLimitService) CheckGuestLimit(guestChatCount int) *GuestResult {
	remaining := GuestChatLimit - guestChatCount
	if remaining < 0 {
		remaining = 0
	}

	result := &GuestResult{
		Allowed:   guestChatCount < GuestChatLimit,
		Limit:     GuestChatLimit,
		Used:      guestChatCount,
		Remaining: remaining,
	}

	if !result.Allowed {
		result.Message = "You've used your 2 free chats! Sign up for 5 daily chats."
		result.SignupURL = "/signup?source=guest_limit"
	}

	return result
}

func (s *ChatLimitService) createDefault(userID int64) (*model.Subscription, error) {
	now := time.Now()
	sub := &model.Subscription{
		UserID:         userID,
		Tier:           model.TierFree,
		DailyChatsUsed: 0,
		LastResetDate:  &now,
		Status:         model.SubStatusActive,
	}

	if err := s.subRepo.Create(sub); err == nil {
		return sub, nil
	}

	// A concurrent request may have won the insert; the unique index
	// on user_id is the source of truth, so read back.
	return s.subRepo.GetByUserID(userID)
}

func (s *ChatLimitService) failOpen(tier string) *LimitResult {
	return &LimitResult{
		Allowed:    true,
		Tier:       tier,
		DailyLimit: LimitUnknown,
		Used:       0,
		Remaining:  LimitUnknown,
		ResetTime:  nil,
	}
}

// dailyLimitFor maps a tier to its daily limit. Unknown or empty tier
// strings fall back to the free limit; they are never an error.
func dailyLimitFor(tier string) int {
	if limit, ok := tierDailyLimits[tier]; ok {
		return limit
	}
	return tierDailyLimits[model.TierFree]
}

func upgradePrompt(tier string) (string, string) {
	switch tier {
	case model.TierFree:
		return "Daily limit reached. Upgrade to Premium for 10 daily chats.", "/pricing?plan=premium"
	case model.TierPremium:
		return "Daily limit reached. Upgrade to Transformation for unlimited chats.", "/pricing?plan=transformation"
	default:
		return "Daily chat limit reached. Please try again tomorrow.", "/pricing"
	}
}

// shouldReset reports whether the daily counter must roll over: true
// when now's UTC calendar date is strictly later than the last reset's
// UTC calendar date, or when no reset has ever been recorded. The
// quota window is the UTC day, not a rolling 24 hours.
func shouldReset(lastResetDate *time.Time, now time.Time) bool {
	if lastResetDate == nil {
		return true
	}

	ly, lm, ld := lastResetDate.UTC().Date()
	ny, nm, nd := now.UTC().Date()

	lastDay := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	return nowDay.After(lastDay)
}

// nextResetTime is tomorrow 00:00:00 UTC. Derived fresh on every call,
// never persisted or compared against.
func nextResetTime(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
