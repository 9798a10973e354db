package model

import (
	"time"
)

// Subscription tier identifiers. The daily limit per tier is fixed in
// service.ChatLimitService, not stored here.
const (
	TierFree           = "free"
	TierPremium        = "premium"
	TierTransformation = "transformation"
)

// Subscription statuses. The chat limiter reads status but does not
// enforce it; billing owns the lifecycle.
const (
	SubStatusActive    = "active"
	SubStatusCancelled = "cancelled"
	SubStatusExpired   = "expired"
)

// Subscription is one row per user, created lazily on the user's first
// chat. DailyChatsUsed rolls over to zero at UTC midnight, evaluated
// lazily on the next limit check.
type Subscription struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UserID         int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	Tier           string     `gorm:"size:20;not null;default:free" json:"tier"`
	DailyChatsUsed int        `gorm:"default:0" json:"daily_chats_used"`
	LastResetDate  *time.Time `json:"last_reset_date,omitempty"`
	Status         string     `gorm:"size:20;default:active;index" json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
