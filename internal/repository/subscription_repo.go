package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
)

// SubscriptionRepository is the backing store for the chat limiter.
// Each call is atomic on its own; the limiter never composes calls
// into a transaction. Concurrent Creates for the same user are
// resolved by the unique index on user_id, not by the caller.
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByUserID(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

// IncrementChatsUsed bumps the daily counter by one in a single SQL
// expression so concurrent increments never lose writes.
func (r *SubscriptionRepository) IncrementChatsUsed(id int64) error {
	return r.db.Model(&model.Subscription{}).Where("id = ?", id).
		Update("daily_chats_used", gorm.Expr("daily_chats_used + 1")).Error
}

// ResetDaily zeroes the counter and stamps the reset time.
func (r *SubscriptionRepository) ResetDaily(id int64, resetAt time.Time) error {
	return r.db.Model(&model.Subscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"daily_chats_used": 0,
		"last_reset_date":  resetAt,
	}).Error
}

// UpdateTier is used by billing/admin flows; the limiter itself only
// reads the tier.
func (r *SubscriptionRepository) UpdateTier(userID int64, tier, status string) error {
	return r.db.Model(&model.Subscription{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"tier":   tier,
		"status": status,
	}).Error
}
