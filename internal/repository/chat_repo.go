package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

// ListByUser returns the user's most recent messages in chronological
// order, capped at limit.
func (r *ChatRepository) ListByUser(userID int64, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *ChatRepository) UpdateAudioURL(id int64, audioURL string) error {
	return r.db.Model(&model.ChatMessage{}).Where("id = ?", id).
		Update("audio_url", audioURL).Error
}

func (r *ChatRepository) CountByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.ChatMessage{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteOlderThan removes messages created before the cutoff. Used by
// the cleanup binary.
func (r *ChatRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&model.ChatMessage{})
	return result.RowsAffected, result.Error
}
