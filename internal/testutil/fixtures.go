package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
)

// TestUser creates a test user.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:      fmt.Sprintf("testuser_%d", time.Now().UnixNano()%1000000),
		Email:         &email,
		PasswordHash:  &passwordHash,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername sets the username.
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail sets the email.
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// TestSubscription creates a subscription row for a user.
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now()
	sub := &model.Subscription{
		UserID:         userID,
		Tier:           model.TierFree,
		DailyChatsUsed: 0,
		LastResetDate:  &now,
		Status:         model.SubStatusActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithTier sets the subscription tier.
func WithTier(tier string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Tier = tier
	}
}

// WithChatsUsed sets the daily counter.
func WithChatsUsed(used int) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.DailyChatsUsed = used
	}
}

// WithLastReset sets the last reset timestamp.
func WithLastReset(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.LastResetDate = &at
	}
}

// WithStatus sets the subscription status.
func WithStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// TestChatMessage creates a chat message.
func TestChatMessage(t *testing.T, db *gorm.DB, userID int64, role, content string) *model.ChatMessage {
	t.Helper()

	msg := &model.ChatMessage{
		UserID:  userID,
		Role:    role,
		Content: content,
	}

	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("Failed to create test chat message: %v", err)
	}

	return msg
}

// TestCourse creates a published course.
func TestCourse(t *testing.T, db *gorm.DB, opts ...func(*model.Course)) *model.Course {
	t.Helper()

	course := &model.Course{
		Title:        fmt.Sprintf("Test Course %d", time.Now().UnixNano()%1000000),
		Description:  "A course for tests",
		RequiredTier: model.TierFree,
		Published:    true,
	}

	for _, opt := range opts {
		opt(course)
	}

	if err := db.Create(course).Error; err != nil {
		t.Fatalf("Failed to create test course: %v", err)
	}

	return course
}

// WithRequiredTier sets the course's minimum tier.
func WithRequiredTier(tier string) func(*model.Course) {
	return func(c *model.Course) {
		c.RequiredTier = tier
	}
}

// WithPublished toggles course visibility.
func WithPublished(published bool) func(*model.Course) {
	return func(c *model.Course) {
		c.Published = published
	}
}

// TestLesson creates a lesson in a course.
func TestLesson(t *testing.T, db *gorm.DB, courseID int64, position int) *model.Lesson {
	t.Helper()

	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    fmt.Sprintf("Lesson %d", position),
		Content:  "Lesson content",
		Position: position,
	}

	if err := db.Create(lesson).Error; err != nil {
		t.Fatalf("Failed to create test lesson: %v", err)
	}

	return lesson
}

// TestPost creates a forum post.
func TestPost(t *testing.T, db *gorm.DB, userID int64, title string) *model.ForumPost {
	t.Helper()

	post := &model.ForumPost{
		UserID:   userID,
		Title:    title,
		Content:  "Post content",
		Category: "general",
	}

	if err := db.Create(post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}

	return post
}
