package model

import (
	"time"
)

type Course struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	CoverURL     string    `gorm:"size:500" json:"cover_url"`
	RequiredTier string    `gorm:"size:20;default:free" json:"required_tier"`
	Published    bool      `gorm:"default:false;index" json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

type Lesson struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CourseID  int64     `gorm:"not null;index" json:"course_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	AudioURL  string    `gorm:"size:500" json:"audio_url,omitempty"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonProgress marks a lesson completed by a user. One row per
// (user, lesson) pair.
type LessonProgress struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;index:idx_progress_user_lesson,unique" json:"user_id"`
	LessonID    int64     `gorm:"not null;index:idx_progress_user_lesson,unique" json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
