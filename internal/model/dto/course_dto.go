package dto

type CourseSummary struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	CoverURL       string `json:"cover_url"`
	RequiredTier   string `json:"required_tier"`
	LessonCount    int64  `json:"lesson_count"`
	CompletedCount int64  `json:"completed_count"`
}

type LessonDetail struct {
	ID        int64  `json:"id"`
	CourseID  int64  `json:"course_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	AudioURL  string `json:"audio_url,omitempty"`
	Position  int    `json:"position"`
	Completed bool   `json:"completed"`
}

type CourseDetail struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	CoverURL     string         `json:"cover_url"`
	RequiredTier string         `json:"required_tier"`
	Lessons      []LessonDetail `json:"lessons"`
}
