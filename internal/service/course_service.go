package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/repository"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrTierRequired   = errors.New("a higher subscription tier is required for this course")
)

// Tier ordering for course gating. The chat limiter has its own map;
// course access only cares about rank.
var tierRank = map[string]int{
	model.TierFree:           0,
	model.TierPremium:        1,
	model.TierTransformation: 2,
}

type CourseService struct {
	courseRepo *repository.CourseRepository
	limiter    *ChatLimitService
}

func NewCourseService(courseRepo *repository.CourseRepository, limiter *ChatLimitService) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		limiter:    limiter,
	}
}

// ListCourses returns all published courses with the caller's
// completion counts. userID 0 means anonymous.
func (s *CourseService) ListCourses(userID int64) ([]*dto.CourseSummary, error) {
	courses, err := s.courseRepo.ListPublished()
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.CourseSummary, 0, len(courses))
	for _, course := range courses {
		summary := &dto.CourseSummary{
			ID:           course.ID,
			Title:        course.Title,
			Description:  course.Description,
			CoverURL:     course.CoverURL,
			RequiredTier: course.RequiredTier,
		}

		summary.LessonCount, _ = s.courseRepo.CountLessons(course.ID)
		if userID > 0 {
			summary.CompletedCount, _ = s.courseRepo.CountCompleted(userID, course.ID)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetCourse returns the course with lessons and the caller's progress.
// Access is gated on the course's required tier.
func (s *CourseService) GetCourse(userID, courseID int64) (*dto.CourseDetail, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.Published {
		return nil, ErrCourseNotFound
	}

	if err := s.checkAccess(userID, course.RequiredTier); err != nil {
		return nil, err
	}

	lessons, err := s.courseRepo.ListLessons(courseID)
	if err != nil {
		return nil, err
	}

	completed := make(map[int64]bool)
	if userID > 0 {
		ids, err := s.courseRepo.ListCompletedLessonIDs(userID, courseID)
		if err == nil {
			for _, id := range ids {
				completed[id] = true
			}
		}
	}

	detail := &dto.CourseDetail{
		ID:           course.ID,
		Title:        course.Title,
		Description:  course.Description,
		CoverURL:     course.CoverURL,
		RequiredTier: course.RequiredTier,
		Lessons:      make([]dto.LessonDetail, 0, len(lessons)),
	}

	for _, lesson := range lessons {
		detail.Lessons = append(detail.Lessons, dto.LessonDetail{
			ID:        lesson.ID,
			CourseID:  lesson.CourseID,
			Title:     lesson.Title,
			Content:   lesson.Content,
			AudioURL:  lesson.AudioURL,
			Position:  lesson.Position,
			Completed: completed[lesson.ID],
		})
	}

	return detail, nil
}

// CompleteLesson marks a lesson done. Idempotent.
func (s *CourseService) CompleteLesson(userID, lessonID int64) error {
	lesson, err := s.courseRepo.GetLesson(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	course, err := s.courseRepo.GetByID(lesson.CourseID)
	if err != nil {
		return err
	}

	if err := s.checkAccess(userID, course.RequiredTier); err != nil {
		return err
	}

	return s.courseRepo.MarkCompleted(userID, lessonID)
}

func (s *CourseService) checkAccess(userID int64, requiredTier string) error {
	if tierRank[requiredTier] == 0 {
		return nil
	}
	if userID == 0 {
		return ErrTierRequired
	}

	tier := s.limiter.ResolveTier(userID)
	if tierRank[tier] < tierRank[requiredTier] {
		return ErrTierRequired
	}
	return nil
}
