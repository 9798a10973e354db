package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) ListPublished() ([]*model.Course, error) {
	var courses []*model.Course
	err := r.db.Where("published = ?", true).Order("created_at ASC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) GetByID(id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.Where("id = ?", id).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) ListLessons(courseID int64) ([]*model.Lesson, error) {
	var lessons []*model.Lesson
	err := r.db.Where("course_id = ?", courseID).Order("position ASC").Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) GetLesson(id int64) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.Where("id = ?", id).First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) CountLessons(courseID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// MarkCompleted records lesson completion. Re-completing is a no-op
// thanks to the unique (user, lesson) index.
func (r *CourseRepository) MarkCompleted(userID, lessonID int64) error {
	progress := &model.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		CompletedAt: time.Now(),
	}
	err := r.db.Create(progress).Error
	if err != nil {
		// Already completed: keep the original completion time
		var count int64
		r.db.Model(&model.LessonProgress{}).
			Where("user_id = ? AND lesson_id = ?", userID, lessonID).Count(&count)
		if count > 0 {
			return nil
		}
	}
	return err
}

func (r *CourseRepository) ListCompletedLessonIDs(userID, courseID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Where("lesson_progress.user_id = ? AND lessons.course_id = ?", userID, courseID).
		Pluck("lesson_progress.lesson_id", &ids).Error
	return ids, err
}

func (r *CourseRepository) CountCompleted(userID, courseID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Where("lesson_progress.user_id = ? AND lessons.course_id = ?", userID, courseID).
		Count(&count).Error
	return count, err
}
