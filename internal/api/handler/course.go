package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soulspace/soulspace_server/internal/api/middleware"
	"github.com/soulspace/soulspace_server/internal/pkg/response"
	"github.com/soulspace/soulspace_server/internal/service"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
	}
}

// List returns published courses with the caller's progress.
// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	// Anonymous browsing is fine; progress is just omitted
	userID, _ := middleware.GetUserID(c)

	summaries, err := h.courseService.ListCourses(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, summaries)
}

// Get returns a course with lessons and completion flags.
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid course ID")
		return
	}

	detail, err := h.courseService.GetCourse(userID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTierRequired):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, detail)
}

// CompleteLesson marks a lesson as done.
// POST /api/v1/lessons/:id/complete
func (h *CourseHandler) CompleteLesson(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	lessonID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid lesson ID")
		return
	}

	if err := h.courseService.CompleteLesson(userID, lessonID); err != nil {
		switch {
		case errors.Is(err, service.ErrLessonNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTierRequired):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "Lesson completed", nil)
}
