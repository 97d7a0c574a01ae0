package controller

import (
	"educorp_backend/internal/middleware"
	"educorp_backend/internal/model"
	"educorp_backend/internal/service"
	"educorp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController serves the catalog and the caller's own enrollments and progress.
type CourseController struct {
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
}

func NewCourseController(courseService *service.CourseService, enrollmentService *service.EnrollmentService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
	}
}

// ListCourses godoc
// @Summary Active courses, newest first
// @Tags courses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	util.Success(ctx, c.CourseService.ListActiveCourses(ctx.Request.Context()))
}

// GetCourse godoc
// @Summary Course detail with lesson count
// @Tags courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=model.CourseWithLessons}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.GetCourseByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if course == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, model.CourseWithLessons{Course: course, TotalLessons: c.CourseService.TotalLessonCount(course)})
}

// Enroll godoc
// @Summary Enroll the caller in a course
// @Tags enrollment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	course, err := c.CourseService.GetCourseByID(reqCtx, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if course == nil || !course.IsActive {
		util.NotFound(ctx)
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(reqCtx, middleware.CurrentSession(ctx).UserID, course.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// Unenroll godoc
// @Summary Leave a course
// @Tags enrollment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/enroll [delete]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	if err := c.EnrollmentService.Unenroll(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetEnrollment godoc
// @Summary Enrollment status for a course
// @Tags enrollment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/enrollment [get]
func (c *CourseController) GetEnrollment(ctx *gin.Context) {
	enrollment, err := c.EnrollmentService.GetEnrollment(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"enrolled":   enrollment != nil,
		"enrollment": enrollment,
	})
}

// GetProgress godoc
// @Summary Progress of the caller in a course
// @Tags enrollment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=model.ProgressWithCourse}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) GetProgress(ctx *gin.Context) {
	progress, err := c.EnrollmentService.GetProgress(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if progress == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, model.ProgressWithCourse{UserProgress: *progress, Status: c.EnrollmentService.Classify(progress)})
}

// CompleteLesson godoc
// @Summary Mark a lesson as completed
// @Tags enrollment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} util.Response{data=model.UserProgress}
// @Failure 409 {object} util.Response
// @Router /api/courses/{id}/lessons/{lessonId}/complete [post]
func (c *CourseController) CompleteLesson(ctx *gin.Context) {
	progress, err := c.EnrollmentService.RecordLessonComplete(ctx.Request.Context(),
		middleware.CurrentSession(ctx).UserID, ctx.Param("id"), ctx.Param("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// MyProgress godoc
// @Summary Every progress row of the caller with its course
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.ProgressWithCourse}
// @Router /api/me/progress [get]
func (c *CourseController) MyProgress(ctx *gin.Context) {
	util.Success(ctx, c.EnrollmentService.ListUserProgress(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID))
}

// MyEnrollments godoc
// @Summary Every enrollment of the caller with its course
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.EnrollmentWithCourse}
// @Router /api/me/enrollments [get]
func (c *CourseController) MyEnrollments(ctx *gin.Context) {
	util.Success(ctx, c.EnrollmentService.ListUserEnrollments(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID))
}

// MyCourses godoc
// @Summary Caller's courses filtered by state
// @Description in-progress and completed classify progress rows; pending lists enrollments without a progress row
// @Tags me
// @Security BearerAuth
// @Produce json
// @Param state path string true "in-progress, completed or pending"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/me/courses/{state} [get]
func (c *CourseController) MyCourses(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	userID := middleware.CurrentSession(ctx).UserID
	switch ctx.Param("state") {
	case string(model.ProgressInProgress):
		util.Success(ctx, c.EnrollmentService.CoursesInProgress(reqCtx, userID))
	case string(model.ProgressCompleted):
		util.Success(ctx, c.EnrollmentService.CompletedCourses(reqCtx, userID))
	case string(model.ProgressPending):
		util.Success(ctx, c.EnrollmentService.PendingCourses(reqCtx, userID))
	default:
		util.BadRequest(ctx, "state must be in-progress, completed or pending")
	}
}

// MyStatistics godoc
// @Summary Course counters for the caller
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.UserStatistics}
// @Router /api/me/statistics [get]
func (c *CourseController) MyStatistics(ctx *gin.Context) {
	util.Success(ctx, c.EnrollmentService.UserStatistics(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID))
}
