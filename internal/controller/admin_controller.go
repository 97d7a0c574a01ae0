package controller

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"educorp_backend/internal/service"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController backs the back-office screens for courses and users.
type AdminController struct {
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
	UserService       *service.UserService
	MaxUploadBytes    int64
}

const defaultMaxUploadBytes = 2 << 30

func NewAdminController(courseService *service.CourseService, enrollmentService *service.EnrollmentService, userService *service.UserService) *AdminController {
	return &AdminController{
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
		UserService:       userService,
		MaxUploadBytes:    defaultMaxUploadBytes,
	}
}

// ListCourses godoc
// @Summary Every course, including inactive ones
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/admin/courses [get]
func (c *AdminController) ListCourses(ctx *gin.Context) {
	util.Success(ctx, c.CourseService.ListAllCoursesForAdmin(ctx.Request.Context()))
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body service.CourseInput true "Course"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /api/admin/courses [post]
func (c *AdminController) CreateCourse(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary Update course fields
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param body body service.CourseInput true "Fields to change"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id} [put]
func (c *AdminController) UpdateCourse(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.CourseService.UpdateCourse(ctx.Request.Context(), ctx.Param("id"), &req); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SoftDeleteCourse godoc
// @Summary Deactivate a course
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response
// @Router /api/admin/courses/{id} [delete]
func (c *AdminController) SoftDeleteCourse(ctx *gin.Context) {
	if err := c.CourseService.SoftDeleteCourse(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DeleteCoursePermanent godoc
// @Summary Remove a course and its media
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id}/permanent [delete]
func (c *AdminController) DeleteCoursePermanent(ctx *gin.Context) {
	if err := c.CourseService.DeleteCoursePermanent(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadCourseVideo godoc
// @Summary Upload a course or lesson video
// @Tags admin
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId formData string false "Lesson the video belongs to"
// @Param file formData file true "Video file"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/courses/{id}/video [post]
func (c *AdminController) UploadCourseVideo(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if file.Size > c.MaxUploadBytes {
		util.Error(ctx, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	// Spool to disk so ffprobe can read it.
	tmp, err := os.CreateTemp("", "educorp-video-*"+filepath.Ext(file.Filename))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	courseID := ctx.Param("id")
	url, err := c.CourseService.UploadCourseVideo(ctx.Request.Context(), &service.VideoUpload{
		CourseID:    courseID,
		LessonID:    ctx.PostForm("lessonId"),
		LocalPath:   tmpPath,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
	}, uploadLogger(courseID, file.Filename))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// UploadCourseThumbnail godoc
// @Summary Upload a course thumbnail
// @Tags admin
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param file formData file true "Image file"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/courses/{id}/thumbnail [post]
func (c *AdminController) UploadCourseThumbnail(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	contentType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil || !util.IsImage(contentType) {
		util.BadRequest(ctx, "file must be an image")
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	courseID := ctx.Param("id")
	url, err := c.CourseService.UploadCourseThumbnail(ctx.Request.Context(), courseID, file.Filename, src, file.Size,
		contentType, uploadLogger(courseID, file.Filename))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

func uploadLogger(courseID, fileName string) service.ProgressFunc {
	return func(pct int) {
		logger.Log.Debug("Upload progress",
			zap.String("course_id", courseID), zap.String("file", fileName), zap.Int("percent", pct))
	}
}

// ListUsers godoc
// @Summary Every user
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	util.Success(ctx, c.UserService.ListUsers(ctx.Request.Context()))
}

// CreateUser godoc
// @Summary Provision an account for someone else
// @Description The caller's own session is not affected
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body service.CreateUserInput true "Account"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/users [post]
func (c *AdminController) CreateUser(ctx *gin.Context) {
	var req service.CreateUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	uid, err := c.UserService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"id": uid})
}

// GetUser godoc
// @Summary User detail
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [get]
func (c *AdminController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.GetUserByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if user == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, user)
}

// UpdateUser godoc
// @Summary Update profile fields
// @Description email and password are ignored
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body service.UserUpdate true "Fields to change"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [put]
func (c *AdminController) UpdateUser(ctx *gin.Context) {
	var req service.UserUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.UpdateUser(ctx.Request.Context(), ctx.Param("id"), &req); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DeleteUser godoc
// @Summary Delete a user with their enrollments, progress and roles
// @Description The identity account is kept
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} util.Response
// @Router /api/admin/users/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	if err := c.UserService.DeleteUser(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetUserRoles godoc
// @Summary Roles of a user
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} util.Response{data=[]model.Role}
// @Router /api/admin/users/{id}/roles [get]
func (c *AdminController) GetUserRoles(ctx *gin.Context) {
	roles, err := c.UserService.GetUserRoles(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, roles)
}

type adminEnrollRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

// EnrollUser godoc
// @Summary Enroll a user in a course
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body adminEnrollRequest true "Course"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 409 {object} util.Response
// @Router /api/admin/users/{id}/enrollments [post]
func (c *AdminController) EnrollUser(ctx *gin.Context) {
	var req adminEnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), ctx.Param("id"), req.CourseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// UnenrollUser godoc
// @Summary Remove a user from a course
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/enrollments/{courseId} [delete]
func (c *AdminController) UnenrollUser(ctx *gin.Context) {
	if err := c.EnrollmentService.Unenroll(ctx.Request.Context(), ctx.Param("id"), ctx.Param("courseId")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// LearningStyleSummary godoc
// @Summary How many users have a learning style
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.LearningStyleSummary}
// @Router /api/admin/users/learning-style-summary [get]
func (c *AdminController) LearningStyleSummary(ctx *gin.Context) {
	util.Success(ctx, c.UserService.LearningStyleSummary(ctx.Request.Context()))
}
