package app

import (
	"educorp_backend/docs"
	"educorp_backend/internal/middleware"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.auth))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, s)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/logout", c.auth.Logout)
	group.GET("/profile", c.auth.GetProfile)
	group.GET("/session/guard", c.auth.GuardDecision)

	courses := group.Group("/courses")
	{
		courses.GET("", c.course.ListCourses)
		courses.GET("/:id", c.course.GetCourse)
		courses.POST("/:id/enroll", c.course.Enroll)
		courses.DELETE("/:id/enroll", c.course.Unenroll)
		courses.GET("/:id/enrollment", c.course.GetEnrollment)
		courses.GET("/:id/progress", c.course.GetProgress)
		courses.POST("/:id/lessons/:lessonId/complete", c.course.CompleteLesson)
	}

	me := group.Group("/me")
	{
		me.GET("/progress", c.course.MyProgress)
		me.GET("/enrollments", c.course.MyEnrollments)
		me.GET("/courses/:state", c.course.MyCourses)
		me.GET("/statistics", c.course.MyStatistics)
	}

	group.GET("/learning-styles", c.assessment.ListLearningStyles)
	group.GET("/learning-styles/:id", c.assessment.GetLearningStyle)

	assessments := group.Group("/assessments")
	{
		assessments.GET("/learning-style", c.assessment.GetLearningStyleTest)
		assessments.POST("/learning-style/submit", c.assessment.SubmitLearningStyleTest)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, s *services) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(s.auth), middleware.RoleMiddleware(s.auth, util.RoleAdmin))
	{
		courses := admin.Group("/courses")
		{
			courses.GET("", c.admin.ListCourses)
			courses.POST("", c.admin.CreateCourse)
			courses.PUT("/:id", c.admin.UpdateCourse)
			courses.DELETE("/:id", c.admin.SoftDeleteCourse)
			courses.DELETE("/:id/permanent", c.admin.DeleteCoursePermanent)
			courses.POST("/:id/video", c.admin.UploadCourseVideo)
			courses.POST("/:id/thumbnail", c.admin.UploadCourseThumbnail)
		}

		users := admin.Group("/users")
		{
			users.GET("", c.admin.ListUsers)
			users.POST("", c.admin.CreateUser)
			users.GET("/learning-style-summary", c.admin.LearningStyleSummary)
			users.GET("/:id", c.admin.GetUser)
			users.PUT("/:id", c.admin.UpdateUser)
			users.DELETE("/:id", c.admin.DeleteUser)
			users.GET("/:id/roles", c.admin.GetUserRoles)
			users.POST("/:id/enrollments", c.admin.EnrollUser)
			users.DELETE("/:id/enrollments/:courseId", c.admin.UnenrollUser)
		}
	}
}
