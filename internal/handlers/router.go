package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/auth"
	"github.com/k4sper1love/school-service/internal/metrics"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
)

const healthTimeout = 3 * time.Second

type HandlerManager struct {
	userHandler         *UserHandler
	studentHandler      *StudentHandler
	courseHandler       *CourseHandler
	enrollmentHandler   *EnrollmentHandler
	attendanceHandler   *AttendanceHandler
	gradeHandler        *GradeHandler
	notificationHandler *NotificationHandler
	analyticsHandler    *AnalyticsHandler

	serviceManager services.ServiceManager
	authenticator  auth.Authenticator
	metrics        *metrics.Metrics
	logger         utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authenticator auth.Authenticator,
	tokens TokenIssuer,
	m *metrics.Metrics,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		userHandler:         NewUserHandler(serviceManager.User(), tokens, logger),
		studentHandler:      NewStudentHandler(serviceManager.Student(), logger),
		courseHandler:       NewCourseHandler(serviceManager.Course(), logger),
		enrollmentHandler:   NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		attendanceHandler:   NewAttendanceHandler(serviceManager.Attendance(), logger),
		gradeHandler:        NewGradeHandler(serviceManager.Grade(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		analyticsHandler:    NewAnalyticsHandler(serviceManager.Analytics(), logger),
		serviceManager:      serviceManager,
		authenticator:       authenticator,
		metrics:             m,
		logger:              logger,
	}
}

// NewRouter builds a gin engine with the full middleware chain and routes.
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, hm.logger, hm.metrics, hm.serviceManager.Analytics())
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public routes
	api.POST("/users/", hm.userHandler.Register)
	api.POST("/auth/token/", hm.userHandler.ObtainToken)

	authed := api.Group("")
	authed.Use(AuthMiddleware(hm.authenticator, hm.logger))
	{
		users := authed.Group("/users")
		{
			users.GET("/", hm.userHandler.ListUsers)
			users.GET("/me/", hm.userHandler.Me)
			users.GET("/:id/", hm.userHandler.GetUser)
			users.PUT("/:id/", hm.userHandler.UpdateUser)
			users.DELETE("/:id/", hm.userHandler.DeleteUser)
		}

		students := authed.Group("/students")
		{
			students.GET("/", hm.studentHandler.ListStudents)
			students.POST("/", hm.studentHandler.CreateStudent)
			students.GET("/:id/", hm.studentHandler.GetStudent)
			students.PUT("/:id/", hm.studentHandler.UpdateStudent)
			students.DELETE("/:id/", hm.studentHandler.DeleteStudent)
		}

		courses := authed.Group("/courses")
		{
			courses.GET("/", hm.courseHandler.ListCourses)
			courses.POST("/", hm.courseHandler.CreateCourse)
			courses.GET("/:id/", hm.courseHandler.GetCourse)
			courses.PUT("/:id/", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id/", hm.courseHandler.DeleteCourse)
		}

		enrollments := authed.Group("/enrollments")
		{
			enrollments.GET("/", hm.enrollmentHandler.ListEnrollments)
			enrollments.POST("/", hm.enrollmentHandler.Enroll)
		}

		attendance := authed.Group("/attendance")
		{
			attendance.GET("/", hm.attendanceHandler.ListAttendance)
			attendance.POST("/", hm.attendanceHandler.CreateAttendance)
			attendance.GET("/:id/", hm.attendanceHandler.GetAttendance)
			attendance.PUT("/:id/", hm.attendanceHandler.UpdateAttendance)
			attendance.DELETE("/:id/", hm.attendanceHandler.DeleteAttendance)
		}

		grades := authed.Group("/grades")
		{
			grades.GET("/", hm.gradeHandler.ListGrades)
			grades.POST("/", hm.gradeHandler.CreateGrade)
			grades.GET("/:id/", hm.gradeHandler.GetGrade)
			grades.PUT("/:id/", hm.gradeHandler.UpdateGrade)
			grades.DELETE("/:id/", hm.gradeHandler.DeleteGrade)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("/", hm.notificationHandler.ListNotifications)
			notifications.POST("/", hm.notificationHandler.CreateNotification)
			notifications.GET("/:id/", hm.notificationHandler.GetNotification)
			notifications.PUT("/:id/", hm.notificationHandler.UpdateNotification)
			notifications.DELETE("/:id/", hm.notificationHandler.DeleteNotification)
		}

		analytics := authed.Group("/analytics")
		{
			analytics.GET("/", hm.analyticsHandler.GetRequestCounts)
			analytics.GET("/export/", hm.analyticsHandler.ExportRequestCounts)
		}
	}

	router.GET("/health", hm.health)
	if hm.metrics != nil {
		router.GET("/metrics", gin.WrapH(hm.metrics.Handler()))
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.LoggerFromContext(ctx, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "school-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "school-service",
	})
}
