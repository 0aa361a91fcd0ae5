package services

import (
	"context"
	"io"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
)

// ===== SERVICE INTERFACES =====

type UserService interface {
	// Register is the public signup.
	Register(ctx context.Context, req *models.UserCreateRequest) (*models.User, error)
	// Authenticate checks local credentials.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	// Provision returns the user with email, creating it on first sight.
	Provision(ctx context.Context, email, username string, role models.UserRole) (*models.User, error)

	List(ctx context.Context, actor policy.Actor) ([]models.User, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*models.User, error)
	Update(ctx context.Context, actor policy.Actor, id uint, req *models.UserUpdateRequest) (*models.User, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type StudentService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Student, error)
	Create(ctx context.Context, actor policy.Actor, req *models.StudentCreateRequest) (*models.Student, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*models.Student, error)
	Update(ctx context.Context, actor policy.Actor, id uint, req *models.StudentUpdateRequest) (*models.Student, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type CourseService interface {
	// List returns active courses only.
	List(ctx context.Context) ([]models.Course, error)
	Get(ctx context.Context, id uint) (*models.Course, error)
	Create(ctx context.Context, actor policy.Actor, req *models.CourseRequest) (*models.Course, error)
	Update(ctx context.Context, actor policy.Actor, id uint, req *models.CourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type EnrollmentService interface {
	Enroll(ctx context.Context, actor policy.Actor, req *models.EnrollmentRequest) (*models.Enrollment, error)
	// List returns the actor's own enrollments; non-students get an empty list.
	List(ctx context.Context, actor policy.Actor) ([]models.Enrollment, error)
}

type AttendanceService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Attendance, error)
	Create(ctx context.Context, actor policy.Actor, req *models.AttendanceCreateRequest) (*models.Attendance, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*models.Attendance, error)
	Update(ctx context.Context, actor policy.Actor, id uint, req *models.AttendanceUpdateRequest) (*models.Attendance, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type GradeService interface {
	List(ctx context.Context) ([]models.Grade, error)
	Get(ctx context.Context, id uint) (*models.Grade, error)
	Create(ctx context.Context, actor policy.Actor, req *models.GradeRequest) (*models.Grade, error)
	Update(ctx context.Context, actor policy.Actor, id uint, req *models.GradeRequest) (*models.Grade, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type NotificationService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Notification, error)
	Create(ctx context.Context, actor policy.Actor, req *models.NotificationCreateRequest) (*models.Notification, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*models.Notification, error)
	Update(ctx context.Context, actor policy.Actor, id uint, req *models.NotificationUpdateRequest) (*models.Notification, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type AnalyticsService interface {
	Record(ctx context.Context, entry *models.APIRequestLog) error
	CountsByEndpoint(ctx context.Context, filter models.AnalyticsFilter) ([]models.EndpointCount, error)
	// Export writes the aggregation as an XLSX workbook.
	Export(ctx context.Context, filter models.AnalyticsFilter, w io.Writer) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	User() UserService
	Student() StudentService
	Course() CourseService
	Enrollment() EnrollmentService
	Attendance() AttendanceService
	Grade() GradeService
	Notification() NotificationService
	Analytics() AnalyticsService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
