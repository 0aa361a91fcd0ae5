package repositories

import (
	"context"
	"errors"

	"github.com/k4sper1love/school-service/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role   *models.UserRole
	Limit  int
	Offset int
}

type StudentFilters struct {
	UserRole *models.UserRole
	Limit    int
	Offset   int
}

type CourseFilters struct {
	ActiveOnly   bool
	InstructorID *uint
}

// AttendanceFilters restricts rows by course instructor and/or by the student's user.
type AttendanceFilters struct {
	InstructorID  *uint
	StudentUserID *uint
}

// ===== REPOSITORIES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Student, error)
	List(ctx context.Context, filters StudentFilters) ([]models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	List(ctx context.Context, filters CourseFilters) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Exists(ctx context.Context, studentID, courseID uint) (bool, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
}

type AttendanceRepository interface {
	Create(ctx context.Context, attendance *models.Attendance) error
	GetByID(ctx context.Context, id uint) (*models.Attendance, error)
	List(ctx context.Context, filters AttendanceFilters) ([]models.Attendance, error)
	Update(ctx context.Context, attendance *models.Attendance) error
	Delete(ctx context.Context, id uint) error
}

type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	GetByID(ctx context.Context, id uint) (*models.Grade, error)
	List(ctx context.Context) ([]models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id uint) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	// GetForUser looks a notification up by id and owner.
	GetForUser(ctx context.Context, id, userID uint) (*models.Notification, error)
	// ListByUser returns the owner's notifications, newest first.
	ListByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	Update(ctx context.Context, notification *models.Notification) error
	DeleteForUser(ctx context.Context, id, userID uint) error
}

type RequestLogRepository interface {
	Create(ctx context.Context, entry *models.APIRequestLog) error
	// CountsByEndpoint groups logs by endpoint ordered by count descending.
	// Ties come back in store order.
	CountsByEndpoint(ctx context.Context, filter models.AnalyticsFilter) ([]models.EndpointCount, error)
}
