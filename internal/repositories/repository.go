package repositories

import "context"

// Repository aggregates every repository of the service.
type Repository interface {
	User() UserRepository
	Student() StudentRepository
	Course() CourseRepository
	Enrollment() EnrollmentRepository
	Attendance() AttendanceRepository
	Grade() GradeRepository
	Notification() NotificationRepository
	RequestLog() RequestLogRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
