package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/k4sper1love/school-service/internal/repositories"
)

// drainer is implemented by dispatchers that buffer work in the background.
type drainer interface {
	Close(ctx context.Context) error
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps        Dependencies
	repoManager repositories.RepositoryManager

	// Service instances
	userService         UserService
	studentService      StudentService
	courseService       CourseService
	enrollmentService   EnrollmentService
	attendanceService   AttendanceService
	gradeService        GradeService
	notificationService NotificationService
	analyticsService    AnalyticsService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager wires every service to the shared dependencies.
// repoManager may be nil when the repository lifecycle is owned elsewhere.
func NewServiceManager(deps Dependencies, repoManager repositories.RepositoryManager) ServiceManager {
	return &serviceManager{deps: deps, repoManager: repoManager}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil {
		return errors.New("service manager requires a repository")
	}

	sm.userService = NewUserService(sm.deps)
	sm.studentService = NewStudentService(sm.deps)
	sm.courseService = NewCourseService(sm.deps)
	sm.enrollmentService = NewEnrollmentService(sm.deps)
	sm.attendanceService = NewAttendanceService(sm.deps)
	sm.gradeService = NewGradeService(sm.deps)
	sm.notificationService = NewNotificationService(sm.deps)
	sm.analyticsService = NewAnalyticsService(sm.deps)

	sm.initialized = true
	if sm.deps.Logger != nil {
		sm.deps.Logger.Info("Service manager initialized successfully")
	}
	return nil
}

func (sm *serviceManager) mustBeReady() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.userService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.studentService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.courseService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.enrollmentService
}

func (sm *serviceManager) Attendance() AttendanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.attendanceService
}

func (sm *serviceManager) Grade() GradeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.gradeService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.notificationService
}

func (sm *serviceManager) Analytics() AnalyticsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.analyticsService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if sm.repoManager != nil {
		if err := sm.repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
		return nil
	}
	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown drains pending notification tasks, then closes the repositories.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	var errs []error
	if d, ok := sm.deps.Dispatcher.(drainer); ok {
		if err := d.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher drain: %w", err))
		}
	}
	if sm.repoManager != nil {
		if err := sm.repoManager.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("repository shutdown: %w", err))
		}
	}

	sm.shutdown = true
	if sm.deps.Logger != nil {
		sm.deps.Logger.Info("Service manager shut down completed")
	}
	return errors.Join(errs...)
}
