package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/repositories"
	"github.com/k4sper1love/school-service/internal/validator"
)

const msgDuplicateEnrollment = "The fields student, course must make a unique set."

type enrollmentService struct {
	base
}

func NewEnrollmentService(deps Dependencies) EnrollmentService {
	return &enrollmentService{base: newBase(deps)}
}

func (s *enrollmentService) Enroll(ctx context.Context, actor policy.Actor, req *models.EnrollmentRequest) (*models.Enrollment, error) {
	l := s.log(ctx)

	if err := deny(actor, "enrollment", "create", policy.CanEnroll(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	l.Info("Student enrolling in a course", "user_id", actor.UserID, "course_id", req.Course)

	student, err := s.resolveStudent(ctx, actor, req.Student)
	if err != nil {
		return nil, err
	}
	if err := deny(actor, "enrollment", "create", policy.CanEnrollStudent(actor, student)); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, req.Course)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, missingRelation("course", req.Course)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if !course.IsActive {
		return nil, validator.Field("course", "Course is not active.")
	}

	exists, err := s.repo.Enrollment().Exists(ctx, student.ID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if exists {
		return nil, validator.Field("non_field_errors", msgDuplicateEnrollment)
	}

	enrollment := &models.Enrollment{StudentID: student.ID, CourseID: course.ID}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validator.Field("non_field_errors", msgDuplicateEnrollment)
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	l.Info("Student enrolled", "student_id", student.ID, "course", course.Name)
	return enrollment, nil
}

// resolveStudent loads the requested profile, defaulting to the actor's own.
func (s *enrollmentService) resolveStudent(ctx context.Context, actor policy.Actor, id uint) (*models.Student, error) {
	var (
		student *models.Student
		err     error
	)
	if id == 0 {
		student, err = s.repo.Student().GetByUserID(ctx, actor.UserID)
	} else {
		student, err = s.repo.Student().GetByID(ctx, id)
	}
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if id == 0 {
		return nil, validator.Field("student", "No student profile exists for this user.")
	}
	return nil, missingRelation("student", id)
}

func (s *enrollmentService) List(ctx context.Context, actor policy.Actor) ([]models.Enrollment, error) {
	if !actor.Is(models.RoleStudent) {
		return []models.Enrollment{}, nil
	}
	student, err := s.repo.Student().GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.Enrollment{}, nil
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	enrollments, err := s.repo.Enrollment().ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return orEmpty(enrollments), nil
}
