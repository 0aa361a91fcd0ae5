package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/repositories"
	"github.com/k4sper1love/school-service/internal/validator"
)

type studentService struct {
	base
}

func NewStudentService(deps Dependencies) StudentService {
	return &studentService{base: newBase(deps)}
}

func (s *studentService) List(ctx context.Context, actor policy.Actor) ([]models.Student, error) {
	l := s.log(ctx)
	l.Info("Fetching student list")

	var filters repositories.StudentFilters
	switch policy.StudentListScope(actor) {
	case policy.ScopeAll:
		if policy.UsesSharedListCache(actor) {
			var students []models.Student
			err := s.cache.Fetch(ctx, cache.StudentListKey, &students, func(ctx context.Context) (interface{}, error) {
				all, err := s.repo.Student().List(ctx, repositories.StudentFilters{})
				return orEmpty(all), err
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list students: %w", err)
			}
			return orEmpty(students), nil
		}
	case policy.ScopeStudentsOnly:
		role := models.RoleStudent
		filters.UserRole = &role
	default:
		return []models.Student{}, nil
	}

	students, err := s.repo.Student().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return orEmpty(students), nil
}

func (s *studentService) Create(ctx context.Context, actor policy.Actor, req *models.StudentCreateRequest) (*models.Student, error) {
	l := s.log(ctx)
	l.Info("Creating student profile", "user_id", req.User)

	if err := deny(actor, "student", "create", policy.CanManageStudents(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, req.User)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, missingRelation("user", req.User)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Role != models.RoleStudent {
		return nil, validator.Field("user", "User must have the student role.")
	}

	student := &models.Student{
		UserID:           user.ID,
		RegistrationDate: models.Today(),
	}
	if req.DOB != nil {
		dob, _ := models.ParseDate(*req.DOB)
		student.DOB = &dob
	}

	if err := s.repo.Student().Create(ctx, student); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validator.Field("user", "student with this user already exists.")
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	student.User = *user

	s.cache.Invalidate(ctx, cache.StudentListKey, cache.StudentKey(student.ID))
	l.Info("Student profile created", "student_id", student.ID)
	return student, nil
}

func (s *studentService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.Student, error) {
	s.log(ctx).Info("Fetching student", "student_id", id)

	if err := deny(actor, "student", "read", policy.CanManageStudents(actor)); err != nil {
		return nil, err
	}

	var student models.Student
	err := s.cache.Fetch(ctx, cache.StudentKey(id), &student, func(ctx context.Context) (interface{}, error) {
		st, err := s.repo.Student().GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "Student", id)
		}
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *studentService) Update(ctx context.Context, actor policy.Actor, id uint, req *models.StudentUpdateRequest) (*models.Student, error) {
	l := s.log(ctx)
	l.Info("Updating student", "student_id", id)

	if err := deny(actor, "student", "update", policy.CanManageStudents(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Student", id)
	}

	student.DOB = nil
	if req.DOB != nil {
		dob, _ := models.ParseDate(*req.DOB)
		student.DOB = &dob
	}

	if err := s.repo.Student().Update(ctx, student); err != nil {
		return nil, notFoundOr(err, "Student", id)
	}

	s.invalidateStudent(ctx, id)
	s.notify(ctx, events.ProfileUpdatedTask(recipientOf(student)))

	l.Info("Student updated", "student_id", id)
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	l := s.log(ctx)
	l.Info("Deleting student", "student_id", id)

	if err := deny(actor, "student", "delete", policy.CanDeleteStudent(actor)); err != nil {
		return err
	}
	if err := s.repo.Student().Delete(ctx, id); err != nil {
		return notFoundOr(err, "Student", id)
	}

	s.invalidateStudent(ctx, id)
	s.cache.InvalidatePattern(ctx, cache.GradeAll)

	l.Info("Student deleted", "student_id", id)
	return nil
}

// invalidateStudent drops the profile and every attendance view embedding it.
func (s *studentService) invalidateStudent(ctx context.Context, id uint) {
	s.cache.Invalidate(ctx, cache.StudentKey(id), cache.StudentListKey)
	s.cache.InvalidatePattern(ctx, cache.AttendanceAll)
}
