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
)

type gradeService struct {
	base
}

func NewGradeService(deps Dependencies) GradeService {
	return &gradeService{base: newBase(deps)}
}

func (s *gradeService) List(ctx context.Context) ([]models.Grade, error) {
	s.log(ctx).Info("Fetching grade list")

	var grades []models.Grade
	err := s.cache.Fetch(ctx, cache.GradeListKey, &grades, func(ctx context.Context) (interface{}, error) {
		all, err := s.repo.Grade().List(ctx)
		return orEmpty(all), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return orEmpty(grades), nil
}

func (s *gradeService) Get(ctx context.Context, id uint) (*models.Grade, error) {
	s.log(ctx).Info("Fetching grade", "grade_id", id)

	var grade models.Grade
	err := s.cache.Fetch(ctx, cache.GradeKey(id), &grade, func(ctx context.Context) (interface{}, error) {
		g, err := s.repo.Grade().GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "Grade", id)
		}
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

func (s *gradeService) Create(ctx context.Context, actor policy.Actor, req *models.GradeRequest) (*models.Grade, error) {
	l := s.log(ctx)

	if err := deny(actor, "grade", "create", policy.CanCreateGrade(actor)); err != nil {
		l.Error("User is not authorized to add grades", "user_id", actor.UserID)
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	l.Info("Adding new grade", "student_id", req.Student, "course_id", req.Course)

	student, course, err := s.loadRelations(ctx, req.Student, req.Course)
	if err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID: student.ID,
		CourseID:  course.ID,
		Grade:     req.Grade,
		Comment:   req.Comment,
		Date:      models.Today(),
		TeacherID: actor.UserID,
	}
	if err := s.repo.Grade().Create(ctx, grade); err != nil {
		return nil, fmt.Errorf("failed to create grade: %w", err)
	}

	s.cache.Invalidate(ctx, cache.GradeListKey, cache.GradeKey(grade.ID))
	s.notify(ctx, events.GradeTask(recipientOf(student), course.Name, grade.Grade))

	l.Info("Grade added", "grade_id", grade.ID, "grade", grade.Grade, "student_email", student.User.Email)
	return grade, nil
}

func (s *gradeService) Update(ctx context.Context, actor policy.Actor, id uint, req *models.GradeRequest) (*models.Grade, error) {
	l := s.log(ctx)

	if err := deny(actor, "grade", "update", policy.CanUpdateGrade(actor)); err != nil {
		l.Error("User is not authorized to update grades", "user_id", actor.UserID)
		return nil, err
	}

	l.Info("Updating grade", "grade_id", id)

	grade, err := s.repo.Grade().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Grade", id)
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	student, course, err := s.loadRelations(ctx, req.Student, req.Course)
	if err != nil {
		return nil, err
	}

	grade.StudentID, grade.Student = student.ID, student
	grade.CourseID, grade.Course = course.ID, course
	grade.Grade = req.Grade
	grade.Comment = req.Comment

	if err := s.repo.Grade().Update(ctx, grade); err != nil {
		return nil, notFoundOr(err, "Grade", id)
	}

	s.cache.Invalidate(ctx, cache.GradeListKey, cache.GradeKey(id))
	l.Info("Grade updated", "grade_id", id)
	return grade, nil
}

func (s *gradeService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	l := s.log(ctx)

	if err := deny(actor, "grade", "delete", policy.CanDeleteGrade(actor)); err != nil {
		l.Error("User is not authorized to delete grades", "user_id", actor.UserID)
		return err
	}
	if err := s.repo.Grade().Delete(ctx, id); err != nil {
		return notFoundOr(err, "Grade", id)
	}

	s.cache.Invalidate(ctx, cache.GradeListKey, cache.GradeKey(id))
	l.Info("Grade deleted", "grade_id", id)
	return nil
}

func (s *gradeService) loadRelations(ctx context.Context, studentID, courseID uint) (*models.Student, *models.Course, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, missingRelation("student", studentID)
		}
		return nil, nil, fmt.Errorf("failed to load student: %w", err)
	}
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, missingRelation("course", courseID)
		}
		return nil, nil, fmt.Errorf("failed to load course: %w", err)
	}
	return student, course, nil
}
