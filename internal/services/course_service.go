package services

import (
	"context"
	"fmt"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/repositories"
)

type courseService struct {
	base
}

func NewCourseService(deps Dependencies) CourseService {
	return &courseService{base: newBase(deps)}
}

func (s *courseService) List(ctx context.Context) ([]models.Course, error) {
	s.log(ctx).Info("Fetching course list")

	var courses []models.Course
	err := s.cache.Fetch(ctx, cache.CourseListKey, &courses, func(ctx context.Context) (interface{}, error) {
		active, err := s.repo.Course().List(ctx, repositories.CourseFilters{ActiveOnly: true})
		return orEmpty(active), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return orEmpty(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (*models.Course, error) {
	s.log(ctx).Info("Fetching course", "course_id", id)

	var course models.Course
	err := s.cache.Fetch(ctx, cache.CourseKey(id), &course, func(ctx context.Context) (interface{}, error) {
		c, err := s.repo.Course().GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "Course", id)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *courseService) Create(ctx context.Context, actor policy.Actor, req *models.CourseRequest) (*models.Course, error) {
	l := s.log(ctx)

	if err := deny(actor, "course", "create", policy.CanCreateCourse(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	l.Info("Teacher is creating a course", "instructor_id", actor.UserID, "name", req.Name)

	course := &models.Course{
		Name:         req.Name,
		Description:  req.Description,
		InstructorID: actor.UserID,
		IsActive:     true,
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.invalidateCourse(ctx, course.ID)

	students, err := s.repo.Student().List(ctx, repositories.StudentFilters{})
	if err != nil {
		// the course is stored; only the announcement is lost
		l.Error("Failed to load students for course announcement", "course_id", course.ID, "error", err)
		return course, nil
	}
	recipients := make([]events.Recipient, 0, len(students))
	for i := range students {
		recipients = append(recipients, recipientOf(&students[i]))
	}
	s.notify(ctx, events.NewCourseTask(recipients, course.Name))

	l.Info("Course created", "course_id", course.ID, "recipients", len(recipients))
	return course, nil
}

func (s *courseService) Update(ctx context.Context, actor policy.Actor, id uint, req *models.CourseRequest) (*models.Course, error) {
	l := s.log(ctx)
	l.Info("Updating course", "course_id", id, "user_id", actor.UserID)

	if err := deny(actor, "course", "update", policy.MayUpdateCourses(actor)); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Course", id)
	}
	if err := deny(actor, "course", "update", policy.CanUpdateCourse(actor, course)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	course.Name = req.Name
	course.Description = req.Description
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, notFoundOr(err, "Course", id)
	}

	s.invalidateCourse(ctx, id)
	l.Info("Course updated", "course_id", id)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	l := s.log(ctx)
	l.Info("Deleting course", "course_id", id, "user_id", actor.UserID)

	if err := deny(actor, "course", "delete", policy.MayDeleteCourses(actor)); err != nil {
		return err
	}

	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Course", id)
	}
	if err := deny(actor, "course", "delete", policy.CanDeleteCourse(actor, course)); err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		return notFoundOr(err, "Course", id)
	}

	s.invalidateCourse(ctx, id)
	s.cache.InvalidatePattern(ctx, cache.GradeAll)
	l.Info("Course deleted", "course_id", id)
	return nil
}

// invalidateCourse drops the course views and attendance views embedding it.
func (s *courseService) invalidateCourse(ctx context.Context, id uint) {
	s.cache.Invalidate(ctx, cache.CourseKey(id), cache.CourseListKey)
	s.cache.InvalidatePattern(ctx, cache.AttendanceAll)
}
