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

type attendanceService struct {
	base
}

func NewAttendanceService(deps Dependencies) AttendanceService {
	return &attendanceService{base: newBase(deps)}
}

// List is scoped per actor and cached per user.
func (s *attendanceService) List(ctx context.Context, actor policy.Actor) ([]models.Attendance, error) {
	s.log(ctx).Info("Fetching attendance list", "user_id", actor.UserID)

	scope, d := policy.AttendanceScope(actor)
	if err := deny(actor, "attendance", "list", d); err != nil {
		return nil, err
	}

	var filters repositories.AttendanceFilters
	switch scope {
	case policy.ScopeByInstructor:
		filters.InstructorID = &actor.UserID
	case policy.ScopeByStudentUser:
		filters.StudentUserID = &actor.UserID
	}

	var records []models.Attendance
	err := s.cache.Fetch(ctx, cache.AttendanceListKey(actor.UserID), &records, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.Attendance().List(ctx, filters)
		return orEmpty(rows), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return orEmpty(records), nil
}

func (s *attendanceService) Create(ctx context.Context, actor policy.Actor, req *models.AttendanceCreateRequest) (*models.Attendance, error) {
	l := s.log(ctx)

	if err := deny(actor, "attendance", "create", policy.CanCreateAttendance(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	l.Info("Adding new attendance record", "teacher_id", actor.UserID, "student_id", req.Student, "course_id", req.Course)

	if err := s.checkRelations(ctx, req.Student, req.Course); err != nil {
		return nil, err
	}

	record := &models.Attendance{
		StudentID: req.Student,
		CourseID:  req.Course,
		Date:      models.Today(),
		Status:    *req.Status,
	}
	if err := s.repo.Attendance().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}

	created, err := s.repo.Attendance().GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attendance %d: %w", record.ID, err)
	}

	s.invalidate(ctx)

	if !created.Status {
		s.notify(ctx, events.AbsenceTask(recipientOf(&created.Student), created.Course.Name))
		l.Info("Absence notification scheduled", "attendance_id", created.ID, "student_id", created.StudentID)
	}
	return created, nil
}

func (s *attendanceService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.Attendance, error) {
	s.log(ctx).Info("Fetching attendance record", "attendance_id", id)

	var record models.Attendance
	err := s.cache.Fetch(ctx, cache.AttendanceKey(id), &record, func(ctx context.Context) (interface{}, error) {
		a, err := s.repo.Attendance().GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "Attendance", id)
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	if err := deny(actor, "attendance", "read", policy.CanViewAttendance(actor, &record)); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *attendanceService) Update(ctx context.Context, actor policy.Actor, id uint, req *models.AttendanceUpdateRequest) (*models.Attendance, error) {
	l := s.log(ctx)
	l.Info("Updating attendance record", "attendance_id", id)

	if err := deny(actor, "attendance", "update", policy.MayUpdateAttendance(actor)); err != nil {
		return nil, err
	}

	record, err := s.repo.Attendance().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Attendance", id)
	}
	if err := deny(actor, "attendance", "update", policy.CanUpdateAttendance(actor, record)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	record.Status = *req.Status
	if err := s.repo.Attendance().Update(ctx, record); err != nil {
		return nil, notFoundOr(err, "Attendance", id)
	}

	s.invalidate(ctx)
	l.Info("Attendance record updated", "attendance_id", id, "status", record.Status)
	return record, nil
}

func (s *attendanceService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	l := s.log(ctx)
	l.Info("Deleting attendance record", "attendance_id", id)

	if err := deny(actor, "attendance", "delete", policy.MayDeleteAttendance(actor)); err != nil {
		return err
	}

	record, err := s.repo.Attendance().GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Attendance", id)
	}
	if err := deny(actor, "attendance", "delete", policy.CanDeleteAttendance(actor, record)); err != nil {
		return err
	}
	if err := s.repo.Attendance().Delete(ctx, id); err != nil {
		return notFoundOr(err, "Attendance", id)
	}

	s.invalidate(ctx)
	return nil
}

func (s *attendanceService) checkRelations(ctx context.Context, studentID, courseID uint) error {
	if _, err := s.repo.Student().GetByID(ctx, studentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return missingRelation("student", studentID)
		}
		return fmt.Errorf("failed to load student: %w", err)
	}
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return missingRelation("course", courseID)
		}
		return fmt.Errorf("failed to load course: %w", err)
	}
	return nil
}

// invalidate drops the per-user lists of every instructor and student plus
// the detail entries, since one row shows up in several of them.
func (s *attendanceService) invalidate(ctx context.Context) {
	s.cache.InvalidatePattern(ctx, cache.AttendanceAll)
}
