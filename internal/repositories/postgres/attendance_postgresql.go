package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
)

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) repositories.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) preload(query *gorm.DB) *gorm.DB {
	return query.Preload("Student.User").Preload("Course")
}

func (r *attendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(attendance).Error; err != nil {
		return handleDBError(err, "create attendance")
	}
	return nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := r.preload(r.db.WithContext(ctx)).First(&attendance, id).Error; err != nil {
		return nil, handleDBError(err, "get attendance by id")
	}
	return &attendance, nil
}

func (r *attendanceRepository) List(ctx context.Context, filters repositories.AttendanceFilters) ([]models.Attendance, error) {
	var records []models.Attendance

	query := r.preload(r.db.WithContext(ctx).Model(&models.Attendance{}))
	if filters.InstructorID != nil {
		query = query.
			Joins("JOIN courses ON courses.id = attendance.course_id").
			Where("courses.instructor_id = ?", *filters.InstructorID)
	}
	if filters.StudentUserID != nil {
		query = query.
			Joins("JOIN students ON students.id = attendance.student_id").
			Where("students.user_id = ?", *filters.StudentUserID)
	}

	if err := query.Order("attendance.id ASC").Find(&records).Error; err != nil {
		return nil, handleDBError(err, "list attendance")
	}
	return records, nil
}

func (r *attendanceRepository) Update(ctx context.Context, attendance *models.Attendance) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(attendance).Error; err != nil {
		return handleDBError(err, "update attendance")
	}
	return nil
}

func (r *attendanceRepository) Delete(ctx context.Context, id uint) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.Attendance{}, id), "delete attendance")
}
