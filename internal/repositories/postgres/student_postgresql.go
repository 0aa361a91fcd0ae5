package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
)

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) repositories.StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(student).Error; err != nil {
		return handleDBError(err, "create student")
	}
	return nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("User").First(&student, id).Error; err != nil {
		return nil, handleDBError(err, "get student by id")
	}
	return &student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&student).Error; err != nil {
		return nil, handleDBError(err, "get student by user id")
	}
	return &student, nil
}

func (r *studentRepository) List(ctx context.Context, filters repositories.StudentFilters) ([]models.Student, error) {
	var students []models.Student

	query := r.db.WithContext(ctx).Model(&models.Student{}).Preload("User")
	if filters.UserRole != nil {
		query = query.
			Joins("JOIN users ON users.id = students.user_id").
			Where("users.role = ?", *filters.UserRole)
	}
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Order("students.id ASC").Find(&students).Error; err != nil {
		return nil, handleDBError(err, "list students")
	}
	return students, nil
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(student).Error; err != nil {
		return handleDBError(err, "update student")
	}
	return nil
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.Student{}, id), "delete student")
}
