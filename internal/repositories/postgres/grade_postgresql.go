package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
)

type gradeRepository struct {
	db *gorm.DB
}

func NewGradeRepository(db *gorm.DB) repositories.GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(grade).Error; err != nil {
		return handleDBError(err, "create grade")
	}
	return nil
}

func (r *gradeRepository) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Course").
		First(&grade, id).Error; err != nil {
		return nil, handleDBError(err, "get grade by id")
	}
	return &grade, nil
}

func (r *gradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&grades).Error; err != nil {
		return nil, handleDBError(err, "list grades")
	}
	return grades, nil
}

func (r *gradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(grade).Error; err != nil {
		return handleDBError(err, "update grade")
	}
	return nil
}

func (r *gradeRepository) Delete(ctx context.Context, id uint) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.Grade{}, id), "delete grade")
}
