package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repositories.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(notification).Error; err != nil {
		return handleDBError(err, "create notification")
	}
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		CreateInBatches(notifications, 500).Error; err != nil {
		return handleDBError(err, "create notifications")
	}
	return nil
}

func (r *notificationRepository) GetForUser(ctx context.Context, id, userID uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error; err != nil {
		return nil, handleDBError(err, "get notification")
	}
	return &notification, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error; err != nil {
		return nil, handleDBError(err, "list notifications")
	}
	return notifications, nil
}

func (r *notificationRepository) Update(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(notification).Error; err != nil {
		return handleDBError(err, "update notification")
	}
	return nil
}

func (r *notificationRepository) DeleteForUser(ctx context.Context, id, userID uint) error {
	return checkAffected(r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Notification{}, id), "delete notification")
}

type requestLogRepository struct {
	db *gorm.DB
}

func NewRequestLogRepository(db *gorm.DB) repositories.RequestLogRepository {
	return &requestLogRepository{db: db}
}

func (r *requestLogRepository) Create(ctx context.Context, entry *models.APIRequestLog) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
		return handleDBError(err, "create request log")
	}
	return nil
}

func (r *requestLogRepository) CountsByEndpoint(ctx context.Context, filter models.AnalyticsFilter) ([]models.EndpointCount, error) {
	var counts []models.EndpointCount

	query := r.db.WithContext(ctx).
		Model(&models.APIRequestLog{}).
		Select("endpoint, COUNT(id) AS request_count")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", strings.ToUpper(filter.Method))
	}

	if err := query.
		Group("endpoint").
		Order("request_count DESC").
		Scan(&counts).Error; err != nil {
		return nil, handleDBError(err, "count requests by endpoint")
	}
	return counts, nil
}
