package services

import (
	"context"
	"fmt"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
)

type notificationService struct {
	base
}

func NewNotificationService(deps Dependencies) NotificationService {
	return &notificationService{base: newBase(deps)}
}

// List returns the actor's notifications, newest first.
func (s *notificationService) List(ctx context.Context, actor policy.Actor) ([]models.Notification, error) {
	s.log(ctx).Info("Fetching notifications", "user_id", actor.UserID)

	var inbox []models.Notification
	err := s.cache.Fetch(ctx, cache.NotificationsKey(actor.UserID), &inbox, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.Notification().ListByUser(ctx, actor.UserID)
		return orEmpty(rows), err
	})
	if err != nil {
		s.log(ctx).Error("Error fetching notifications", "user_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return orEmpty(inbox), nil
}

func (s *notificationService) Create(ctx context.Context, actor policy.Actor, req *models.NotificationCreateRequest) (*models.Notification, error) {
	l := s.log(ctx)
	l.Info("Creating a notification", "user_id", actor.UserID)

	if err := s.validator.ValidateStruct(req); err != nil {
		l.Warn("Invalid notification data", "error", err)
		return nil, err
	}

	n := &models.Notification{UserID: actor.UserID, Message: req.Message}
	if err := s.repo.Notification().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.cache.Invalidate(ctx, cache.NotificationsKey(actor.UserID))
	l.Info("Notification created", "notification_id", n.ID)
	return n, nil
}

func (s *notificationService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.Notification, error) {
	n, err := s.repo.Notification().GetForUser(ctx, id, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "Notification", id)
	}
	if !policy.OwnsNotification(actor, n) {
		return nil, &NotFoundError{Resource: "Notification", ID: id}
	}
	return n, nil
}

// Update is a partial update of the message and read flag.
func (s *notificationService) Update(ctx context.Context, actor policy.Actor, id uint, req *models.NotificationUpdateRequest) (*models.Notification, error) {
	l := s.log(ctx)
	l.Info("Updating notification", "notification_id", id)

	n, err := s.Get(ctx, actor, id)
	if err != nil {
		l.Warn("Notification not found", "notification_id", id)
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if req.Message != nil {
		n.Message = *req.Message
	}
	if req.Read != nil {
		n.Read = *req.Read
	}
	if err := s.repo.Notification().Update(ctx, n); err != nil {
		return nil, notFoundOr(err, "Notification", id)
	}

	s.cache.Invalidate(ctx, cache.NotificationsKey(actor.UserID))
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	l := s.log(ctx)
	l.Info("Deleting notification", "notification_id", id)

	if err := s.repo.Notification().DeleteForUser(ctx, id, actor.UserID); err != nil {
		return notFoundOr(err, "Notification", id)
	}

	s.cache.Invalidate(ctx, cache.NotificationsKey(actor.UserID))
	return nil
}
