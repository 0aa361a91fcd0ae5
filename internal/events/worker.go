package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/mail"
	"github.com/k4sper1love/school-service/internal/metrics"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
	"github.com/k4sper1love/school-service/internal/utils"
)

const workerHandlerName = "notification_worker"

type WorkerConfig struct {
	Topic string
	From  string
}

// Worker consumes notification tasks: it stores one in-app notification per
// recipient user and mails each recipient. Every message is acked; failures
// are logged per recipient and never retried here.
type Worker struct {
	router        *message.Router
	mailer        mail.Mailer
	notifications repositories.NotificationRepository
	cache         *cache.Layer
	from          string
	logger        utils.Logger
	metrics       *metrics.Metrics
}

func NewWorker(
	cfg WorkerConfig,
	subscriber message.Subscriber,
	mailer mail.Mailer,
	notifications repositories.NotificationRepository,
	cacheLayer *cache.Layer,
	logger utils.Logger,
	m *metrics.Metrics,
) (*Worker, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger.Slog()))
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	w := &Worker{
		router:        router,
		mailer:        mailer,
		notifications: notifications,
		cache:         cacheLayer,
		from:          cfg.From,
		logger:        logger.With("component", workerHandlerName),
		metrics:       m,
	}
	router.AddNoPublisherHandler(workerHandlerName, cfg.Topic, subscriber, w.handle)

	return w, nil
}

// Run blocks until ctx is cancelled or Close is called.
func (w *Worker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

// Running is closed once the worker subscribed and is processing.
func (w *Worker) Running() chan struct{} {
	return w.router.Running()
}

func (w *Worker) Close() error {
	return w.router.Close()
}

func (w *Worker) handle(msg *message.Message) error {
	var task Task
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		w.logger.Error("Discarding malformed notification task", "message_uuid", msg.UUID, "error", err)
		w.metrics.Task("unknown", "malformed")
		return nil
	}

	w.Process(msg.Context(), task)
	return nil
}

// Process delivers a task to all its recipients.
func (w *Worker) Process(ctx context.Context, task Task) {
	l := w.logger.With("task_id", task.ID, "kind", task.Kind)

	inbox := make([]*models.Notification, 0, len(task.Recipients))
	for _, r := range task.Recipients {
		if r.UserID == 0 {
			continue
		}
		inbox = append(inbox, &models.Notification{
			UserID:  r.UserID,
			Message: task.Body,
		})
	}

	if err := w.notifications.CreateBatch(ctx, inbox); err != nil {
		l.Error("Failed to store in-app notifications", "count", len(inbox), "error", err)
		w.metrics.Delivery("inbox", "failed")
	} else {
		keys := make([]string, 0, len(inbox))
		for _, n := range inbox {
			keys = append(keys, cache.NotificationsKey(n.UserID))
			w.metrics.Delivery("inbox", "stored")
		}
		if len(keys) > 0 {
			w.cache.Invalidate(ctx, keys...)
		}
	}

	sent := 0
	for _, r := range task.Recipients {
		if r.Email == "" {
			continue
		}
		err := w.mailer.Send(ctx, mail.Message{
			From:    w.from,
			To:      r.Email,
			Subject: task.Subject,
			Body:    task.Body,
		})
		if err != nil {
			l.Error("Error sending notification", "to", r.Email, "error", err)
			w.metrics.Delivery("mail", "failed")
			continue
		}
		sent++
		w.metrics.Delivery("mail", "sent")
	}

	l.Info("Notification task processed", "recipients", len(task.Recipients), "mails_sent", sent)
}
