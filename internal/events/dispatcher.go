package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/k4sper1love/school-service/internal/metrics"
	"github.com/k4sper1love/school-service/internal/utils"
)

// NotificationDispatcher submits notification tasks without blocking the caller.
type NotificationDispatcher interface {
	Enqueue(ctx context.Context, task Task)
}

type DispatcherConfig struct {
	Topic      string
	BufferSize int
	Publishers int
}

// Dispatcher hands tasks to a small pool of goroutines that publish them.
// Enqueue never blocks: when the buffer is full the task is dropped and logged.
type Dispatcher struct {
	publisher message.Publisher
	topic     string
	logger    utils.Logger
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	closed  bool
	pending chan Task
	wg      sync.WaitGroup
}

func NewDispatcher(publisher message.Publisher, cfg DispatcherConfig, logger utils.Logger, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		topic:     cfg.Topic,
		logger:    logger,
		metrics:   m,
		pending:   make(chan Task, max(cfg.BufferSize, 1)),
	}

	for i := 0; i < max(cfg.Publishers, 1); i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Enqueue schedules task for publishing and returns immediately.
// Tasks without recipients are skipped.
func (d *Dispatcher) Enqueue(ctx context.Context, task Task) {
	l := utils.LoggerFromContext(ctx, d.logger).With("task_id", task.ID, "kind", task.Kind)
	if len(task.Recipients) == 0 {
		l.Debug("Notification task has no recipients, skipping")
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		l.Warn("Dispatcher closed, dropping notification task")
		d.metrics.Task(string(task.Kind), "dropped")
		return
	}

	select {
	case d.pending <- task:
		l.Info("Notification task enqueued", "recipients", len(task.Recipients))
		d.metrics.Task(string(task.Kind), "enqueued")
	default:
		l.Warn("Notification buffer full, dropping task")
		d.metrics.Task(string(task.Kind), "dropped")
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for task := range d.pending {
		d.publish(task)
	}
}

func (d *Dispatcher) publish(task Task) {
	payload, err := json.Marshal(task)
	if err != nil {
		d.logger.Error("Failed to marshal notification task", "task_id", task.ID, "error", err)
		d.metrics.Task(string(task.Kind), "failed")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(task.Kind))
	msg.Metadata.Set("task_id", task.ID)

	if err := d.publisher.Publish(d.topic, msg); err != nil {
		d.logger.Error("Failed to publish notification task",
			"task_id", task.ID,
			"kind", task.Kind,
			"error", err)
		d.metrics.Task(string(task.Kind), "failed")
		return
	}
	d.metrics.Task(string(task.Kind), "published")
}

// Close stops accepting tasks and waits for buffered ones to be published.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.pending)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
