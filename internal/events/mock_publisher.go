package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// MockEventPublisher records published messages in memory.
type MockEventPublisher struct {
	mu       sync.Mutex
	messages []*message.Message
	topics   []string
	// Err is returned from Publish when set.
	Err error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (p *MockEventPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	for _, m := range messages {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, m)
	}
	return nil
}

func (p *MockEventPublisher) Close() error { return nil }

// GetPublishedTasks decodes every published payload.
func (p *MockEventPublisher) GetPublishedTasks() []Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	tasks := make([]Task, 0, len(p.messages))
	for _, m := range p.messages {
		var task Task
		if err := json.Unmarshal(m.Payload, &task); err == nil {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func (p *MockEventPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
	p.topics = nil
}

// RecordingDispatcher is a synchronous NotificationDispatcher for tests.
type RecordingDispatcher struct {
	mu    sync.Mutex
	tasks []Task
}

func (d *RecordingDispatcher) Enqueue(ctx context.Context, task Task) {
	if len(task.Recipients) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
}

func (d *RecordingDispatcher) Tasks() []Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Task(nil), d.tasks...)
}

func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = nil
}
