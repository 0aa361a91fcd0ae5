package events

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/utils"
)

// Queue is the task queue boundary: a publisher for the request path and a
// subscriber for the worker.
type Queue struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Topic      string

	shared bool
}

// NewQueue builds the configured backend. The memory backend shares one
// in-process channel between publisher and subscriber.
func NewQueue(cfg config.QueueConfig, logger utils.Logger) (*Queue, error) {
	wmLogger := watermill.NewSlogLogger(logger.Slog())

	switch cfg.Backend {
	case config.QueueBackendMemory, "":
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(max(cfg.BufferSize, 1)),
		}, wmLogger)
		return &Queue{Publisher: ch, Subscriber: ch, Topic: cfg.Topic, shared: true}, nil

	case config.QueueBackendKafka:
		publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}

		subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.KafkaBrokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
			ConsumerGroup:         cfg.ConsumerGroup,
		}, wmLogger)
		if err != nil {
			_ = publisher.Close()
			return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
		}
		return &Queue{Publisher: publisher, Subscriber: subscriber, Topic: cfg.Topic}, nil
	}

	return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
}

func (q *Queue) Close() error {
	var errs []error
	if err := q.Publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if !q.shared {
		if err := q.Subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
