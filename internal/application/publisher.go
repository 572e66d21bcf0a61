package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-shuttle/service-shuttle/internal/platform/kafka"
)

// EventSource is the CloudEvent source of everything this service publishes.
const EventSource = "service-shuttle"

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// publishEvent is best effort: failures are logged and never fail the use case.
func publishEvent(ctx context.Context, producer EventPublisher, logger *zap.Logger, topic, eventType string, data interface{}) {
	if producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(EventSource, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
