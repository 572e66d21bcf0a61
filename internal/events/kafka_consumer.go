package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/campus-shuttle/service-shuttle/internal/application"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
	"github.com/campus-shuttle/service-shuttle/internal/platform/kafka"
	"github.com/campus-shuttle/service-shuttle/internal/proto/events"
)

// RechargeSettler applies a payment outcome to a pending recharge.
type RechargeSettler interface {
	SettleRecharge(ctx context.Context, transactionID uuid.UUID, succeeded bool, reason string) (*application.TransactionDTO, error)
}

// PaymentEventConsumer listens to payment results and settles wallet recharges.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	wallet   RechargeSettler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	wallet RechargeSettler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		wallet:   wallet,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentRechargeSucceeded:
		return c.handleRechargeResult(ctx, cloudEvent, true)
	case events.PaymentRechargeFailed:
		return c.handleRechargeResult(ctx, cloudEvent, false)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleRechargeResult(ctx context.Context, cloudEvent kafka.CloudEvent, succeeded bool) error {
	var evt events.PaymentResultEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentResultEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing recharge payment result",
		zap.String("transaction_id", evt.TransactionID.String()),
		zap.String("payment_ref", evt.PaymentRef),
		zap.Bool("succeeded", succeeded),
	)

	tx, err := c.wallet.SettleRecharge(ctx, evt.TransactionID, succeeded, evt.Reason)
	if err != nil {
		if domain.IsNotFound(err) {
			c.logger.Warn("payment result for unknown transaction",
				zap.String("transaction_id", evt.TransactionID.String()),
			)
			return nil
		}
		c.logger.Error("failed to settle recharge",
			zap.String("transaction_id", evt.TransactionID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("recharge settled",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("status", tx.Status),
	)
	return nil
}
