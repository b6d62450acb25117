package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const (
	handleAttempts = 3
	retryDelay     = 500 * time.Millisecond
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer feeds a consumer group's messages to a MessageHandler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger.With("group", groupID)}, nil
}

// Run consumes topics until ctx is cancelled, rejoining the group after
// every rebalance.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	handler := groupHandler{handler: c.handler, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	h.logger.Info("kafka partitions assigned", "claims", sess.Claims(), "generation", sess.GenerationID())
	return nil
}

func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim retries a failing message a few times and then moves past it.
// Handlers dedupe through the inbox, so a redelivery is harmless while a stuck
// partition is not.
func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			err := h.handle(sess.Context(), message)
			if sess.Context().Err() != nil {
				return nil
			}
			if err != nil {
				h.logger.Error("kafka message dropped",
					"topic", message.Topic,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err)
			}
			sess.MarkMessage(message, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}

func (h groupHandler) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var err error
	for attempt := 1; attempt <= handleAttempts; attempt++ {
		if err = h.handler.Handle(ctx, message); err == nil {
			return nil
		}
		h.logger.Warn("kafka message not handled", "topic", message.Topic, "offset", message.Offset, "attempt", attempt, "error", err)
		select {
		case <-time.After(retryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
