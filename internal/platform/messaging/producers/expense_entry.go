package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/splitledger/internal/config"
)

type ExpenseEntryProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new expense intake producer and ensures topic exists
func NewExpenseEntryProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ExpenseEntryProducer, error) {
	if cfg.ExpenseTopic == "" {
		return nil, fmt.Errorf("kafka expense topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for expense producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.ExpenseTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure expense topic %s exists for expense producer: %w", cfg.ExpenseTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ExpenseTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.ExpenseTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.ExpenseTopic, "count", len(messages))
			}
		},
	}

	return &ExpenseEntryProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ExpenseTopic,
	}, nil
}

func (p *ExpenseEntryProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for expense producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via expense producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via expense producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via expense producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ExpenseEntryProducer) Close() error {
	p.logger.Info("Closing expense Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close expense kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
