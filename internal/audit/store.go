package audit

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"passport-iam/internal/platform/kafka/producer"
)

// Store is a sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// MessageProducer is satisfied by the Kafka producer.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaStore writes events as JSON records keyed by the address hash.
type KafkaStore struct {
	producer MessageProducer
	topic    string
}

func NewKafkaStore(p MessageProducer, topic string) *KafkaStore {
	return &KafkaStore{producer: p, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic:   s.topic,
		Key:     []byte(event.AddressHash),
		Value:   value,
		Headers: map[string]string{"action": string(event.Action)},
	})
}

// LogStore is used when no brokers are configured.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"address_hash", event.AddressHash,
		"provider", event.Provider,
		"chain", event.Chain,
		"code", event.Code,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
	return nil
}
