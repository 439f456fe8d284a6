package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"semprejoias/pkg/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageProducer is the part of *kafka.Writer the Kafka sink needs.
type MessageProducer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSink struct {
	producer MessageProducer
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func NewKafkaSink(producer MessageProducer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

type kafkaEvent struct {
	ResourceID   string      `json:"resource_id"`
	ResourceType string      `json:"resource_type"`
	Action       string      `json:"action"`
	ActorID      string      `json:"actor_id"`
	ActorName    string      `json:"actor_name"`
	Data         interface{} `json:"data"`
	CreatedAt    time.Time   `json:"created_at"`
}

// PersistLog publishes the entry keyed by resource id, so events of one
// document stay ordered within a partition.
func (s *KafkaSink) PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error {
	payload, err := json.Marshal(kafkaEvent{
		ResourceID:   entry.ResourceID,
		ResourceType: entry.ResourceType,
		Action:       entry.Action,
		ActorID:      entry.ActorID,
		ActorName:    entry.ActorName,
		Data:         data,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal audit log data: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(entry.ResourceType + ":" + entry.ResourceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(entry.Action)},
		},
	}
	if err := s.producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish audit log: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

// LogSink writes entries to the application log only.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) PersistLog(_ context.Context, entry models.AuditLog, data interface{}) error {
	s.logger.Info("audit",
		zap.String("resource_id", entry.ResourceID),
		zap.String("resource_type", entry.ResourceType),
		zap.String("action", entry.Action),
		zap.String("actor_id", entry.ActorID),
		zap.String("actor_name", entry.ActorName),
		zap.Any("data", data),
	)
	return nil
}
