package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder streams every domain event to a Kafka topic, keyed by complaint id
// so events for one complaint stay ordered within a partition.
type KafkaForwarder struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaForwarder creates a forwarder writing to topic on brokers. Writes are
// asynchronous so publishing never waits on the broker; failed deliveries are logged.
func NewKafkaForwarder(brokers []string, topic string, logger *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{writer: newKafkaWriter(brokers, topic, logger), logger: logger}
}

func newKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   deliveryReporter(logger),
	}
}

// deliveryReporter logs every message of a batch the broker did not accept.
func deliveryReporter(logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, msg := range messages {
			logger.Warn("kafka delivery failed",
				zap.ByteString("complaint_id", msg.Key),
				zap.String("event_type", headerValue(msg, "event_type")),
				zap.Error(err))
		}
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Register subscribes the forwarder to every event type.
func (f *KafkaForwarder) Register(dispatcher Dispatcher) {
	for _, eventType := range AllEventTypes() {
		dispatcher.Subscribe(eventType, f.Forward)
	}
}

// Forward encodes event as JSON and hands it to the writer. With the async writer an
// error here only means the message could not be queued.
func (f *KafkaForwarder) Forward(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.ComplaintID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.logger.Warn("kafka forward failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

// Close flushes and closes the writer.
func (f *KafkaForwarder) Close() error {
	if f == nil || f.writer == nil {
		return nil
	}
	return f.writer.Close()
}
