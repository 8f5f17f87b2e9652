package mail

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaEnqueuer implements Enqueuer using segmentio/kafka-go.
type KafkaEnqueuer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaEnqueuer creates a Kafka producer that writes mail jobs to the given
// topic. brokers must be non-empty. Call Close when shutting down.
func NewKafkaEnqueuer(brokers []string, topic string) (*KafkaEnqueuer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaEnqueuer{writer: writer, topic: topic}, nil
}

// Enqueue serializes the message as JSON and writes it to the Kafka topic.
// Uses the request context with a short timeout so slow Kafka does not block callers indefinitely.
func (e *KafkaEnqueuer) Enqueue(ctx context.Context, m *Message) error {
	if e == nil || e.writer == nil || m == nil {
		return nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = e.writer.WriteMessages(writeCtx, kafka.Message{Value: payload})
	if err != nil {
		log.Printf("mail: kafka enqueue failed: %v", err)
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call multiple times.
func (e *KafkaEnqueuer) Close() error {
	if e == nil || e.writer == nil {
		return nil
	}
	return e.writer.Close()
}

// KafkaReader adapts a kafka-go consumer to the worker's Reader interface.
type KafkaReader struct {
	reader *kafka.Reader
}

// NewKafkaReader creates a consumer-group reader for the mail topic.
func NewKafkaReader(brokers []string, topic, groupID string) *KafkaReader {
	return &KafkaReader{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})}
}

func (r *KafkaReader) ReadMessage(ctx context.Context) (RawMessage, error) {
	msg, err := r.reader.ReadMessage(ctx)
	if err != nil {
		return RawMessage{}, err
	}
	return RawMessage{Value: msg.Value}, nil
}

// Close closes the underlying consumer.
func (r *KafkaReader) Close() error {
	return r.reader.Close()
}
