package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/IBM/sarama"
)

// Producer publishes events through a synchronous Kafka producer.
type Producer struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
}

// NewProducer connects to brokers. Delivery waits for all in-sync replicas and the
// producer is idempotent.
func NewProducer(brokers []string, clientID string, logger *slog.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	if clientID != "" {
		config.ClientID = clientID
	}
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducerWith(producer, logger), nil
}

// NewProducerWith wraps an existing sarama producer.
func NewProducerWith(producer sarama.SyncProducer, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{producer: producer, logger: logger.With(slog.String("component", "kafka-producer"))}
}

// Publish writes evt to topic keyed by key. A nil Producer drops the event, which is
// how publishing is disabled when no brokers are configured.
func (p *Producer) Publish(ctx context.Context, topic string, key int64, evt Event) error {
	if p == nil || p.producer == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(strconv.FormatInt(key, 10)),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: evt.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(evt.EventType)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("send kafka message",
			slog.String("topic", topic),
			slog.String("event_type", evt.EventType),
			slog.Any("error", err))
		return fmt.Errorf("send %s: %w", evt.EventType, err)
	}
	p.logger.Debug("kafka message sent",
		slog.String("topic", topic),
		slog.Int64("key", key),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
