package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaPublisher writes heist notifications to the events topic keyed
// by event id, so one event's messages stay ordered in a partition.
type DefaultKafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewDefaultKafkaPublisher(brokers []string, topic string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		topic: topic,
	}
}

func (k *DefaultKafkaPublisher) Publish(topic string, msgs ...domain.Message) error {
	return k.publish(context.Background(), topic, msgs...)
}

func (k *DefaultKafkaPublisher) publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	var km []kafka.Message
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  time.Now(),
			Topic: topic,
		})
	}

	return k.writer.WriteMessages(ctx, km...)
}

// Notify implements domain.Notifier.
func (k *DefaultKafkaPublisher) Notify(ctx context.Context, n domain.Notification) error {
	msg, err := EncodeNotification(n)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := k.publish(ctx, k.topic, msg); err != nil {
		return fmt.Errorf("publish %s notification: %w", n.Type, err)
	}
	return nil
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}

// EncodeNotification marshals n as JSON keyed by its event id. Notifications
// without an event fall back to their type as the key.
func EncodeNotification(n domain.Notification) (domain.Message, error) {
	v, err := json.Marshal(n)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal notification: %w", err)
	}

	key := n.EventID
	if key == "" {
		key = string(n.Type)
	}
	return domain.Message{Key: []byte(key), Value: v}, nil
}

var (
	_ domain.PublisherPort = (*DefaultKafkaPublisher)(nil)
	_ domain.Notifier      = (*DefaultKafkaPublisher)(nil)
)
