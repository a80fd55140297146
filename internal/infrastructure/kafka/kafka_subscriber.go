package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaSubscriber struct {
	brokers []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDefaultKafkaSubscriber(brokers []string) *DefaultKafkaSubscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &DefaultKafkaSubscriber{brokers: brokers, ctx: ctx, cancel: cancel}
}

// Subscribe streams the topic until Close is called or the reader fails. The
// returned channel is closed when the reader stops.
func (k *DefaultKafkaSubscriber) Subscribe(topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	out := make(chan domain.Message)

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		defer reader.Close()
		defer close(out)
		for {
			m, err := reader.ReadMessage(k.ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("kafka reader stopped", "topic", topic, "error", err)
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-k.ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close stops every reader and waits for them to exit.
func (k *DefaultKafkaSubscriber) Close() {
	k.cancel()
	k.wg.Wait()
}

var _ domain.SubscriberPort = (*DefaultKafkaSubscriber)(nil)
