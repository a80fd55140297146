package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

type ActivityPruner interface {
	PruneActivity()
	RefreshRoomMetrics()
}

type ChatConsumer interface {
	Consume(ctx context.Context, messages <-chan domain.Message)
}

type BackgroundTasks struct {
	Engine        ActivityPruner
	PruneInterval time.Duration

	Chat       ChatConsumer
	Subscriber domain.SubscriberPort
	ChatTopic  string
	GroupID    string

	Logger *slog.Logger
}

func NewBackgroundTasks(engine ActivityPruner, pruneInterval time.Duration, logger *slog.Logger) *BackgroundTasks {
	if logger == nil {
		logger = slog.Default()
	}
	if pruneInterval <= 0 {
		pruneInterval = time.Minute
	}
	return &BackgroundTasks{
		Engine:        engine,
		PruneInterval: pruneInterval,
		Logger:        logger.With("component", "background"),
	}
}

// WithChatConsumer enables the kafka chat stream.
func (bt *BackgroundTasks) WithChatConsumer(chat ChatConsumer, sub domain.SubscriberPort, topic, groupID string) *BackgroundTasks {
	bt.Chat = chat
	bt.Subscriber = sub
	bt.ChatTopic = topic
	bt.GroupID = groupID
	return bt
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) error {
	go bt.startActivityPrune(ctx)

	if bt.Chat != nil && bt.Subscriber != nil {
		messages, err := bt.Subscriber.Subscribe(bt.ChatTopic, bt.GroupID)
		if err != nil {
			return err
		}
		bt.Logger.Info("consuming chat events", "topic", bt.ChatTopic, "group", bt.GroupID)
		go bt.Chat.Consume(ctx, messages)
	}
	return nil
}

func (bt *BackgroundTasks) startActivityPrune(ctx context.Context) {
	ticker := time.NewTicker(bt.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.Engine.PruneActivity()
			bt.Engine.RefreshRoomMetrics()
		}
	}
}
