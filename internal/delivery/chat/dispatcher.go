// Package chat feeds inbound chat events into the heist engine.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/kafka"
)

type Engine interface {
	OnMessage(ctx context.Context, username, text string) (bool, error)
	OnUserJoin(username string)
	OnUserLeave(username string)
}

type Dispatcher struct {
	engine Engine
	logger *slog.Logger
}

func NewDispatcher(engine Engine, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{engine: engine, logger: logger.With("component", "chat")}
}

// Handle routes one event. For messages it reports whether a vote was counted.
func (d *Dispatcher) Handle(ctx context.Context, event domain.ChatEvent) (bool, error) {
	switch event.Type {
	case domain.ChatMessage, "":
		return d.engine.OnMessage(ctx, event.Username, event.Text)
	case domain.ChatJoin:
		d.engine.OnUserJoin(event.Username)
		return false, nil
	case domain.ChatLeave:
		d.engine.OnUserLeave(event.Username)
		return false, nil
	}
	return false, fmt.Errorf("unknown chat event type %q", event.Type)
}

// Consume handles messages until the channel closes or ctx is done. Bad
// messages are logged and skipped.
func (d *Dispatcher) Consume(ctx context.Context, messages <-chan domain.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				d.logger.Info("chat stream closed")
				return
			}

			event, err := kafka.DecodeChatEvent(msg)
			if err != nil {
				d.logger.Warn("skipping chat message", "error", err)
				continue
			}
			if _, err := d.Handle(ctx, event); err != nil {
				d.logger.Error("failed to handle chat event",
					"type", event.Type,
					"username", event.Username,
					"error", err,
				)
			}
		}
	}
}
