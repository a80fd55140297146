package kafka

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

// DecodeChatEvent parses an inbound chat message. A message without a type is
// treated as plain chat text.
func DecodeChatEvent(msg domain.Message) (domain.ChatEvent, error) {
	var event domain.ChatEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("decode chat event: %w", err)
	}

	event.Username = strings.TrimSpace(event.Username)
	if event.Username == "" {
		event.Username = strings.TrimSpace(string(msg.Key))
	}
	if event.Username == "" {
		return domain.ChatEvent{}, fmt.Errorf("decode chat event: missing username")
	}

	switch event.Type {
	case "":
		event.Type = domain.ChatMessage
	case domain.ChatMessage, domain.ChatJoin, domain.ChatLeave:
	default:
		return domain.ChatEvent{}, fmt.Errorf("decode chat event: unknown type %q", event.Type)
	}
	return event, nil
}
