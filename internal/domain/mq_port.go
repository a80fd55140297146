package domain

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(topic, groupID string) (<-chan Message, error)
}

type ChatEventType string

const (
	ChatMessage ChatEventType = "message"
	ChatJoin    ChatEventType = "join"
	ChatLeave   ChatEventType = "leave"
)

// ChatEvent is the inbound payload published by the chat transport.
type ChatEvent struct {
	Type     ChatEventType `json:"type"`
	Username string        `json:"username"`
	Text     string        `json:"text,omitempty"`
}
