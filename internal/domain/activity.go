package domain

import (
	"context"
	"time"
)

// ChatActivity is one counted chat message.
type ChatActivity struct {
	Username string
	At       time.Time
}

// RoomMember is the last known presence of a user. Online is false only
// after an explicit leave.
type RoomMember struct {
	Username  string
	Online    bool
	UpdatedAt time.Time
}

// ActivityRepository keeps the activity window and the room roster so a
// restarted engine sees the same room as before.
type ActivityRepository interface {
	RecordMessage(ctx context.Context, username string, at time.Time) error
	ListMessagesSince(ctx context.Context, since time.Time) ([]ChatActivity, error)
	PruneMessages(ctx context.Context, before time.Time) (int64, error)

	SetPresence(ctx context.Context, username string, online bool, at time.Time) error
	ListPresence(ctx context.Context) ([]RoomMember, error)
}
