package domain

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotifyAnnounce       NotificationType = "announce"
	NotifyVoteRegistered NotificationType = "vote_registered"
	NotifyDepart         NotificationType = "depart"
	NotifyReturn         NotificationType = "return"
	NotifyPayout         NotificationType = "payout"
	NotifyComment        NotificationType = "comment"
)

// Distribution is one participant's line in a payout notification.
type Distribution struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	Amount     int64  `json:"amount"`
	Penalty    int64  `json:"penalty"`
	Online     bool   `json:"online"`
	TrustDelta int64  `json:"trust_delta"`
}

// Notification is the outbound message consumed by the chat transport. The
// TemplateID names the narrative to render; the engine does not format text.
type Notification struct {
	Type          NotificationType  `json:"type"`
	EventID       string            `json:"event_id,omitempty"`
	TemplateID    string            `json:"template_id,omitempty"`
	Username      string            `json:"username,omitempty"`
	Crime         *CrimeDefinition  `json:"crime,omitempty"`
	OfferedCrimes []CrimeDefinition `json:"offered_crimes,omitempty"`
	Deadline      *time.Time        `json:"deadline,omitempty"`
	Resumed       bool              `json:"resumed,omitempty"`
	Solo          bool              `json:"solo,omitempty"`
	Success       bool              `json:"success,omitempty"`
	Haul          int64             `json:"haul,omitempty"`
	Distributions []Distribution    `json:"distributions,omitempty"`
	At            time.Time         `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// PresenceChecker answers whether a user is currently in the room.
type PresenceChecker interface {
	IsOnline(username string) bool
}
