package domain

import "time"

type HeistEvent struct {
	ID               string
	Phase            Phase
	CrimeID          *string
	OfferedCrimes    []string
	CreatedAt        time.Time
	AnnouncedAt      *time.Time
	DepartedAt       *time.Time
	ReturnedAt       *time.Time
	CompletedAt      *time.Time
	TotalHaul        int64
	Success          bool
	Solo             bool
	ParticipantCount int
}

type Vote struct {
	EventID  string
	Username string
	Choice   string
	VotedAt  time.Time
}

// EventTransition describes a compare-and-set move of an event row from one
// phase to the next. Only the non-nil fields are written.
type EventTransition struct {
	EventID          string
	From             Phase
	To               Phase
	At               time.Time
	CrimeID          *string
	Solo             *bool
	ParticipantCount *int
	TotalHaul        *int64
	Success          *bool
}

type TransitionLog struct {
	EventID string
	From    Phase
	To      Phase
	Reason  string
	At      time.Time
}
