package domain

import (
	"context"
	"time"
)

type HeistRepository interface {
	// CreateEvent aborts any dangling non-terminal event, inserts the new one
	// and saves state, all in one transaction.
	CreateEvent(ctx context.Context, event *HeistEvent, state EngineState) error
	GetEvent(ctx context.Context, eventID string) (*HeistEvent, error)
	// AdvanceEvent moves the event only if it is still in t.From and saves
	// state in the same transaction. ErrStaleTransition otherwise.
	AdvanceEvent(ctx context.Context, t EventTransition, state EngineState) error
	AbortActiveEvents(ctx context.Context, exceptID string, at time.Time) (int64, error)
	CountActiveEvents(ctx context.Context) (int64, error)
	ListEvents(ctx context.Context, limit int) ([]*HeistEvent, error)

	UpsertVote(ctx context.Context, vote *Vote) error
	ListVotes(ctx context.Context, eventID string) ([]*Vote, error)
}

type EngineStateRepository interface {
	Load(ctx context.Context) (EngineState, error)
	Save(ctx context.Context, state EngineState) error
}

// AccountDelta is a single participant's change inside a settlement.
type AccountDelta struct {
	Username     string
	Amount       int64
	TrustDelta   int64
	Participated bool
	Entries      []LedgerEntry
}

// Settlement is the atomic unit applied at the end of a heist: the event
// transition, all account deltas, their audit rows and the next engine state.
type Settlement struct {
	Transition EventTransition
	Deltas     []AccountDelta
	// Trust bounds and the starting trust of lazily created accounts
	TrustMin     int64
	TrustMax     int64
	InitialTrust int64
}

type LedgerRepository interface {
	GetAccount(ctx context.Context, username string) (*UserEconomyAccount, error)
	EnsureAccount(ctx context.Context, username string, initialTrust int64) (*UserEconomyAccount, error)
	GetAccounts(ctx context.Context, usernames []string) (map[string]*UserEconomyAccount, error)
	TopAccounts(ctx context.Context, limit int) ([]*UserEconomyAccount, error)
	ListEntries(ctx context.Context, eventID string) ([]*LedgerEntry, error)
	TotalBalance(ctx context.Context) (int64, error)
	Settle(ctx context.Context, s *Settlement, state EngineState) error
}

type TransitionLogger interface {
	LogTransition(ctx context.Context, entry TransitionLog) error
}
