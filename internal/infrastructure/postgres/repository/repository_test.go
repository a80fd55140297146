package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/sqlitetest"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func createVotingEvent(t *testing.T, repo *DefaultHeistRepository, id string, at time.Time) {
	t.Helper()
	event := &domain.HeistEvent{
		ID:            id,
		Phase:         domain.PhaseVoting,
		OfferedCrimes: []string{"servo", "bottleo"},
		CreatedAt:     at,
		AnnouncedAt:   &at,
	}
	state := domain.EngineState{
		Phase:         domain.PhaseVoting,
		Deadline:      at.Add(3 * time.Minute),
		ActiveEventID: id,
		OfferedCrimes: event.OfferedCrimes,
	}
	require.NoError(t, repo.CreateEvent(context.Background(), event, state))
}

func TestEngineStateRoundTrip(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := NewDefaultEngineStateRepository(db)
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, domain.ErrStateNotFound)

	deadline := time.UnixMilli(1_700_000_123_456)
	require.NoError(t, repo.Save(ctx, domain.EngineState{
		Phase:         domain.PhaseInProgress,
		Deadline:      deadline,
		ActiveEventID: "evt-1",
		OfferedCrimes: []string{"servo", "bottleo"},
		Solo:          true,
	}))

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseInProgress, state.Phase)
	require.True(t, state.Deadline.Equal(deadline))
	require.Equal(t, "evt-1", state.ActiveEventID)
	require.Equal(t, []string{"servo", "bottleo"}, state.OfferedCrimes)
	require.True(t, state.Solo)

	// Overwrite with an idle state without an event
	require.NoError(t, repo.Save(ctx, domain.IdleState(time.Time{})))
	state, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.False(t, state.HasDeadline())
	require.Empty(t, state.ActiveEventID)
	require.Empty(t, state.OfferedCrimes)
}

func TestCreateEventAbortsDanglingEvents(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := NewDefaultHeistRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	createVotingEvent(t, repo, "evt-1", now)
	createVotingEvent(t, repo, "evt-2", now.Add(time.Minute))

	count, err := repo.CountActiveEvents(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	first, err := repo.GetEvent(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseAborted, first.Phase)
	require.NotNil(t, first.CompletedAt)

	second, err := repo.GetEvent(ctx, "evt-2")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseVoting, second.Phase)
	require.Equal(t, []string{"servo", "bottleo"}, second.OfferedCrimes)
}

func TestAdvanceEventIsCompareAndSet(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := NewDefaultHeistRepository(db)
	states := NewDefaultEngineStateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	createVotingEvent(t, repo, "evt-1", now)

	next := domain.EngineState{Phase: domain.PhaseInProgress, Deadline: now.Add(20 * time.Minute), ActiveEventID: "evt-1"}
	transition := domain.EventTransition{
		EventID:          "evt-1",
		From:             domain.PhaseVoting,
		To:               domain.PhaseInProgress,
		At:               now,
		CrimeID:          ptr("servo"),
		ParticipantCount: ptr(3),
		Solo:             ptr(false),
	}
	require.NoError(t, repo.AdvanceEvent(ctx, transition, next))

	event, err := repo.GetEvent(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseInProgress, event.Phase)
	require.Equal(t, "servo", *event.CrimeID)
	require.Equal(t, 3, event.ParticipantCount)
	require.NotNil(t, event.DepartedAt)

	// Second attempt from the same source phase must not apply nor save state
	err = repo.AdvanceEvent(ctx, transition, domain.IdleState(now))
	require.ErrorIs(t, err, domain.ErrStaleTransition)

	state, err := states.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseInProgress, state.Phase)
}

func TestUpsertVoteOverwritesPreviousChoice(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := NewDefaultHeistRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	createVotingEvent(t, repo, "evt-1", now)

	require.NoError(t, repo.UpsertVote(ctx, &domain.Vote{EventID: "evt-1", Username: "Shazza", Choice: "servo", VotedAt: now}))
	require.NoError(t, repo.UpsertVote(ctx, &domain.Vote{EventID: "evt-1", Username: "shazza", Choice: "bottleo", VotedAt: now.Add(time.Second)}))
	require.NoError(t, repo.UpsertVote(ctx, &domain.Vote{EventID: "evt-1", Username: "bazza", Choice: "servo", VotedAt: now.Add(2 * time.Second)}))

	votes, err := repo.ListVotes(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, votes, 2)
	require.Equal(t, "shazza", votes[0].Username)
	require.Equal(t, "bottleo", votes[0].Choice)
	require.Equal(t, "bazza", votes[1].Username)
}

func settlementFor(now time.Time, deltas ...domain.AccountDelta) *domain.Settlement {
	return &domain.Settlement{
		Transition: domain.EventTransition{
			EventID:   "evt-1",
			From:      domain.PhaseInProgress,
			To:        domain.PhaseCooldown,
			At:        now,
			TotalHaul: ptr(int64(100)),
			Success:   ptr(true),
		},
		Deltas:       deltas,
		TrustMin:     -10,
		TrustMax:     10,
		InitialTrust: 0,
	}
}

func moveToInProgress(t *testing.T, repo *DefaultHeistRepository, now time.Time) {
	t.Helper()
	createVotingEvent(t, repo, "evt-1", now)
	require.NoError(t, repo.AdvanceEvent(context.Background(), domain.EventTransition{
		EventID: "evt-1", From: domain.PhaseVoting, To: domain.PhaseInProgress, At: now, CrimeID: ptr("servo"),
	}, domain.EngineState{Phase: domain.PhaseInProgress, ActiveEventID: "evt-1", Deadline: now}))
}

func TestSettleAppliesDeltasAtomically(t *testing.T) {
	db := sqlitetest.NewDB(t)
	heists := NewDefaultHeistRepository(db)
	ledger := NewDefaultLedgerRepository(db, nil)
	states := NewDefaultEngineStateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	moveToInProgress(t, heists, now)

	_, err := ledger.EnsureAccount(ctx, "Shazza", 9)
	require.NoError(t, err)

	settlement := settlementFor(now,
		domain.AccountDelta{
			Username: "shazza", Amount: 27, TrustDelta: 3, Participated: true,
			Entries: []domain.LedgerEntry{{EventID: "evt-1", Username: "shazza", Kind: domain.EntryVoterShare, Amount: 27, TrustDelta: 3}},
		},
		domain.AccountDelta{
			Username: "heistbot", Amount: 10,
			Entries: []domain.LedgerEntry{{EventID: "evt-1", Username: "heistbot", Kind: domain.EntryHouseCut, Amount: 10}},
		},
	)
	cooldown := domain.EngineState{Phase: domain.PhaseCooldown, ActiveEventID: "evt-1", Deadline: now.Add(5 * time.Minute)}
	require.NoError(t, ledger.Settle(ctx, settlement, cooldown))

	shazza, err := ledger.GetAccount(ctx, "SHAZZA")
	require.NoError(t, err)
	require.Equal(t, int64(27), shazza.Balance)
	require.Equal(t, int64(10), shazza.Trust, "trust is clamped to the max")
	require.Equal(t, int64(27), shazza.TotalEarned)
	require.Equal(t, int64(1), shazza.EventsParticipated)

	house, err := ledger.GetAccount(ctx, "heistbot")
	require.NoError(t, err)
	require.Equal(t, int64(10), house.Balance)
	require.Equal(t, int64(0), house.EventsParticipated)

	entries, err := ledger.ListEntries(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.NotEmpty(t, e.ID)
	}

	event, err := heists.GetEvent(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCooldown, event.Phase)
	require.Equal(t, int64(100), event.TotalHaul)
	require.True(t, event.Success)

	state, err := states.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCooldown, state.Phase)

	total, err := ledger.TotalBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(37), total)

	top, err := ledger.TopAccounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "shazza", top[0].Username)
}

func TestSettleRollsBackOnStaleTransition(t *testing.T) {
	db := sqlitetest.NewDB(t)
	heists := NewDefaultHeistRepository(db)
	ledger := NewDefaultLedgerRepository(db, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	moveToInProgress(t, heists, now)

	settlement := settlementFor(now, domain.AccountDelta{Username: "shazza", Amount: 50, Participated: true})
	cooldown := domain.EngineState{Phase: domain.PhaseCooldown, ActiveEventID: "evt-1", Deadline: now}
	require.NoError(t, ledger.Settle(ctx, settlement, cooldown))

	// Replaying the same settlement must not pay twice
	err := ledger.Settle(ctx, settlement, cooldown)
	require.True(t, errors.Is(err, domain.ErrStaleTransition))

	shazza, err := ledger.GetAccount(ctx, "shazza")
	require.NoError(t, err)
	require.Equal(t, int64(50), shazza.Balance)
	require.Equal(t, int64(1), shazza.EventsParticipated)
}

func TestSettleClampsNegativeBalance(t *testing.T) {
	db := sqlitetest.NewDB(t)
	heists := NewDefaultHeistRepository(db)
	ledger := NewDefaultLedgerRepository(db, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	moveToInProgress(t, heists, now)
	_, err := ledger.EnsureAccount(ctx, "bazza", 0)
	require.NoError(t, err)

	settlement := settlementFor(now, domain.AccountDelta{Username: "bazza", Amount: -40, TrustDelta: -50})
	require.NoError(t, ledger.Settle(ctx, settlement, domain.EngineState{Phase: domain.PhaseCooldown, ActiveEventID: "evt-1"}))

	bazza, err := ledger.GetAccount(ctx, "bazza")
	require.NoError(t, err)
	require.Equal(t, int64(0), bazza.Balance)
	require.Equal(t, int64(0), bazza.TotalLost, "nothing was actually taken from an empty account")
	require.Equal(t, int64(-10), bazza.Trust)
}

func TestGetAccountNotFound(t *testing.T) {
	db := sqlitetest.NewDB(t)
	ledger := NewDefaultLedgerRepository(db, nil)

	_, err := ledger.GetAccount(context.Background(), "nobody")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	accounts, err := ledger.GetAccounts(context.Background(), []string{"nobody"})
	require.NoError(t, err)
	require.Empty(t, accounts)
}
