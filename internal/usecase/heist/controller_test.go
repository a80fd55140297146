package heist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/catalog"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/sqlitetest"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/activity"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/outcome"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/payout"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/random"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/scheduler"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	house    = "heistbot"
	idleWait = time.Hour
	voting   = 3 * time.Minute
	crimeFor = 10 * time.Minute
	cooldown = 5 * time.Minute
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	items []domain.Notification
	// panicOn makes Notify panic for one notification type
	panicOn domain.NotificationType
}

func (r *recorder) Notify(_ context.Context, n domain.Notification) error {
	if r.panicOn != "" && n.Type == r.panicOn {
		panic("notifier exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return nil
}

func (r *recorder) ofType(t domain.NotificationType) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.items {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type failingLedger struct {
	domain.LedgerRepository
}

func (failingLedger) Settle(context.Context, *domain.Settlement, domain.EngineState) error {
	return errors.New("connection reset")
}

type flakyStates struct {
	domain.EngineStateRepository
	failSave bool
}

func (s *flakyStates) Save(ctx context.Context, state domain.EngineState) error {
	if s.failSave {
		return errors.New("database is locked")
	}
	return s.EngineStateRepository.Save(ctx, state)
}

type harness struct {
	t        *testing.T
	db       *gorm.DB
	clock    *scheduler.ManualClock
	rng      *random.Scripted
	heists   *repository.DefaultHeistRepository
	states   *flakyStates
	ledger   domain.LedgerRepository
	activity *repository.DefaultActivityRepository
	notes    *recorder
	ctrl     *Controller
}

func newHarness(t *testing.T, rng *random.Scripted) *harness {
	t.Helper()
	db := sqlitetest.NewDB(t)
	h := &harness{
		t:        t,
		db:       db,
		clock:    scheduler.NewManualClock(t0),
		rng:      rng,
		heists:   repository.NewDefaultHeistRepository(db),
		states:   &flakyStates{EngineStateRepository: repository.NewDefaultEngineStateRepository(db)},
		ledger:   repository.NewDefaultLedgerRepository(db, nil),
		activity: repository.NewDefaultActivityRepository(db),
		notes:    &recorder{},
	}
	h.ctrl = h.build()
	return h
}

// build creates a controller over the same store and clock, as a restarted
// process would.
func (h *harness) build() *Controller {
	cat, err := catalog.New([]domain.CrimeDefinition{
		{ID: "servo", Name: "Rob the Servo", MinPayout: 50, MaxPayout: 150, SuccessRate: 0.9},
		{ID: "bottleo", Name: "Bottle Shop Job", MinPayout: 100, MaxPayout: 300, SuccessRate: 0.8},
	}, nil)
	require.NoError(h.t, err)

	rules := payout.Rules{
		OrganizerCutBps:       1000,
		VoterShareBps:         3000,
		OfflineVoterPenalty:   5000,
		OfflineCrewPenalty:    7500,
		TrustBonusPerPointBps: 50,
		TrustBonusCapBps:      5000,
		TrustMin:              -100,
		TrustMax:              100,
		VoteBonus:             1,
		SuccessBonus:          2,
		FailurePenalty:        -3,
		SoloSuccessBonus:      5,
	}

	return NewController(Config{
		House:         house,
		OfferedCrimes: 2,
		MaxTimer:      24 * time.Hour,
	}, Dependencies{
		Heists:   h.heists,
		States:   h.states,
		Ledger:   h.ledger,
		Catalog:  cat,
		Notifier: h.notes,
		Activity: h.activity,
		Gate: activity.NewGate(activity.GateConfig{
			Window:      time.Hour,
			MinUsers:    2,
			MinMessages: 3,
			Ignored:     []string{house},
		}),
		Scheduler: scheduler.New(scheduler.Durations{
			IdleMin:  idleWait,
			IdleMax:  idleWait,
			Voting:   voting,
			CrimeMin: crimeFor,
			CrimeMax: crimeFor,
			Cooldown: cooldown,
		}, h.rng),
		Resolver:    outcome.NewResolver(h.rng),
		Distributor: payout.NewDistributor(rules, h.ledger, nil),
		Clock:       h.clock,
		Rand:        h.rng,
	})
}

func (h *harness) chat(username, text string) bool {
	h.t.Helper()
	ok, err := h.ctrl.OnMessage(context.Background(), username, text)
	require.NoError(h.t, err)
	return ok
}

// warmUp starts the engine and makes the room lively right before the first
// event deadline.
func (h *harness) warmUp(users ...string) {
	h.t.Helper()
	require.NoError(h.t, h.ctrl.Start(context.Background()))
	h.clock.Advance(idleWait - 10*time.Minute)
	for _, u := range users {
		h.chat(u, "evening all")
	}
	h.clock.Advance(10 * time.Minute)
	require.Equal(h.t, domain.PhaseVoting, h.ctrl.State().Phase)
}

func (h *harness) balance(username string) int64 {
	h.t.Helper()
	acc, err := h.ledger.GetAccount(context.Background(), username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return 0
	}
	require.NoError(h.t, err)
	return acc.Balance
}

func (h *harness) trust(username string) int64 {
	h.t.Helper()
	acc, err := h.ledger.GetAccount(context.Background(), username)
	require.NoError(h.t, err)
	return acc.Trust
}

func (h *harness) seedEvent(phase domain.Phase, deadline time.Time, crimeID string) string {
	h.t.Helper()
	ctx := context.Background()
	id := "evt-seeded"
	state := domain.EngineState{
		Phase:         domain.PhaseVoting,
		Deadline:      deadline,
		ActiveEventID: id,
		OfferedCrimes: []string{"servo", "bottleo"},
	}
	require.NoError(h.t, h.heists.CreateEvent(ctx, &domain.HeistEvent{
		ID:            id,
		Phase:         domain.PhaseVoting,
		OfferedCrimes: state.OfferedCrimes,
		CreatedAt:     t0.Add(-time.Hour),
	}, state))

	if phase == domain.PhaseInProgress || phase == domain.PhaseCooldown {
		state.Phase = domain.PhaseInProgress
		require.NoError(h.t, h.heists.AdvanceEvent(ctx, domain.EventTransition{
			EventID: id,
			From:    domain.PhaseVoting,
			To:      domain.PhaseInProgress,
			At:      t0.Add(-time.Hour),
			CrimeID: &crimeID,
		}, state))
	}
	if phase == domain.PhaseCooldown {
		state.Phase = domain.PhaseCooldown
		success, haul := true, int64(100)
		require.NoError(h.t, h.heists.AdvanceEvent(ctx, domain.EventTransition{
			EventID:   id,
			From:      domain.PhaseInProgress,
			To:        domain.PhaseCooldown,
			At:        t0.Add(-30 * time.Minute),
			Success:   &success,
			TotalHaul: &haul,
		}, state))
	}
	return id
}

// restart stops the running controller and starts a fresh one over the same
// store and clock.
func (h *harness) restart() {
	h.t.Helper()
	h.ctrl.Stop()
	h.ctrl = h.build()
	require.NoError(h.t, h.ctrl.Start(context.Background()))
}

func (h *harness) total() int64 {
	h.t.Helper()
	total, err := h.ledger.TotalBalance(context.Background())
	require.NoError(h.t, err)
	return total
}

func TestFullHeistCycle(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}, Floats: []float64{0.1}, Int63s: []int64{50}})
	ctx := context.Background()

	h.warmUp("alice", "bob", "carol", "dave")

	announces := h.notes.ofType(domain.NotifyAnnounce)
	require.Len(t, announces, 1)
	require.Len(t, announces[0].OfferedCrimes, 2)
	require.False(t, announces[0].Resumed)
	require.NotEmpty(t, announces[0].TemplateID)
	eventID := h.ctrl.State().ActiveEventID
	require.NotEmpty(t, eventID)

	require.True(t, h.chat("Alice", "servo"))
	require.True(t, h.chat("bob", "let's rob the servo"))
	require.True(t, h.chat("carol", "bottle shop job"))
	// Same vote again counts once
	require.True(t, h.chat("alice", "SERVO"))
	require.False(t, h.chat("dave", "no idea mate"))
	require.False(t, h.chat(house, "servo"))
	require.Len(t, h.notes.ofType(domain.NotifyVoteRegistered), 3)

	h.clock.Advance(voting)
	state := h.ctrl.State()
	require.Equal(t, domain.PhaseInProgress, state.Phase)
	require.False(t, state.Solo)
	departs := h.notes.ofType(domain.NotifyDepart)
	require.Len(t, departs, 1)
	require.Equal(t, "servo", departs[0].Crime.ID)

	// Votes after departure are ignored
	require.False(t, h.chat("erin", "servo"))

	h.clock.Advance(crimeFor)
	require.Equal(t, domain.PhaseCooldown, h.ctrl.State().Phase)

	returns := h.notes.ofType(domain.NotifyReturn)
	require.Len(t, returns, 1)
	require.True(t, returns[0].Success)
	require.Equal(t, int64(100), returns[0].Haul)

	// 10 to the house, 27 split by three voters, 63 to the non-voters
	require.Equal(t, int64(10), h.balance(house))
	require.Equal(t, int64(9), h.balance("alice"))
	require.Equal(t, int64(9), h.balance("bob"))
	require.Equal(t, int64(9), h.balance("carol"))
	require.Equal(t, int64(63)/2, h.balance("dave"))
	require.Equal(t, int64(63)/2, h.balance("erin"))
	require.Equal(t, int64(3), h.trust("alice"))
	require.Equal(t, int64(2), h.trust("dave"))

	payouts := h.notes.ofType(domain.NotifyPayout)
	require.Len(t, payouts, 1)
	require.NotEmpty(t, payouts[0].Distributions)

	h.clock.Advance(cooldown)
	state = h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.Empty(t, state.ActiveEventID)
	require.True(t, state.Deadline.Equal(h.clock.Now().Add(idleWait)))

	event, err := h.heists.GetEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCompleted, event.Phase)
	require.Equal(t, "servo", *event.CrimeID)
	require.True(t, event.Success)
	require.Equal(t, int64(100), event.TotalHaul)
	require.Equal(t, 5, event.ParticipantCount)

	active, err := h.heists.CountActiveEvents(ctx)
	require.NoError(t, err)
	require.Zero(t, active)

	persisted, err := h.states.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseIdle, persisted.Phase)
	require.Equal(t, 1, h.clock.Pending())
}

func TestQuietRoomSkipsEvent(t *testing.T) {
	h := newHarness(t, &random.Scripted{})
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.chat("alice", "anyone here?")
	h.clock.Advance(idleWait)

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.True(t, state.Deadline.Equal(t0.Add(2*idleWait)))
	require.Empty(t, h.notes.ofType(domain.NotifyAnnounce))
	require.Equal(t, 1, h.clock.Pending())
}

func TestSoloHeistPaysHouse(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}, Floats: []float64{0.1}, Int63s: []int64{50}})

	h.warmUp("alice", "bob", "carol")
	h.clock.Advance(voting)

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseInProgress, state.Phase)
	require.True(t, state.Solo)
	departs := h.notes.ofType(domain.NotifyDepart)
	require.Len(t, departs, 1)
	require.True(t, departs[0].Solo)
	crime := departs[0].Crime

	h.clock.Advance(crimeFor)

	haul := crime.MinPayout + 50
	require.Equal(t, haul, h.balance(house))
	require.Equal(t, int64(5), h.trust(house))
	require.Zero(t, h.balance("alice"))

	total, err := h.ledger.TotalBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, haul, total)
}

func TestFailedHeistMovesTrustOnly(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}, Floats: []float64{0.99}})

	h.warmUp("alice", "bob", "carol")
	require.True(t, h.chat("alice", "servo"))
	require.True(t, h.chat("bob", "servo"))
	h.clock.Advance(voting)
	h.clock.Advance(crimeFor)

	returns := h.notes.ofType(domain.NotifyReturn)
	require.Len(t, returns, 1)
	require.False(t, returns[0].Success)
	require.Zero(t, returns[0].Haul)

	total, err := h.ledger.TotalBalance(context.Background())
	require.NoError(t, err)
	require.Zero(t, total)
	require.Equal(t, int64(-2), h.trust("alice"))
	require.Equal(t, int64(-2), h.trust("bob"))
	require.Equal(t, int64(0), h.trust("carol"))
}

func TestOverdueVotingResumesExactlyOnce(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}})
	ctx := context.Background()

	eventID := h.seedEvent(domain.PhaseVoting, t0.Add(-10*time.Minute), "")
	require.NoError(t, h.heists.UpsertVote(ctx, &domain.Vote{EventID: eventID, Username: "alice", Choice: "bottleo", VotedAt: t0.Add(-15 * time.Minute)}))

	require.NoError(t, h.ctrl.Start(ctx))

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseInProgress, state.Phase)
	require.Equal(t, eventID, state.ActiveEventID)
	require.True(t, state.Deadline.Equal(t0.Add(crimeFor)))
	departs := h.notes.ofType(domain.NotifyDepart)
	require.Len(t, departs, 1)
	require.Equal(t, "bottleo", departs[0].Crime.ID)

	// Second restart with the state the first one persisted
	h.ctrl.Stop()
	h.ctrl = h.build()
	require.NoError(t, h.ctrl.Start(ctx))

	state = h.ctrl.State()
	require.Equal(t, domain.PhaseInProgress, state.Phase)
	require.True(t, state.Deadline.Equal(t0.Add(crimeFor)))
	require.Len(t, h.notes.ofType(domain.NotifyDepart), 1)
	require.Equal(t, 1, h.clock.Pending())
}

func TestFutureVotingResumesWithRemainingTime(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}})
	ctx := context.Background()

	eventID := h.seedEvent(domain.PhaseVoting, t0.Add(2*time.Minute), "")
	require.NoError(t, h.heists.UpsertVote(ctx, &domain.Vote{EventID: eventID, Username: "alice", Choice: "servo", VotedAt: t0}))

	require.NoError(t, h.ctrl.Start(ctx))
	require.Equal(t, domain.PhaseVoting, h.ctrl.State().Phase)

	announces := h.notes.ofType(domain.NotifyAnnounce)
	require.Len(t, announces, 1)
	require.True(t, announces[0].Resumed)
	require.Equal(t, map[string]string{"alice": "servo"}, h.ctrl.Votes())

	// Already counted before the restart
	require.True(t, h.chat("alice", "servo"))
	require.Empty(t, h.notes.ofType(domain.NotifyVoteRegistered))

	h.clock.Advance(time.Minute)
	require.Equal(t, domain.PhaseVoting, h.ctrl.State().Phase)
	h.clock.Advance(time.Minute)
	require.Equal(t, domain.PhaseInProgress, h.ctrl.State().Phase)
	require.Equal(t, "servo", h.notes.ofType(domain.NotifyDepart)[0].Crime.ID)
}

func TestCorruptedStateResetsToIdle(t *testing.T) {
	cases := []struct {
		name  string
		state domain.EngineState
	}{
		{"announcing", domain.EngineState{Phase: domain.PhaseAnnouncing, ActiveEventID: "evt-seeded", Deadline: t0}},
		{"distributing", domain.EngineState{Phase: domain.PhaseDistributing, ActiveEventID: "evt-seeded", Deadline: t0}},
		{"unknown phase", domain.EngineState{Phase: "HEISTING", Deadline: t0}},
		{"missing event", domain.EngineState{Phase: domain.PhaseInProgress, ActiveEventID: "ghost", Deadline: t0.Add(time.Minute)}},
		{"phase mismatch", domain.EngineState{Phase: domain.PhaseCooldown, ActiveEventID: "evt-seeded", Deadline: t0.Add(time.Minute), OfferedCrimes: []string{"servo"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &random.Scripted{})
			ctx := context.Background()

			h.seedEvent(domain.PhaseVoting, t0.Add(time.Minute), "")
			require.NoError(t, h.states.Save(ctx, tc.state))

			require.NoError(t, h.ctrl.Start(ctx))

			state := h.ctrl.State()
			require.Equal(t, domain.PhaseIdle, state.Phase)
			require.Empty(t, state.ActiveEventID)
			require.True(t, state.Deadline.Equal(t0.Add(idleWait)))
			require.Equal(t, 1, h.clock.Pending())

			active, err := h.heists.CountActiveEvents(ctx)
			require.NoError(t, err)
			require.Zero(t, active)

			persisted, err := h.states.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, domain.PhaseIdle, persisted.Phase)
		})
	}
}

func TestIdleResumeKeepsAbsoluteDeadline(t *testing.T) {
	h := newHarness(t, &random.Scripted{})
	ctx := context.Background()

	deadline := t0.Add(20 * time.Minute)
	require.NoError(t, h.states.Save(ctx, domain.IdleState(deadline)))
	require.NoError(t, h.ctrl.Start(ctx))

	at, armed := h.ctrl.timer.Deadline()
	require.True(t, armed)
	require.True(t, at.Equal(deadline))
}

func TestSettlementFailureTriggersErrorTransition(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}, Floats: []float64{0.1}, Int63s: []int64{50}})
	h.ledger = failingLedger{LedgerRepository: h.ledger}
	h.ctrl = h.build()
	ctx := context.Background()

	h.warmUp("alice", "bob", "carol")
	require.True(t, h.chat("alice", "servo"))
	h.clock.Advance(voting)
	eventID := h.ctrl.State().ActiveEventID

	// The store also refuses the idle state; the engine must stay live
	h.states.failSave = true
	h.clock.Advance(crimeFor)

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.True(t, state.Deadline.Equal(h.clock.Now().Add(idleWait)))
	require.Equal(t, 1, h.clock.Pending())

	event, err := h.heists.GetEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseAborted, event.Phase)

	total, err := h.ledger.TotalBalance(ctx)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, h.notes.ofType(domain.NotifyPayout))
}

func TestHandlerPanicTriggersErrorTransition(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}})
	h.notes.panicOn = domain.NotifyDepart
	ctx := context.Background()

	h.warmUp("alice", "bob", "carol")
	eventID := h.ctrl.State().ActiveEventID
	h.clock.Advance(voting)

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.Equal(t, 1, h.clock.Pending())

	event, err := h.heists.GetEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseAborted, event.Phase)
}

func TestStaleFireIsIgnored(t *testing.T) {
	h := newHarness(t, &random.Scripted{})
	require.NoError(t, h.ctrl.Start(context.Background()))
	before := h.ctrl.State()

	h.ctrl.fire(domain.PhaseVoting, "evt-old", t0)
	h.ctrl.fire(domain.PhaseIdle, "", before.Deadline.Add(time.Second))

	after := h.ctrl.State()
	require.Equal(t, before.Phase, after.Phase)
	require.True(t, before.Deadline.Equal(after.Deadline))
	require.Empty(t, h.notes.items)
}

func TestStopLeavesPersistedStateUntouched(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}})
	ctx := context.Background()

	h.warmUp("alice", "bob", "carol")
	h.ctrl.Stop()
	h.clock.Advance(voting)

	persisted, err := h.states.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseVoting, persisted.Phase)
	require.Zero(t, h.clock.Pending())
	require.Empty(t, h.notes.ofType(domain.NotifyDepart))
}

func TestOverdueCrimeSettlesOnceAcrossRestarts(t *testing.T) {
	h := newHarness(t, &random.Scripted{Floats: []float64{0.1}, Int63s: []int64{50}})
	ctx := context.Background()

	eventID := h.seedEvent(domain.PhaseInProgress, t0.Add(-time.Minute), "servo")
	for _, name := range []string{"alice", "bob"} {
		require.NoError(t, h.heists.UpsertVote(ctx, &domain.Vote{EventID: eventID, Username: name, Choice: "servo", VotedAt: t0.Add(-70 * time.Minute)}))
	}
	// Room activity and a leave recorded by the previous process
	for _, name := range []string{"alice", "bob", "dave"} {
		require.NoError(t, h.activity.RecordMessage(ctx, name, t0.Add(-20*time.Minute)))
	}
	require.NoError(t, h.activity.SetPresence(ctx, "bob", false, t0.Add(-5*time.Minute)))

	require.NoError(t, h.ctrl.Start(ctx))

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseCooldown, state.Phase)
	require.True(t, state.Deadline.Equal(t0.Add(cooldown)))

	// 27 for two voters, bob offline keeps half; 63 to dave; cut plus penalty to the house
	require.Equal(t, int64(13), h.balance("alice"))
	require.Equal(t, int64(6), h.balance("bob"))
	require.Equal(t, int64(63), h.balance("dave"))
	require.Equal(t, int64(17), h.balance(house))
	require.Equal(t, int64(99), h.total())
	require.Equal(t, int64(3), h.trust("bob"))
	require.Equal(t, int64(2), h.trust("dave"))
	require.Len(t, h.notes.ofType(domain.NotifyPayout), 1)

	h.restart()

	state = h.ctrl.State()
	require.Equal(t, domain.PhaseCooldown, state.Phase)
	require.True(t, state.Deadline.Equal(t0.Add(cooldown)))
	require.Equal(t, int64(13), h.balance("alice"))
	require.Equal(t, int64(6), h.balance("bob"))
	require.Equal(t, int64(99), h.total())
	require.Len(t, h.notes.ofType(domain.NotifyPayout), 1)
	require.Len(t, h.notes.ofType(domain.NotifyReturn), 1)
	require.Equal(t, 1, h.clock.Pending())

	event, err := h.heists.GetEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCooldown, event.Phase)
	require.Equal(t, 3, event.ParticipantCount)
}

func TestOverdueCrimeWithoutActivityTreatsVotersAsOnline(t *testing.T) {
	h := newHarness(t, &random.Scripted{Floats: []float64{0.1}, Int63s: []int64{50}})
	ctx := context.Background()

	eventID := h.seedEvent(domain.PhaseInProgress, t0.Add(-time.Minute), "servo")
	require.NoError(t, h.heists.UpsertVote(ctx, &domain.Vote{EventID: eventID, Username: "alice", Choice: "servo", VotedAt: t0.Add(-70 * time.Minute)}))

	require.NoError(t, h.ctrl.Start(ctx))

	require.Equal(t, domain.PhaseCooldown, h.ctrl.State().Phase)
	require.Equal(t, int64(90), h.balance("alice"))
	require.Equal(t, int64(10), h.balance(house))

	h.restart()
	require.Equal(t, int64(90), h.balance("alice"))
	require.Len(t, h.notes.ofType(domain.NotifyPayout), 1)
}

func TestOverdueCooldownCompletesOnce(t *testing.T) {
	h := newHarness(t, &random.Scripted{})
	ctx := context.Background()

	eventID := h.seedEvent(domain.PhaseCooldown, t0.Add(-time.Minute), "servo")
	require.NoError(t, h.ctrl.Start(ctx))

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.Empty(t, state.ActiveEventID)
	require.True(t, state.Deadline.Equal(t0.Add(idleWait)))

	event, err := h.heists.GetEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCompleted, event.Phase)
	require.Zero(t, h.total())
	require.Empty(t, h.notes.ofType(domain.NotifyPayout))

	h.clock.Advance(10 * time.Minute)
	h.restart()

	state = h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.True(t, state.Deadline.Equal(t0.Add(idleWait)))
	require.Zero(t, h.total())
	require.Empty(t, h.notes.ofType(domain.NotifyPayout))
	require.Equal(t, 1, h.clock.Pending())
}

func TestFutureCooldownResumesWithRemainingTime(t *testing.T) {
	h := newHarness(t, &random.Scripted{})
	ctx := context.Background()

	eventID := h.seedEvent(domain.PhaseCooldown, t0.Add(2*time.Minute), "servo")
	require.NoError(t, h.ctrl.Start(ctx))

	require.Equal(t, domain.PhaseCooldown, h.ctrl.State().Phase)
	at, armed := h.ctrl.timer.Deadline()
	require.True(t, armed)
	require.True(t, at.Equal(t0.Add(2*time.Minute)))

	h.clock.Advance(2 * time.Minute)

	state := h.ctrl.State()
	require.Equal(t, domain.PhaseIdle, state.Phase)
	require.True(t, state.Deadline.Equal(t0.Add(2*time.Minute+idleWait)))

	event, err := h.heists.GetEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCompleted, event.Phase)
	require.Empty(t, h.notes.ofType(domain.NotifyPayout))
}

func TestStartAfterStopRearmsTimer(t *testing.T) {
	h := newHarness(t, &random.Scripted{})
	ctx := context.Background()

	require.NoError(t, h.ctrl.Start(ctx))
	h.ctrl.Stop()
	require.Zero(t, h.clock.Pending())

	require.NoError(t, h.ctrl.Start(ctx))
	at, armed := h.ctrl.timer.Deadline()
	require.True(t, armed)
	require.True(t, at.Equal(t0.Add(idleWait)))
	require.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(idleWait)
	require.Equal(t, domain.PhaseIdle, h.ctrl.State().Phase)
	require.True(t, h.ctrl.State().Deadline.Equal(t0.Add(2*idleWait)))
}

func TestRestartKeepsCrewAndPresence(t *testing.T) {
	h := newHarness(t, &random.Scripted{Ints: []int{0}, Floats: []float64{0.1}, Int63s: []int64{50}})

	h.warmUp("alice", "bob", "carol", "dave")
	h.ctrl.OnUserLeave("dave")
	h.restart()

	require.Equal(t, domain.PhaseVoting, h.ctrl.State().Phase)
	require.ElementsMatch(t, []string{"alice", "bob", "carol", "dave"}, h.ctrl.gate.RecentParticipants(h.clock.Now()))
	require.False(t, h.ctrl.presence.IsOnline("dave"))

	require.True(t, h.chat("alice", "servo"))
	h.clock.Advance(voting)
	h.clock.Advance(crimeFor)

	// 27 to alice; 63 split by the crew, dave offline keeps a quarter
	require.Equal(t, int64(27), h.balance("alice"))
	require.Equal(t, int64(21), h.balance("bob"))
	require.Equal(t, int64(21), h.balance("carol"))
	require.Equal(t, int64(5), h.balance("dave"))
	require.Equal(t, int64(10+16), h.balance(house))
}
