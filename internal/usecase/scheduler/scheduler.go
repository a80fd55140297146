package scheduler

import (
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/usecase/random"
)

type Durations struct {
	IdleMin  time.Duration
	IdleMax  time.Duration
	Voting   time.Duration
	CrimeMin time.Duration
	CrimeMax time.Duration
	Cooldown time.Duration
}

// Scheduler draws the waits between phases. Every wait is turned into an
// absolute deadline by the caller before it is persisted.
type Scheduler struct {
	durations Durations
	rng       random.Source
}

func New(durations Durations, rng random.Source) *Scheduler {
	return &Scheduler{durations: durations, rng: rng}
}

func (s *Scheduler) NextEventWait() time.Duration {
	return s.between(s.durations.IdleMin, s.durations.IdleMax)
}

func (s *Scheduler) CrimeDuration() time.Duration {
	return s.between(s.durations.CrimeMin, s.durations.CrimeMax)
}

func (s *Scheduler) VotingDuration() time.Duration {
	return s.durations.Voting
}

func (s *Scheduler) CooldownDuration() time.Duration {
	return s.durations.Cooldown
}

func (s *Scheduler) between(min, max time.Duration) time.Duration {
	return time.Duration(random.Int64Between(s.rng, int64(min), int64(max)))
}
