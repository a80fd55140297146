package domain

import "time"

// EngineState is everything the controller needs to resume after a restart.
type EngineState struct {
	Phase         Phase
	Deadline      time.Time
	ActiveEventID string
	OfferedCrimes []string
	Solo          bool
	UpdatedAt     time.Time
}

// IdleState returns an IDLE state waiting for the next event at nextEventAt.
func IdleState(nextEventAt time.Time) EngineState {
	return EngineState{Phase: PhaseIdle, Deadline: nextEventAt}
}

func (s EngineState) HasDeadline() bool {
	return !s.Deadline.IsZero()
}

// Remaining is the wait left until the deadline. It is negative when the
// deadline already passed.
func (s EngineState) Remaining(now time.Time) time.Duration {
	return s.Deadline.Sub(now)
}

func (s EngineState) Clone() EngineState {
	c := s
	if s.OfferedCrimes != nil {
		c.OfferedCrimes = append([]string(nil), s.OfferedCrimes...)
	}
	return c
}
