package domain

type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhaseAnnouncing   Phase = "ANNOUNCING"
	PhaseVoting       Phase = "VOTING"
	PhaseInProgress   Phase = "IN_PROGRESS"
	PhaseDistributing Phase = "DISTRIBUTING"
	PhaseCooldown     Phase = "COOLDOWN"

	// Terminal phases, used only on heist_events rows
	PhaseCompleted Phase = "COMPLETED"
	PhaseAborted   Phase = "ABORTED"
)

// Transient reports whether the phase only lives in memory for the duration
// of a synchronous handler. Such a phase is never a valid resumption point.
func (p Phase) Transient() bool {
	return p == PhaseAnnouncing || p == PhaseDistributing
}

// Terminal reports whether an event in this phase is closed.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// Resumable reports whether the controller may be restarted from this phase.
func (p Phase) Resumable() bool {
	switch p {
	case PhaseIdle, PhaseVoting, PhaseInProgress, PhaseCooldown:
		return true
	}
	return false
}

// ActiveEventPhases are the event phases counted by the singleton invariant.
var ActiveEventPhases = []Phase{PhaseVoting, PhaseInProgress, PhaseCooldown}
