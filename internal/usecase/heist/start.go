package heist

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

const (
	resumeFresh     = "fresh"
	resumeScheduled = "scheduled"
	resumeOverdue   = "overdue"
	resumeCorrupted = "corrupted"
)

// Start loads the persisted state and resumes from it. Exactly one timer is
// armed when Start returns without error.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.started = true
	c.stopped = false
	c.ctx = context.WithoutCancel(ctx)
	c.restoreActivityLocked(ctx)

	state, err := c.states.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrStateNotFound):
		return c.startFreshLocked()
	case errors.Is(err, domain.ErrCorruptedState):
		c.resetLocked("corrupted state", err)
		c.recordResumeMetrics(domain.PhaseIdle, resumeCorrupted)
		return nil
	case err != nil:
		c.started = false
		return fmt.Errorf("load engine state: %w", err)
	}

	c.resumeLocked(state)
	return nil
}

func (c *Controller) startFreshLocked() error {
	now := c.clock.Now()
	if n, err := c.heists.AbortActiveEvents(c.ctx, "", now); err != nil {
		c.logger.Warn("failed to abort dangling events", "error", err)
	} else if n > 0 {
		c.logger.Warn("aborted dangling events", "count", n)
	}

	next := domain.IdleState(now.Add(c.schedule.NextEventWait()))
	if err := c.states.Save(c.ctx, next); err != nil {
		c.started = false
		return fmt.Errorf("save initial state: %w", err)
	}

	c.state = next
	c.armLocked()
	c.recordResumeMetrics(domain.PhaseIdle, resumeFresh)
	c.logger.Info("heist engine started", "next_event_at", next.Deadline)
	return nil
}

func (c *Controller) resumeLocked(state domain.EngineState) {
	if !state.Phase.Resumable() {
		c.resetLocked("unresumable phase", fmt.Errorf("%w: phase %q", domain.ErrCorruptedState, state.Phase))
		c.recordResumeMetrics(state.Phase, resumeCorrupted)
		return
	}

	if state.Phase == domain.PhaseIdle {
		c.resumeIdleLocked(state)
		return
	}

	if err := c.restoreEventLocked(state); err != nil {
		c.resetLocked("event mismatch", err)
		c.recordResumeMetrics(state.Phase, resumeCorrupted)
		return
	}

	now := c.clock.Now()
	c.state = state
	if !state.HasDeadline() || !state.Deadline.After(now) {
		c.logger.Info("resuming overdue transition",
			"phase", state.Phase,
			"event_id", state.ActiveEventID,
			"deadline", state.Deadline,
		)
		c.recordResumeMetrics(state.Phase, resumeOverdue)
		c.dispatchLocked()
		return
	}

	c.armLocked()
	c.recordResumeMetrics(state.Phase, resumeScheduled)
	c.logger.Info("resumed heist",
		"phase", state.Phase,
		"event_id", state.ActiveEventID,
		"remaining", state.Remaining(now),
	)

	if state.Phase == domain.PhaseVoting {
		deadline := state.Deadline
		c.notifyLocked(domain.Notification{
			Type:          domain.NotifyAnnounce,
			EventID:       state.ActiveEventID,
			TemplateID:    c.pickTemplate(domain.TemplateResume),
			OfferedCrimes: c.offered,
			Deadline:      &deadline,
			Resumed:       true,
		})
	}
}

func (c *Controller) resumeIdleLocked(state domain.EngineState) {
	now := c.clock.Now()
	if n, err := c.heists.AbortActiveEvents(c.ctx, "", now); err != nil {
		c.logger.Warn("failed to abort dangling events", "error", err)
	} else if n > 0 {
		c.logger.Warn("aborted dangling events", "count", n)
	}

	if !state.HasDeadline() {
		state = domain.IdleState(now.Add(c.schedule.NextEventWait()))
		if err := c.states.Save(c.ctx, state); err != nil {
			c.logger.Error("failed to save idle state", "error", err)
		}
	}

	c.state = domain.IdleState(state.Deadline)
	if !state.Deadline.After(now) {
		c.recordResumeMetrics(domain.PhaseIdle, resumeOverdue)
		c.dispatchLocked()
		return
	}

	c.armLocked()
	c.recordResumeMetrics(domain.PhaseIdle, resumeScheduled)
	c.logger.Info("heist engine resumed idle", "next_event_at", state.Deadline)
}

// restoreEventLocked checks the persisted event against the state and reloads
// the offered crimes and votes.
func (c *Controller) restoreEventLocked(state domain.EngineState) error {
	if state.ActiveEventID == "" {
		return fmt.Errorf("%w: %s without event", domain.ErrCorruptedState, state.Phase)
	}

	event, err := c.heists.GetEvent(c.ctx, state.ActiveEventID)
	if err != nil {
		return fmt.Errorf("%w: load event %s: %v", domain.ErrCorruptedState, state.ActiveEventID, err)
	}
	if event.Phase != state.Phase {
		return fmt.Errorf("%w: event %s is %s, state is %s",
			domain.ErrCorruptedState, event.ID, event.Phase, state.Phase)
	}

	offered, err := c.resolveOffered(state.OfferedCrimes)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCorruptedState, err)
	}
	c.offered = offered

	c.votes = make(map[string]string)
	if state.Phase == domain.PhaseVoting {
		votes, err := c.heists.ListVotes(c.ctx, state.ActiveEventID)
		if err != nil {
			return fmt.Errorf("load votes: %w", err)
		}
		for _, v := range votes {
			c.votes[v.Username] = v.Choice
		}
	}
	return nil
}

func (c *Controller) resolveOffered(ids []string) ([]domain.CrimeDefinition, error) {
	offered := make([]domain.CrimeDefinition, 0, len(ids))
	for _, id := range ids {
		crime, ok := c.catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCrime, id)
		}
		offered = append(offered, crime)
	}
	if len(offered) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	return offered, nil
}
