package heist

import (
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/payout"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/random"
	"github.com/google/uuid"
)

// armLocked arms the timer for the current state. The callback carries the
// state it was armed for so a late fire can be recognised.
func (c *Controller) armLocked() {
	phase := c.state.Phase
	eventID := c.state.ActiveEventID
	deadline := c.state.Deadline

	c.timer.Arm(deadline, func() {
		c.fire(phase, eventID, deadline)
	})
}

func (c *Controller) fire(phase domain.Phase, eventID string, deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if c.state.Phase != phase || c.state.ActiveEventID != eventID || !c.state.Deadline.Equal(deadline) {
		c.logger.Debug("stale timer fire ignored",
			"fired_phase", phase,
			"fired_event_id", eventID,
			"phase", c.state.Phase,
			"event_id", c.state.ActiveEventID,
		)
		return
	}

	c.dispatchLocked()
}

// dispatchLocked runs the handler of the current phase. Any error or panic
// ends in the error transition, so a next action is always scheduled.
func (c *Controller) dispatchLocked() {
	phase := c.state.Phase

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in %s handler: %v", phase, r)
			}
		}()

		switch phase {
		case domain.PhaseIdle:
			err = c.startEventLocked()
		case domain.PhaseVoting:
			err = c.closeVotingLocked()
		case domain.PhaseInProgress:
			err = c.settleLocked()
		case domain.PhaseCooldown:
			err = c.finishCooldownLocked()
		default:
			err = fmt.Errorf("%w: no handler for phase %q", domain.ErrCorruptedState, phase)
		}
	}()

	if err != nil {
		c.recordErrorMetrics(phase)
		c.resetLocked(fmt.Sprintf("%s handler failed", phase), err)
	}
}

// IDLE -> ANNOUNCING -> VOTING
func (c *Controller) startEventLocked() error {
	now := c.clock.Now()

	if !c.gate.Active(now) {
		users, messages := c.gate.Stats(now)
		next := domain.IdleState(now.Add(c.schedule.NextEventWait()))
		if err := c.states.Save(c.ctx, next); err != nil {
			return fmt.Errorf("save idle state: %w", err)
		}
		c.state = next
		c.armLocked()

		c.recordGateRejectedMetrics()
		c.logger.Info("room too quiet for a heist",
			"users", users,
			"messages", messages,
			"next_event_at", next.Deadline,
		)
		return nil
	}

	eventID := uuid.NewString()
	c.logTransition(eventID, domain.PhaseIdle, domain.PhaseAnnouncing, "activity gate passed")

	offered, err := c.pickCrimes()
	if err != nil {
		return err
	}
	ids := make([]string, len(offered))
	for i, crime := range offered {
		ids[i] = crime.ID
	}

	next := domain.EngineState{
		Phase:         domain.PhaseVoting,
		Deadline:      now.Add(c.schedule.VotingDuration()),
		ActiveEventID: eventID,
		OfferedCrimes: ids,
	}
	event := &domain.HeistEvent{
		ID:            eventID,
		Phase:         domain.PhaseVoting,
		OfferedCrimes: ids,
		CreatedAt:     now,
		AnnouncedAt:   &now,
	}
	if err := c.heists.CreateEvent(c.ctx, event, next); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	c.state = next
	c.offered = offered
	c.votes = make(map[string]string)
	c.armLocked()

	c.logTransition(eventID, domain.PhaseAnnouncing, domain.PhaseVoting, "announced")
	c.recordEventStartedMetrics()

	deadline := next.Deadline
	c.notifyLocked(domain.Notification{
		Type:          domain.NotifyAnnounce,
		EventID:       eventID,
		TemplateID:    c.pickTemplate(domain.TemplateAnnounce),
		OfferedCrimes: offered,
		Deadline:      &deadline,
	})
	return nil
}

// VOTING -> IN_PROGRESS
func (c *Controller) closeVotingLocked() error {
	now := c.clock.Now()
	eventID := c.state.ActiveEventID

	votes, err := c.heists.ListVotes(c.ctx, eventID)
	if err != nil {
		return fmt.Errorf("list votes: %w", err)
	}

	decision, err := c.resolver.PickWinner(c.offered, votes)
	if err != nil {
		return err
	}

	crimeID := decision.Crime.ID
	solo := decision.Solo
	voters := len(votes)
	next := domain.EngineState{
		Phase:         domain.PhaseInProgress,
		Deadline:      now.Add(c.schedule.CrimeDuration()),
		ActiveEventID: eventID,
		OfferedCrimes: c.state.OfferedCrimes,
		Solo:          solo,
	}
	transition := domain.EventTransition{
		EventID:          eventID,
		From:             domain.PhaseVoting,
		To:               domain.PhaseInProgress,
		At:               now,
		CrimeID:          &crimeID,
		Solo:             &solo,
		ParticipantCount: &voters,
	}
	if err := c.heists.AdvanceEvent(c.ctx, transition, next); err != nil {
		return fmt.Errorf("advance to in progress: %w", err)
	}

	c.state = next
	c.votes = nil
	c.armLocked()

	reason := "plurality"
	switch {
	case solo:
		reason = "no votes, house goes solo"
	case decision.Tied:
		reason = "tie broken at random"
	}
	c.logTransition(eventID, domain.PhaseVoting, domain.PhaseInProgress, reason)

	kind := domain.TemplateDepart
	if solo {
		kind = domain.TemplateSolo
	}
	crime := decision.Crime
	deadline := next.Deadline
	c.notifyLocked(domain.Notification{
		Type:       domain.NotifyDepart,
		EventID:    eventID,
		TemplateID: c.pickTemplate(kind),
		Crime:      &crime,
		Solo:       solo,
		Deadline:   &deadline,
	})
	return nil
}

// IN_PROGRESS -> DISTRIBUTING -> COOLDOWN
func (c *Controller) settleLocked() error {
	now := c.clock.Now()
	eventID := c.state.ActiveEventID

	event, err := c.heists.GetEvent(c.ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event.CrimeID == nil {
		return fmt.Errorf("%w: event %s has no crime", domain.ErrCorruptedState, eventID)
	}
	crime, ok := c.catalog.Get(*event.CrimeID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCrime, *event.CrimeID)
	}

	c.logTransition(eventID, domain.PhaseInProgress, domain.PhaseDistributing, "crime finished")

	success, haul := c.resolver.Resolve(crime)

	votes, err := c.heists.ListVotes(c.ctx, eventID)
	if err != nil {
		return fmt.Errorf("list votes: %w", err)
	}
	voterNames := make([]string, len(votes))
	for i, v := range votes {
		voterNames[i] = v.Username
	}

	voters, crew, err := c.distributor.Participants(c.ctx, c.cfg.House, voterNames, c.gate.RecentParticipants(now), c.presence)
	if err != nil {
		return err
	}

	plan := c.distributor.Plan(payout.Input{
		EventID: eventID,
		House:   c.cfg.House,
		Haul:    haul,
		Success: success,
		Solo:    c.state.Solo,
		Voters:  voters,
		Crew:    crew,
	})

	participants := plan.ParticipantCount()
	next := domain.EngineState{
		Phase:         domain.PhaseCooldown,
		Deadline:      now.Add(c.schedule.CooldownDuration()),
		ActiveEventID: eventID,
		OfferedCrimes: c.state.OfferedCrimes,
		Solo:          c.state.Solo,
	}
	transition := domain.EventTransition{
		EventID:          eventID,
		From:             domain.PhaseInProgress,
		To:               domain.PhaseCooldown,
		At:               now,
		TotalHaul:        &plan.Haul,
		Success:          &success,
		ParticipantCount: &participants,
	}
	if err := c.distributor.Apply(c.ctx, plan, transition, next); err != nil {
		return err
	}

	c.state = next
	c.armLocked()

	c.logTransition(eventID, domain.PhaseDistributing, domain.PhaseCooldown, "settled")
	c.recordSettlementMetrics(crime.ID, plan)

	kind := domain.TemplateFailure
	if success {
		kind = domain.TemplateSuccess
	}
	c.notifyLocked(domain.Notification{
		Type:       domain.NotifyReturn,
		EventID:    eventID,
		TemplateID: c.pickTemplate(kind),
		Crime:      &crime,
		Solo:       plan.Solo,
		Success:    success,
		Haul:       haul,
	})
	c.notifyLocked(domain.Notification{
		Type:          domain.NotifyPayout,
		EventID:       eventID,
		TemplateID:    c.pickTemplate(domain.TemplatePayout),
		Crime:         &crime,
		Solo:          plan.Solo,
		Success:       success,
		Haul:          haul,
		Distributions: plan.Distributions(),
	})
	c.notifyLocked(domain.Notification{
		Type:       domain.NotifyComment,
		EventID:    eventID,
		TemplateID: c.pickTemplate(domain.TemplateComment),
		Success:    success,
	})
	return nil
}

// COOLDOWN -> IDLE
func (c *Controller) finishCooldownLocked() error {
	now := c.clock.Now()
	eventID := c.state.ActiveEventID

	next := domain.IdleState(now.Add(c.schedule.NextEventWait()))
	transition := domain.EventTransition{
		EventID: eventID,
		From:    domain.PhaseCooldown,
		To:      domain.PhaseCompleted,
		At:      now,
	}
	if err := c.heists.AdvanceEvent(c.ctx, transition, next); err != nil {
		return fmt.Errorf("complete event: %w", err)
	}

	c.state = next
	c.offered = nil
	c.votes = nil
	c.armLocked()

	c.logTransition(eventID, domain.PhaseCooldown, domain.PhaseIdle, "cooldown over")
	c.logger.Info("next heist scheduled", "next_event_at", next.Deadline)
	return nil
}

// resetLocked is the error transition: cancel the timer, abort the event,
// persist IDLE with a fresh wait and re-arm. The timer is re-armed even when
// the store is unreachable.
func (c *Controller) resetLocked(reason string, cause error) {
	c.timer.Cancel()

	now := c.clock.Now()
	from := c.state.Phase
	eventID := c.state.ActiveEventID

	level := c.logger.Error
	if errors.Is(cause, domain.ErrCorruptedState) {
		level = c.logger.Warn
	}
	level("heist reset to idle",
		"reason", reason,
		"phase", from,
		"event_id", eventID,
		"error", cause,
	)

	if n, err := c.heists.AbortActiveEvents(c.ctx, "", now); err != nil {
		c.logger.Error("failed to abort active events", "error", err)
	} else if n > 0 {
		c.logger.Info("aborted active events", "count", n)
	}

	next := domain.IdleState(now.Add(c.schedule.NextEventWait()))
	if err := c.states.Save(c.ctx, next); err != nil {
		c.logger.Error("failed to persist idle state", "error", err)
	}

	c.state = next
	c.offered = nil
	c.votes = nil
	c.armLocked()

	c.logTransition(eventID, from, domain.PhaseIdle, reason)
}

// pickCrimes draws up to OfferedCrimes distinct crimes from the catalog.
func (c *Controller) pickCrimes() ([]domain.CrimeDefinition, error) {
	all := c.catalog.All()
	if len(all) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	random.Shuffle(c.rng, len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})

	n := c.cfg.OfferedCrimes
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	return all[:n], nil
}

func (c *Controller) pickTemplate(kind domain.TemplateKind) string {
	ids := c.catalog.Templates(kind)
	if len(ids) == 0 {
		return ""
	}
	return ids[c.rng.Intn(len(ids))]
}
