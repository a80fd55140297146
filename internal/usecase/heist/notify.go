package heist

import (
	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

// notifyLocked delivers n to the notifier. Delivery errors are logged and
// never fail a transition.
func (c *Controller) notifyLocked(n domain.Notification) {
	if c.notifier == nil {
		return
	}
	if n.At.IsZero() {
		n.At = c.clock.Now()
	}
	if err := c.notifier.Notify(c.ctx, n); err != nil {
		c.logger.Error("failed to deliver notification",
			"type", n.Type,
			"event_id", n.EventID,
			"error", err,
		)
	}
}

func (c *Controller) logTransition(eventID string, from, to domain.Phase, reason string) {
	c.logger.Info("heist transition",
		"event_id", eventID,
		"from", from,
		"to", to,
		"reason", reason,
	)
	c.recordTransitionMetrics(from, to)

	if c.transitions == nil {
		return
	}
	if err := c.transitions.LogTransition(c.ctx, domain.TransitionLog{
		EventID: eventID,
		From:    from,
		To:      to,
		Reason:  reason,
		At:      c.clock.Now(),
	}); err != nil {
		c.logger.Warn("failed to write transition log", "event_id", eventID, "error", err)
	}
}
