package heist

import (
	"context"
)

func (c *Controller) OnUserJoin(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPresenceLocked(username, true)
}

func (c *Controller) OnUserLeave(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPresenceLocked(username, false)
}

// setPresenceLocked updates the roster and persists only real changes.
func (c *Controller) setPresenceLocked(username string, online bool) {
	var changed bool
	if online {
		changed = c.presence.Join(username)
	} else {
		changed = c.presence.Leave(username)
	}
	if !changed || c.activity == nil {
		return
	}
	if err := c.activity.SetPresence(c.ctx, username, online, c.clock.Now()); err != nil {
		c.logger.Warn("failed to persist presence", "username", username, "online", online, "error", err)
	}
}

// recordActivityLocked counts a chat message in the gate and marks the
// author present. Persistence failures are logged; the message still counts.
func (c *Controller) recordActivityLocked(ctx context.Context, name string) {
	now := c.clock.Now()
	if c.gate.Record(name, now) && c.activity != nil {
		if err := c.activity.RecordMessage(ctx, name, now); err != nil {
			c.logger.Warn("failed to persist chat activity", "username", name, "error", err)
		}
	}
	c.setPresenceLocked(name, true)
}

// restoreActivityLocked reloads the activity window and the roster so a
// settlement after a restart sees the same crew and the same presence.
func (c *Controller) restoreActivityLocked(ctx context.Context) {
	if c.activity == nil {
		return
	}
	now := c.clock.Now()

	messages, err := c.activity.ListMessagesSince(ctx, now.Add(-c.gate.Window()))
	if err != nil {
		c.logger.Error("failed to restore chat activity", "error", err)
	} else {
		c.gate.Restore(messages, now)
	}

	members, err := c.activity.ListPresence(ctx)
	if err != nil {
		c.logger.Error("failed to restore room presence", "error", err)
	} else {
		c.presence.Restore(members)
	}

	users, count := c.gate.Stats(now)
	c.logger.Info("room activity restored", "users", users, "messages", count, "online", c.presence.Count())
}

// PruneActivity drops chat activity that fell out of the gate window.
func (c *Controller) PruneActivity() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	now := c.clock.Now()
	c.gate.Prune(now)
	if c.activity == nil {
		return
	}
	if _, err := c.activity.PruneMessages(ctx, now.Add(-c.gate.Window())); err != nil {
		c.logger.Warn("failed to prune chat activity", "error", err)
	}
}
