package heist

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/vote"
)

// OnMessage records chat activity and, while voting is open, tries to read
// the message as a vote. It reports whether a vote was counted.
func (c *Controller) OnMessage(ctx context.Context, username, text string) (bool, error) {
	name := domain.NormalizeUsername(username)
	if name == "" || c.isHouse(name) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.recordActivityLocked(ctx, name)

	if c.state.Phase != domain.PhaseVoting {
		return false, nil
	}

	crimeID, ok := vote.Match(c.offered, text)
	if !ok {
		return false, nil
	}
	// Повторный голос за то же самое ничего не меняет
	if c.votes[name] == crimeID {
		return true, nil
	}

	if _, err := c.ledger.EnsureAccount(ctx, name, c.cfg.InitialTrust); err != nil {
		return false, fmt.Errorf("ensure account: %w", err)
	}
	if err := c.heists.UpsertVote(ctx, &domain.Vote{
		EventID:  c.state.ActiveEventID,
		Username: name,
		Choice:   crimeID,
		VotedAt:  now,
	}); err != nil {
		return false, fmt.Errorf("record vote: %w", err)
	}

	previous, changed := c.votes[name]
	c.votes[name] = crimeID
	c.recordVoteMetrics(crimeID)
	c.logger.Info("vote registered",
		"event_id", c.state.ActiveEventID,
		"username", name,
		"crime", crimeID,
		"previous", previous,
		"changed", changed,
	)

	crime, _ := c.catalog.Get(crimeID)
	c.notifyLocked(domain.Notification{
		Type:       domain.NotifyVoteRegistered,
		EventID:    c.state.ActiveEventID,
		TemplateID: c.pickTemplate(domain.TemplateVote),
		Username:   name,
		Crime:      &crime,
	})
	return true, nil
}

// Votes returns the votes counted so far in the open event.
func (c *Controller) Votes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.votes))
	for k, v := range c.votes {
		out[k] = v
	}
	return out
}
