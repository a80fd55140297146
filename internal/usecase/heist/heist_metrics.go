package heist

import (
	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/payout"
)

func (c *Controller) recordTransitionMetrics(from, to domain.Phase) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordTransition(string(from), string(to))
}

func (c *Controller) recordEventStartedMetrics() {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordEventStarted()
}

func (c *Controller) recordGateRejectedMetrics() {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordGateRejected()
}

func (c *Controller) recordVoteMetrics(crimeID string) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordVote(crimeID)
}

// recordSettlementMetrics - вызывается после успешного расчёта
func (c *Controller) recordSettlementMetrics(crimeID string, plan payout.Plan) {
	if c.Metrics == nil {
		return
	}

	c.Metrics.RecordOutcome(crimeID, plan.Success, plan.Solo, plan.Haul)
	c.Metrics.RecordPayout(string(payout.RoleHouse), plan.HouseAmount)
	for _, s := range plan.Shares {
		c.Metrics.RecordPayout(string(s.Role), s.Net)
	}
	c.Metrics.RecordSettlement(plan.ParticipantCount(), plan.HousePenalty, plan.Dust)
}

func (c *Controller) recordErrorMetrics(phase domain.Phase) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordError(string(phase))
}

func (c *Controller) recordResumeMetrics(phase domain.Phase, mode string) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordResume(string(phase), mode)
}

// RefreshRoomMetrics publishes the activity window and presence gauges.
func (c *Controller) RefreshRoomMetrics() {
	if c.Metrics == nil {
		return
	}
	users, _ := c.gate.Stats(c.clock.Now())
	c.Metrics.RecordRoom(users, c.presence.Count())
}
