package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-heist-service/internal/config"
	"github.com/LavaJover/shvark-heist-service/internal/delivery/chat"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/activity"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/heist"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/outcome"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/payout"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/random"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/scheduler"
)

type UseCases struct {
	Heist      *heist.Controller
	Dispatcher *chat.Dispatcher
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config.Engine

	rng, err := random.New()
	if err != nil {
		return nil, fmt.Errorf("random source: %w", err)
	}

	gate := activity.NewGate(activity.GateConfig{
		Window:      cfg.Gate.Window,
		MinUsers:    cfg.Gate.MinUsers,
		MinMessages: cfg.Gate.MinMessages,
		Ignored:     []string{cfg.HouseUsername},
	})

	controller := heist.NewController(heist.Config{
		House:         cfg.HouseUsername,
		OfferedCrimes: cfg.OfferedCrimes,
		MaxTimer:      cfg.Schedule.MaxTimer,
		InitialTrust:  cfg.Trust.Initial,
	}, heist.Dependencies{
		Heists:      deps.Repositories.HeistRepo,
		States:      deps.Repositories.EngineStateRepo,
		Ledger:      deps.Repositories.LedgerRepo,
		Catalog:     deps.Catalog,
		Notifier:    deps.Notifier,
		Transitions: deps.Repositories.TransitionLog,
		Activity:    deps.Repositories.ActivityRepo,
		Gate:        gate,
		Presence:    activity.NewPresence(),
		Scheduler:   scheduler.New(durations(cfg.Schedule), rng),
		Resolver:    outcome.NewResolver(rng),
		Distributor: payout.NewDistributor(payoutRules(cfg), deps.Repositories.LedgerRepo, deps.Logger),
		Clock:       scheduler.SystemClock{},
		Rand:        rng,
		Metrics:     deps.Metrics,
		Logger:      deps.Logger,
	})

	return &UseCases{
		Heist:      controller,
		Dispatcher: chat.NewDispatcher(controller, deps.Logger),
	}, nil
}

func durations(s config.ScheduleConfig) scheduler.Durations {
	return scheduler.Durations{
		IdleMin:  s.IdleMin,
		IdleMax:  s.IdleMax,
		Voting:   s.Voting,
		CrimeMin: s.CrimeMin,
		CrimeMax: s.CrimeMax,
		Cooldown: s.Cooldown,
	}
}

func payoutRules(cfg config.EngineConfig) payout.Rules {
	return payout.Rules{
		OrganizerCutBps:       cfg.Payout.OrganizerCutBps,
		VoterShareBps:         cfg.Payout.VoterShareBps,
		OfflineVoterPenalty:   cfg.Payout.OfflineVoterPenalty,
		OfflineCrewPenalty:    cfg.Payout.OfflineCrewPenalty,
		TrustBonusPerPointBps: cfg.Payout.TrustBonusPerPointBps,
		TrustBonusCapBps:      cfg.Payout.TrustBonusCapBps,
		TrustMin:              cfg.Trust.Min,
		TrustMax:              cfg.Trust.Max,
		InitialTrust:          cfg.Trust.Initial,
		VoteBonus:             cfg.Trust.VoteBonus,
		SuccessBonus:          cfg.Trust.SuccessBonus,
		FailurePenalty:        cfg.Trust.FailurePenalty,
		SoloSuccessBonus:      cfg.Trust.SoloSuccessBonus,
	}
}
