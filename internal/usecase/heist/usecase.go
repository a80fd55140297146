// Package heist is the state machine that runs heists end to end: gate,
// announce, vote, depart, settle, cool down.
package heist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/activity"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/outcome"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/payout"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/random"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/scheduler"
)

type HeistUsecase interface {
	Start(ctx context.Context) error
	Stop()
	OnMessage(ctx context.Context, username, text string) (bool, error)
	OnUserJoin(username string)
	OnUserLeave(username string)
	State() domain.EngineState
}

type Config struct {
	House         string
	OfferedCrimes int
	MaxTimer      time.Duration
	InitialTrust  int64
}

type Dependencies struct {
	Heists      domain.HeistRepository
	States      domain.EngineStateRepository
	Ledger      domain.LedgerRepository
	Catalog     domain.CrimeCatalog
	Notifier    domain.Notifier
	Transitions domain.TransitionLogger
	// Activity persists the room between restarts. Optional.
	Activity domain.ActivityRepository

	Gate        *activity.Gate
	Presence    *activity.Presence
	Scheduler   *scheduler.Scheduler
	Resolver    *outcome.Resolver
	Distributor *payout.Distributor

	Clock   scheduler.Clock
	Rand    random.Source
	Metrics *metrics.HeistMetrics
	Logger  *slog.Logger
}

// Controller serializes every transition, timer fire and vote behind mu.
type Controller struct {
	cfg Config

	heists      domain.HeistRepository
	states      domain.EngineStateRepository
	ledger      domain.LedgerRepository
	catalog     domain.CrimeCatalog
	notifier    domain.Notifier
	transitions domain.TransitionLogger
	activity    domain.ActivityRepository

	gate        *activity.Gate
	presence    *activity.Presence
	schedule    *scheduler.Scheduler
	resolver    *outcome.Resolver
	distributor *payout.Distributor

	clock   scheduler.Clock
	rng     random.Source
	timer   *scheduler.Timer
	Metrics *metrics.HeistMetrics
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	started bool
	stopped bool
	state   domain.EngineState
	offered []domain.CrimeDefinition
	votes   map[string]string
}

func NewController(cfg Config, deps Dependencies) *Controller {
	if deps.Clock == nil {
		deps.Clock = scheduler.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Presence == nil {
		deps.Presence = activity.NewPresence()
	}
	cfg.House = domain.NormalizeUsername(cfg.House)

	return &Controller{
		cfg:         cfg,
		heists:      deps.Heists,
		states:      deps.States,
		ledger:      deps.Ledger,
		catalog:     deps.Catalog,
		notifier:    deps.Notifier,
		transitions: deps.Transitions,
		activity:    deps.Activity,
		gate:        deps.Gate,
		presence:    deps.Presence,
		schedule:    deps.Scheduler,
		resolver:    deps.Resolver,
		distributor: deps.Distributor,
		clock:       deps.Clock,
		rng:         deps.Rand,
		timer:       scheduler.NewTimer(deps.Clock, cfg.MaxTimer),
		Metrics:     deps.Metrics,
		logger:      deps.Logger.With("component", "heist"),
		ctx:         context.Background(),
		state:       domain.IdleState(time.Time{}),
	}
}

// State returns a copy of the current engine state.
func (c *Controller) State() domain.EngineState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Stop cancels the armed timer. The persisted state is left as is so the next
// Start, on this controller or a new one, resumes from it.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.started = false
	c.timer.Cancel()
	c.logger.Info("heist engine stopped", "phase", c.state.Phase, "deadline", c.state.Deadline)
}

func (c *Controller) isHouse(username string) bool {
	return domain.NormalizeUsername(username) == c.cfg.House
}

var _ HeistUsecase = (*Controller)(nil)
