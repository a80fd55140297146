package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-heist-service/internal/config"
	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/catalog"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/repository"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config       *config.HeistConfig
	DB           *gorm.DB
	Logger       *slog.Logger
	Metrics      *metrics.HeistMetrics
	Catalog      *catalog.Catalog
	Publisher    *kafka.DefaultKafkaPublisher
	Subscriber   *kafka.DefaultKafkaSubscriber
	Notifier     domain.Notifier
	Repositories *Repositories
}

type Repositories struct {
	HeistRepo       *repository.DefaultHeistRepository
	EngineStateRepo *repository.DefaultEngineStateRepository
	LedgerRepo      *repository.DefaultLedgerRepository
	ActivityRepo    *repository.DefaultActivityRepository
	TransitionLog   *logger.PGTransitionLogger
}

func InitializeDependencies(cfg *config.HeistConfig, log *slog.Logger) (*Dependencies, error) {
	db := postgres.MustInitDB(cfg)

	crimes, err := catalog.Load(cfg.Engine.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("crime catalog: %w", err)
	}

	repos := &Repositories{
		HeistRepo:       repository.NewDefaultHeistRepository(db),
		EngineStateRepo: repository.NewDefaultEngineStateRepository(db),
		LedgerRepo:      repository.NewDefaultLedgerRepository(db, log),
		ActivityRepo:    repository.NewDefaultActivityRepository(db),
		TransitionLog:   logger.NewPGTransitionLogger(db),
	}

	deps := &Dependencies{
		Config:       cfg,
		DB:           db,
		Logger:       log,
		Metrics:      metrics.NewHeistMetrics(),
		Catalog:      crimes,
		Repositories: repos,
	}
	deps.Notifier = initNotifier(cfg, deps)

	log.Info("dependencies initialized",
		"crimes", len(crimes.All()),
		"kafka", cfg.KafkaService.Enabled(),
		"webhook", cfg.WebhookConfig.URL != "",
	)
	return deps, nil
}

// initNotifier fans out to every configured sink. With nothing configured
// announcements only show up in the log.
func initNotifier(cfg *config.HeistConfig, deps *Dependencies) domain.Notifier {
	var sinks notifier.FanOut

	if cfg.KafkaService.Enabled() {
		brokers := cfg.KafkaService.Brokers()
		deps.Publisher = kafka.NewDefaultKafkaPublisher(brokers, cfg.KafkaService.EventsTopic)
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(brokers)
		sinks = append(sinks, deps.Publisher)
	}
	if cfg.WebhookConfig.URL != "" {
		sinks = append(sinks, notifier.NewWebhookNotifier(cfg.WebhookConfig.URL, cfg.WebhookConfig.Timeout))
	}
	if len(sinks) == 0 {
		deps.Logger.Warn("no notification sinks configured")
	}
	return sinks
}

// Close releases the kafka clients and the database pool.
func (d *Dependencies) Close() {
	if d.Subscriber != nil {
		d.Subscriber.Close()
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Error("failed to close kafka publisher", "error", err)
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("failed to close db", "error", err)
		}
	}
}
