package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HeistConfig struct {
	Env           string `yaml:"env" env:"HEIST_ENV" env-default:"local"`
	HeistDB       `yaml:"heist_db"`
	LogConfig     `yaml:"log_config"`
	KafkaService  `yaml:"kafka-service"`
	HTTPServer    `yaml:"http_server"`
	WebhookConfig `yaml:"webhook"`
	Engine        EngineConfig `yaml:"engine"`
}

type HeistDB struct {
	Dsn            string `yaml:"dsn" env:"HEIST_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"HEIST_MIGRATIONS_PATH"`
}

type LogConfig struct {
	LogLevel   string `yaml:"log_level" env-default:"info"`
	LogFormat  string `yaml:"log_format" env-default:"text"`
	LogOutput  string `yaml:"log_output" env-default:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
}

type KafkaService struct {
	Host        string `yaml:"host" env:"KAFKA_HOST"`
	Port        string `yaml:"port" env:"KAFKA_PORT"`
	ChatTopic   string `yaml:"chat_topic" env-default:"chat-messages"`
	EventsTopic string `yaml:"events_topic" env-default:"heist-events"`
	GroupID     string `yaml:"group_id" env-default:"heist-service"`
}

func (k KafkaService) Enabled() bool {
	return k.Host != ""
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type HTTPServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"8080"`
	// Лимит на POST /chat, 0 - без лимита
	ChatRatePerSecond float64 `yaml:"chat_rate_per_second" env-default:"20"`
	ChatBurst         int     `yaml:"chat_burst" env-default:"40"`
}

type WebhookConfig struct {
	URL     string        `yaml:"url" env:"HEIST_WEBHOOK_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type EngineConfig struct {
	HouseUsername string `yaml:"house_username" env-default:"heistbot"`
	CatalogPath   string `yaml:"catalog_path" env:"HEIST_CATALOG_PATH"`
	OfferedCrimes int    `yaml:"offered_crimes" env-default:"3"`

	Schedule ScheduleConfig `yaml:"schedule"`
	Gate     GateConfig     `yaml:"gate"`
	Payout   PayoutConfig   `yaml:"payout"`
	Trust    TrustConfig    `yaml:"trust"`
}

type ScheduleConfig struct {
	IdleMin       time.Duration `yaml:"idle_min" env-default:"2h"`
	IdleMax       time.Duration `yaml:"idle_max" env-default:"6h"`
	Voting        time.Duration `yaml:"voting" env-default:"3m"`
	CrimeMin      time.Duration `yaml:"crime_min" env-default:"10m"`
	CrimeMax      time.Duration `yaml:"crime_max" env-default:"40m"`
	Cooldown      time.Duration `yaml:"cooldown" env-default:"5m"`
	MaxTimer      time.Duration `yaml:"max_timer" env-default:"24h"`
	PruneInterval time.Duration `yaml:"prune_interval" env-default:"1m"`
}

type GateConfig struct {
	Window      time.Duration `yaml:"window" env-default:"1h"`
	MinUsers    int           `yaml:"min_users" env-default:"2"`
	MinMessages int           `yaml:"min_messages" env-default:"5"`
}

// PayoutConfig fractions are basis points (1/10000).
type PayoutConfig struct {
	OrganizerCutBps       int64 `yaml:"organizer_cut_bps" env-default:"1000"`
	VoterShareBps         int64 `yaml:"voter_share_bps" env-default:"3000"`
	OfflineVoterPenalty   int64 `yaml:"offline_voter_penalty_bps" env-default:"5000"`
	OfflineCrewPenalty    int64 `yaml:"offline_crew_penalty_bps" env-default:"7500"`
	TrustBonusPerPointBps int64 `yaml:"trust_bonus_per_point_bps" env-default:"50"`
	TrustBonusCapBps      int64 `yaml:"trust_bonus_cap_bps" env-default:"5000"`
}

type TrustConfig struct {
	Min              int64 `yaml:"min" env-default:"-100"`
	Max              int64 `yaml:"max" env-default:"100"`
	Initial          int64 `yaml:"initial" env-default:"0"`
	VoteBonus        int64 `yaml:"vote_bonus" env-default:"1"`
	SuccessBonus     int64 `yaml:"success_bonus" env-default:"2"`
	FailurePenalty   int64 `yaml:"failure_penalty" env-default:"-3"`
	SoloSuccessBonus int64 `yaml:"solo_success_bonus" env-default:"5"`
}

// Load reads the YAML file at path, then environment overrides and defaults.
func Load(path string) (*HeistConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg HeistConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *HeistConfig) Validate() error {
	s := c.Engine.Schedule
	if s.IdleMin <= 0 || s.IdleMax < s.IdleMin {
		return fmt.Errorf("invalid idle range [%s, %s]", s.IdleMin, s.IdleMax)
	}
	if s.CrimeMin <= 0 || s.CrimeMax < s.CrimeMin {
		return fmt.Errorf("invalid crime duration range [%s, %s]", s.CrimeMin, s.CrimeMax)
	}
	if s.Voting <= 0 || s.Cooldown <= 0 || s.MaxTimer <= 0 {
		return fmt.Errorf("voting, cooldown and max_timer must be positive")
	}
	if c.Engine.OfferedCrimes <= 0 {
		return fmt.Errorf("offered_crimes must be positive")
	}
	if c.Engine.Trust.Min > c.Engine.Trust.Max {
		return fmt.Errorf("trust min %d above max %d", c.Engine.Trust.Min, c.Engine.Trust.Max)
	}
	p := c.Engine.Payout
	for name, bps := range map[string]int64{
		"organizer_cut_bps":         p.OrganizerCutBps,
		"voter_share_bps":           p.VoterShareBps,
		"offline_voter_penalty_bps": p.OfflineVoterPenalty,
		"offline_crew_penalty_bps":  p.OfflineCrewPenalty,
	} {
		if bps < 0 || bps > 10000 {
			return fmt.Errorf("%s must be within [0, 10000], got %d", name, bps)
		}
	}
	// Share weights are 10000+cap; with payouts up to 1e12 this keeps pool*weight in int64.
	if p.TrustBonusPerPointBps < 0 || p.TrustBonusCapBps < 0 || p.TrustBonusCapBps > maxTrustBonusCapBps {
		return fmt.Errorf("trust bonus must be non-negative with cap within [0, %d], got %d/%d",
			maxTrustBonusCapBps, p.TrustBonusPerPointBps, p.TrustBonusCapBps)
	}
	return nil
}

const maxTrustBonusCapBps = 1_000_000

func MustLoad() *HeistConfig {

	// Processing env config variable and file
	configPath := os.Getenv("HEIST_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("HEIST_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}
