package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"projecthub/internal/model"
	pkgconfig "projecthub/pkg/config"
	"projecthub/pkg/otel"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres memory"`
}

type SequenceConfig struct {
	Strategy string `yaml:"strategy" validate:"omitempty,oneof=count redis"`
}

type HealthConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AuthConfig lists e-mail addresses that register with an elevated role.
type AuthConfig struct {
	Approvers []string `yaml:"approvers"`
	Admins    []string `yaml:"admins"`
}

// Roles flattens the lists into an e-mail to role map. Admin wins over approver.
func (a AuthConfig) Roles() map[string]model.Role {
	roles := make(map[string]model.Role, len(a.Approvers)+len(a.Admins))
	for _, email := range a.Approvers {
		roles[strings.ToLower(strings.TrimSpace(email))] = model.RoleApprover
	}
	for _, email := range a.Admins {
		roles[strings.ToLower(strings.TrimSpace(email))] = model.RoleAdmin
	}
	return roles
}

type WorkerConfig struct {
	Queue           string        `yaml:"queue"`
	DedupTTL        time.Duration `yaml:"dedup_ttl"`
	OutboxInterval  time.Duration `yaml:"outbox_interval"`
	OutboxBatchSize int           `yaml:"outbox_batch_size"`
	OutboxRetries   int           `yaml:"outbox_max_retries"`
}

type Config struct {
	Storage  StorageConfig           `yaml:"storage"`
	DB       pkgconfig.DBConfig      `yaml:"db"`
	MQ       pkgconfig.MQConfig      `yaml:"mq"`
	Redis    pkgconfig.RedisConfig   `yaml:"redis"`
	JWT      pkgconfig.JWTConfig     `yaml:"jwt"`
	Server   pkgconfig.ServerConfig  `yaml:"server"`
	TextGen  pkgconfig.TextGenConfig `yaml:"textgen"`
	SMTP     pkgconfig.SMTPConfig    `yaml:"smtp"`
	Otel     otel.Config             `yaml:"otel"`
	Sequence SequenceConfig          `yaml:"sequence"`
	Health   HealthConfig            `yaml:"health"`
	Auth     AuthConfig              `yaml:"auth"`
	Worker   WorkerConfig            `yaml:"worker"`
}

// Load reads config/base.yaml merged with config/<CONFIG_ENV>.yaml, applies environment
// overrides and validates the result.
func Load() (*Config, error) {
	return LoadFrom(pkgconfig.GetConfigEnv(), pkgconfig.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	var cfg Config
	if err := pkgconfig.LoadInto(env, dir, &cfg); err != nil {
		return nil, err
	}
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideTextGenFromEnv(&cfg.TextGen)
	pkgconfig.OverrideSMTPFromEnv(&cfg.SMTP)
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Health.CacheTTL <= 0 {
		cfg.Health.CacheTTL = 5 * time.Minute
	}
	if cfg.Worker.Queue == "" {
		cfg.Worker.Queue = "notification.requested.q"
	}
	if cfg.Worker.DedupTTL <= 0 {
		cfg.Worker.DedupTTL = 24 * time.Hour
	}
	if cfg.Otel.ServiceName == "" {
		cfg.Otel.ServiceName = "projecthub"
	}
}

// Validate checks struct tags. Database settings are only required for the postgres driver.
func (c *Config) Validate() error {
	v := validator.New()
	var err error
	if c.Storage.Driver == DriverMemory {
		err = v.StructExcept(c, "DB")
	} else {
		err = v.Struct(c)
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Sequence.Strategy == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: sequence strategy redis needs redis.addr")
	}
	return nil
}
