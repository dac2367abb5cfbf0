package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

var ErrPushNotConfigured = errors.New("no push provider configured")

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	AuthDisabled            bool   `env:"AUTH_DISABLED" envDefault:"false"`
	AdminAPIKey             string `env:"ADMIN_API_KEY"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `env:"VAPID_SUBSCRIBER" envDefault:"mailto:support@brrowapp.com"`
	PushDryRun      bool   `env:"PUSH_DRY_RUN" envDefault:"false"`

	Dispatch Dispatch
}

// Dispatch tunes the background notification pipeline.
type Dispatch struct {
	QueueBackend       string        `env:"QUEUE_BACKEND" envDefault:"memory"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisQueueKey      string        `env:"REDIS_QUEUE_KEY" envDefault:"brrow:dispatch"`
	Workers            int           `env:"DISPATCH_WORKERS" envDefault:"4"`
	WorkerBuffer       int           `env:"DISPATCH_WORKER_BUFFER" envDefault:"256"`
	DeviceConcurrency  int           `env:"DISPATCH_DEVICE_CONCURRENCY" envDefault:"8"`
	PushTimeout        time.Duration `env:"PUSH_TIMEOUT" envDefault:"5s"`
	RetryMax           uint64        `env:"RETRY_MAX" envDefault:"3"`
	RetryBaseDelay     time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
	BodyLimit          int           `env:"NOTIFY_BODY_LIMIT" envDefault:"120"`
	CriticalCategories []string      `env:"NOTIFY_CRITICAL_CATEGORIES" envSeparator:","`
	DeviceTTL          time.Duration `env:"DEVICE_TTL" envDefault:"1440h"`
	Retention          time.Duration `env:"DELIVERY_RETENTION" envDefault:"720h"`
	PruneSchedule      string        `env:"PRUNE_SCHEDULE" envDefault:"0 4 * * *"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot be fixed by retrying.
func (c *Config) Validate() error {
	if !c.PushDryRun && c.FirebaseProjectID == "" && !c.WebPushEnabled() {
		return fmt.Errorf("%w: set FIREBASE_PROJECT_ID or VAPID keys, or PUSH_DRY_RUN=true", ErrPushNotConfigured)
	}
	if !c.AuthDisabled && c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required unless AUTH_DISABLED=true")
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together")
	}
	switch c.Dispatch.QueueBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", c.Dispatch.QueueBackend)
	}
	if c.Dispatch.Workers <= 0 || c.Dispatch.DeviceConcurrency <= 0 {
		return errors.New("DISPATCH_WORKERS and DISPATCH_DEVICE_CONCURRENCY must be positive")
	}
	if c.Dispatch.BodyLimit <= 0 {
		return errors.New("NOTIFY_BODY_LIMIT must be positive")
	}
	for i, cat := range c.Dispatch.CriticalCategories {
		c.Dispatch.CriticalCategories[i] = strings.TrimSpace(strings.ToLower(cat))
	}
	return nil
}

func (c *Config) WebPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func (c *Config) FCMEnabled() bool {
	return c.FirebaseProjectID != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
