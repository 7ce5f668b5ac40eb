// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/mailer/resend"
	"github.com/dmitrymomot/outreach/pkg/oauth"
	"github.com/dmitrymomot/outreach/pkg/redis"
	"github.com/dmitrymomot/outreach/pkg/storage"
)

// Config is the complete service configuration.
type Config struct {
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// PanicStackSize bounds the stack logged for a recovered panic; 0 logs none.
	PanicStackSize int `env:"PANIC_STACK_SIZE" envDefault:"4096"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string `env:"JWT_ISSUER"`

	SendPacing      time.Duration `env:"SEND_PACING" envDefault:"1s"`
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"30s"`
	SendLockTTL     time.Duration `env:"SEND_LOCK_TTL" envDefault:"2h"`
	StatsCacheTTL   time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`

	CompletionSweepSchedule string `env:"COMPLETION_SWEEP_SCHEDULE" envDefault:"*/15 * * * *"`
	JobWorkers              int    `env:"JOB_WORKERS" envDefault:"2"`

	DB        db.Config
	Redis     redis.Config
	Log       logger.Config
	Relay     resend.Config
	Google    oauth.GoogleConfig
	Microsoft oauth.MicrosoftConfig
	Reports   storage.Config
}

// Load reads a .env file when present, then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.PanicStackSize < 0 {
		errs = append(errs, errors.New("PANIC_STACK_SIZE must not be negative"))
	}
	if c.SendPacing < 0 {
		errs = append(errs, errors.New("SEND_PACING must not be negative"))
	}
	if c.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("DELIVERY_TIMEOUT must be positive"))
	}
	if c.SendLockTTL <= 0 {
		errs = append(errs, errors.New("SEND_LOCK_TTL must be positive"))
	}
	if c.JobWorkers < 1 {
		errs = append(errs, errors.New("JOB_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}
