package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/configparser"
	"github.com/Temutjin2k/taxi-dispatch/pkg/postgres"
	"github.com/Temutjin2k/taxi-dispatch/pkg/redis"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidDriver   = errors.New("database driver must be postgres or memory")
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode     types.ServiceMode
		LogLevel string `env:"LOG_LEVEL" default:"INFO"`

		Database   DatabaseConfig
		RabbitMQ   RabbitMQConfig
		Redis      RedisConfig
		Services   ServicesConfig
		Auth       Auth
		Reconciler ReconcilerConfig
		Assignment AssignmentConfig
		Tariff     TariffConfig
	}

	DatabaseConfig struct {
		Driver   string `env:"DATABASE_DRIVER" default:"postgres"`
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"dispatch_user"`
		Password string `env:"DATABASE_PASSWORD" default:"dispatch_pass"`
		Database string `env:"DATABASE_DATABASE" default:"dispatch_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	// RabbitMQConfig with an empty host disables event publication.
	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	// RedisConfig with an empty address disables the vehicle cache and sweep leases.
	RedisConfig struct {
		Addr            string        `env:"REDIS_ADDR"`
		Password        string        `env:"REDIS_PASSWORD"`
		DB              int           `env:"REDIS_DB" default:"0"`
		DialRetries     int           `env:"REDIS_DIAL_RETRIES" default:"5"`
		VehicleCacheTTL time.Duration `env:"REDIS_VEHICLE_CACHE_TTL" default:"60s"`
	}

	ServicesConfig struct {
		DispatchService   string `env:"SERVICES_DISPATCH_SERVICE" default:"3000"`
		ReconcilerService string `env:"SERVICES_RECONCILER_SERVICE" default:"3001"`
	}

	Auth struct {
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"24h"`
	}

	ReconcilerConfig struct {
		Schedule         string        `env:"RECONCILER_SCHEDULE" default:"@every 5m"`
		StuckBusyCeiling time.Duration `env:"RECONCILER_STUCK_BUSY_CEILING" default:"1h"`
		IdleCeiling      time.Duration `env:"RECONCILER_IDLE_CEILING" default:"4h"`
		WriteAttempts    int           `env:"RECONCILER_WRITE_ATTEMPTS" default:"3"`
		LockTTL          time.Duration `env:"RECONCILER_LOCK_TTL" default:"2m"`
	}

	AssignmentConfig struct {
		MaxTxAttempts int `env:"ASSIGNMENT_MAX_TX_ATTEMPTS" default:"3"`
	}

	TariffConfig struct {
		BaseFare float64 `env:"TARIFF_BASE_FARE" default:"30"`
		PerKm    float64 `env:"TARIFF_PER_KM" default:"10"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c DatabaseConfig) PoolSettings() postgres.PoolSettings {
	return postgres.PoolSettings{
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
	}
}

func (c RabbitMQConfig) Enabled() bool {
	return c.Host != ""
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func (c RedisConfig) ClientConfig() redis.Config {
	return redis.Config{
		Addr:        c.Addr,
		Password:    c.Password,
		DB:          c.DB,
		DialRetries: c.DialRetries,
	}
}

func NewConfig(filepath string) (*Config, error) {
	cfg, err := Load(filepath)
	if err != nil {
		return nil, err
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

// Load reads the YAML file and environment without requiring the mode flag.
func Load(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverMemory {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidDriver, cfg.Database.Driver)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}
