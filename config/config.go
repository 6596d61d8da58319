package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	// devSessionSecret signs session cookies outside production when SESSION_SECRET is unset.
	devSessionSecret = "cowabunga_dev_session_secret"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Orders  OrdersConfig
	Session SessionConfig
	Admin   AdminConfig
}

type AppConfig struct {
	Env       string  `envconfig:"APP_ENV" default:"development"`
	Port      string  `envconfig:"PORT" default:"8080"`
	LogLevel  string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string  `envconfig:"LOG_FORMAT" default:"json"`
	TaxRate   float64 `envconfig:"TAX_RATE" default:"0.086"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DB_DSN" default:"pizza.db"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

type OrdersConfig struct {
	// LegacyFile is the flat JSON order log imported once into an empty store.
	LegacyFile string `envconfig:"LEGACY_ORDERS_FILE" default:"data/orders.json"`
	// MirrorFile, when set, receives a best-effort JSON copy of every order after each write.
	MirrorFile string `envconfig:"ORDERS_MIRROR_FILE"`
}

type SessionConfig struct {
	Secret   string        `envconfig:"SESSION_SECRET"`
	TTL      time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	Store    string        `envconfig:"SESSION_STORE" default:"memory"`
	RedisURL string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Secure   bool          `envconfig:"SESSION_COOKIE_SECURE" default:"false"`

	// UsingDevSecret is set by Load when the development fallback secret is in use.
	UsingDevSecret bool `ignored:"true"`
}

type AdminConfig struct {
	Username     string `envconfig:"ADMIN_USERNAME" default:"admin"`
	PasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
}

// LoginEnabled reports whether an admin credential is configured.
func (a AdminConfig) LoginEnabled() bool {
	return strings.TrimSpace(a.PasswordHash) != ""
}

// LoadDotEnv reads .env files when present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.App.TaxRate < 0 {
		return fmt.Errorf("TAX_RATE must not be negative, got %v", c.App.TaxRate)
	}

	switch strings.ToLower(c.DB.Driver) {
	case DriverSQLite, DriverPostgres:
		c.DB.Driver = strings.ToLower(c.DB.Driver)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	switch strings.ToLower(c.Session.Store) {
	case SessionStoreMemory, SessionStoreRedis:
		c.Session.Store = strings.ToLower(c.Session.Store)
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if strings.TrimSpace(c.Session.Secret) == "" {
		if c.App.IsProd() {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		c.Session.Secret = devSessionSecret
		c.Session.UsingDevSecret = true
	}
	return nil
}
