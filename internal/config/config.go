// Package config handles loading and validating runtime configuration for the Sports Club API.
// Configuration values (like the database credentials and API port) are read from environment
// variables rather than being hardcoded, so the same binary can run in dev, staging and production.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported identity providers.
const (
	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Auth   AuthConfig
	Events EventsConfig
}

// AppConfig covers the HTTP listener and logging.
type AppConfig struct {
	Port      string `envconfig:"PORT" default:"3000"`
	Env       string `envconfig:"ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// DBConfig describes how to reach PostgreSQL. Either URL is set directly, or
// it is assembled from the individual parts (User and Password are required then).
// Driver "sqlite" skips all of that and opens SQLitePath, which is handy for local runs.
type DBConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"` // "postgres" or "sqlite"
	SQLitePath string `envconfig:"SQLITE_PATH" default:"sportsclub.db"`

	URL      string `envconfig:"DATABASE_URL"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASS"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"sportDB"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
}

// AuthConfig selects and configures the identity provider.
//
// FirebaseServiceKey is the base64-encoded service-account JSON. JWTSecret and
// JWTIssuer are only used by the "jwt" provider, which exists for local
// development and tests.
type AuthConfig struct {
	Provider           string `envconfig:"AUTH_PROVIDER" default:"firebase"`
	FirebaseServiceKey string `envconfig:"FB_SERVICE_KEY"`
	JWTSecret          string `envconfig:"JWT_SECRET"`
	JWTIssuer          string `envconfig:"JWT_ISSUER" default:"sports-club"`
}

// EventsConfig configures where domain events are fanned out to. An empty
// RedisURL keeps events in-process only.
type EventsConfig struct {
	RedisURL string `envconfig:"REDIS_URL"`
	Channel  string `envconfig:"EVENTS_CHANNEL" default:"sportsclub.events"`
}

// Load reads configuration from the environment (after loading an optional
// .env file) and validates it.
func Load() (*Config, error) {
	// A missing .env is fine: production sets real environment variables.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureURL(); err != nil {
		return nil, err
	}
	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UsesSQLite reports whether the local sqlite driver was selected.
func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

func (db *DBConfig) ensureURL() error {
	if db.URL != "" || db.UsesSQLite() {
		return nil
	}
	if db.User == "" || db.Password == "" {
		return errors.New("either DATABASE_URL or DB_USER and DB_PASS are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	db.URL = u.String()
	return nil
}

func (a AuthConfig) validate() error {
	switch strings.ToLower(a.Provider) {
	case AuthProviderFirebase:
		if a.FirebaseServiceKey == "" {
			return errors.New("FB_SERVICE_KEY is required when AUTH_PROVIDER=firebase")
		}
	case AuthProviderJWT:
		if a.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", a.Provider)
	}
	return nil
}
