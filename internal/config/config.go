// Package config loads process configuration from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hyperlocal/internal/pool"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Startup warns about it.
const DefaultJWTSecret = "default-secret-key-change-in-production"

// ErrMissingDatabaseURL is returned when DATABASE_URL is not configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// Config is built once at startup and not modified afterwards.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	PublicDir   string `yaml:"public_dir"`

	DB   DBConfig   `yaml:"db"`
	OIDC OIDCConfig `yaml:"oidc"`

	// AdminEmail and AdminPassword seed the first admin account when set.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// DBConfig sizes the connection pool.
type DBConfig struct {
	MaxConnections int           `yaml:"max_connections"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

// OIDCConfig enables admin single sign-on when Issuer is set.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	PostLoginURL string `yaml:"post_login_url"`
}

// Enabled reports whether every field needed for the OIDC flow is present.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != "" && o.RedirectURL != ""
}

func defaults() Config {
	return Config{
		JWTSecret: DefaultJWTSecret,
		Host:      "0.0.0.0",
		Port:      8080,
		LogLevel:  "info",
		PublicDir: "public",
		DB: DBConfig{
			MaxConnections: pool.DefaultMaxSize,
			AcquireTimeout: pool.DefaultAcquireTimeout,
			IdleTimeout:    pool.DefaultIdleTimeout,
		},
		OIDC: OIDCConfig{PostLoginURL: "/public/admin/"},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then applies environment variable overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Host, "SERVER_HOST")
	setString(&cfg.LogLevel, "RUST_LOG")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.PublicDir, "PUBLIC_DIR")
	setString(&cfg.AdminEmail, "ADMIN_EMAIL")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")

	setString(&cfg.OIDC.Issuer, "OIDC_ISSUER")
	setString(&cfg.OIDC.ClientID, "OIDC_CLIENT_ID")
	setString(&cfg.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setString(&cfg.OIDC.RedirectURL, "OIDC_REDIRECT_URL")
	setString(&cfg.OIDC.PostLoginURL, "OIDC_POST_LOGIN_URL")

	if err := setInt(&cfg.Port, "SERVER_PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.DB.MaxConnections, "DB_MAX_CONNECTIONS"); err != nil {
		return err
	}
	if err := setDuration(&cfg.DB.AcquireTimeout, "DB_ACQUIRE_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&cfg.DB.IdleTimeout, "DB_IDLE_TIMEOUT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

// setDuration accepts Go durations ("5s") or a bare number of seconds.
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Port)
	}
	if c.DB.MaxConnections <= 0 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be positive, got %d", c.DB.MaxConnections)
	}
	if c.DB.AcquireTimeout <= 0 {
		return fmt.Errorf("DB_ACQUIRE_TIMEOUT must be positive, got %s", c.DB.AcquireTimeout)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}

// UsingDefaultSecret reports whether tokens are signed with the built-in secret.
func (c Config) UsingDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// Addr is the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Pool converts the DB section into the pool configuration.
func (c Config) Pool() pool.Config {
	return pool.Config{
		MaxSize:        c.DB.MaxConnections,
		AcquireTimeout: c.DB.AcquireTimeout,
		IdleTimeout:    c.DB.IdleTimeout,
	}
}
