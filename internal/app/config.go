package app

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/accounts"
	"github.com/shrimpsizemoose/gradebook/internal/session"
)

type Config struct {
	Server struct {
		Port      string `toml:"port" validate:"required"`
		Debug     bool   `toml:"debug"`
		StaticDir string `toml:"static_dir"`
	} `toml:"server"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
		ProbeInterval int    `toml:"probe_interval" validate:"gte=0"`
	} `toml:"database"`

	Session struct {
		Secret      string `toml:"secret" validate:"required,min=16"`
		CookieName  string `toml:"cookie_name"`
		TTL         string `toml:"ttl"`
		RedisURL    string `toml:"redis_url"`
		KeyTemplate string `toml:"key_template"`
	} `toml:"session"`

	TestAccounts []accounts.TestAccount `toml:"test_accounts" validate:"dive"`
}

// DefaultTestAccounts is used when the config file defines none.
var DefaultTestAccounts = []accounts.TestAccount{
	{ID: 9001, Username: "pushpita", Password: "pushpita123", Email: "pushpita@example.com"},
	{ID: 9002, Username: "admin", Password: "admin123", Email: "admin@example.com"},
	{ID: 9003, Username: "student1", Password: "student@123", Email: "student1@example.com"},
	{ID: 9004, Username: "john", Password: "john@password", Email: "john@example.com"},
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(path, data)
}

func ParseConfig(path string, data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w",
			path,
			err,
		)
	}

	config.applyDefaults()

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if _, err := config.SessionTTL(); err != nil {
		return nil, err
	}

	logger.Debug.Printf("Loaded config with %d test accounts", len(config.TestAccounts))

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Database.DSN == "" {
		c.Database.DSN = "gradebook.db"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "./migrations"
	}
	if c.Database.ProbeInterval == 0 {
		c.Database.ProbeInterval = 30
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "static"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = session.DefaultCookieName
	}
	if len(c.TestAccounts) == 0 {
		c.TestAccounts = append([]accounts.TestAccount(nil), DefaultTestAccounts...)
	}
}

func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Session.TTL == "" {
		return session.DefaultTTL, nil
	}
	ttl, err := time.ParseDuration(c.Session.TTL)
	if err != nil || ttl <= 0 {
		return 0, fmt.Errorf("invalid session ttl %q", c.Session.TTL)
	}
	return ttl, nil
}
