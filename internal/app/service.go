package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/accounts"
	"github.com/shrimpsizemoose/gradebook/internal/session"
	"github.com/shrimpsizemoose/gradebook/internal/store"
	"github.com/shrimpsizemoose/gradebook/internal/store/memory"
)

type Service struct {
	Config   *Config
	Store    store.RelationalStore
	Accounts *accounts.Service
	Sessions *session.Manager
	Probe    *Probe

	sessionStore session.Store
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewServiceFromConfig(config)
}

// NewServiceFromConfig wires every component. An unreachable database is not
// fatal: the account service degrades to the in-memory fallback.
func NewServiceFromConfig(config *Config) (*Service, error) {
	relational, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	migrateErr := relational.ApplyMigrations(config.Database.MigrationsDir)
	if migrateErr != nil {
		logger.Error.Printf("Failed to apply migrations, retrying once the store is reachable: %v", migrateErr)
	}

	registry, err := accounts.NewRegistry(config.TestAccounts)
	if err != nil {
		relational.Close()
		return nil, fmt.Errorf("failed to init test accounts: %w", err)
	}

	accountService := accounts.NewService(
		registry,
		memory.NewUserStore(),
		relational,
		accounts.NewBcryptHasher(0),
		accounts.LogEvents{},
	)

	ttl, err := config.SessionTTL()
	if err != nil {
		relational.Close()
		return nil, err
	}

	sessionStore, err := newSessionStore(config)
	if err != nil {
		relational.Close()
		return nil, fmt.Errorf("failed to init session store: %w", err)
	}

	sessions, err := session.NewManager(session.Config{
		Secret:     config.Session.Secret,
		CookieName: config.Session.CookieName,
		TTL:        ttl,
		Secure:     !config.Server.Debug,
	}, sessionStore)
	if err != nil {
		relational.Close()
		return nil, fmt.Errorf("failed to init sessions: %w", err)
	}

	probe, err := NewProbe(relational, time.Duration(config.Database.ProbeInterval)*time.Second)
	if err != nil {
		relational.Close()
		return nil, err
	}
	if migrateErr != nil {
		probe.OnRecover(func() error {
			return relational.ApplyMigrations(config.Database.MigrationsDir)
		})
	}

	return &Service{
		Config:       config,
		Store:        relational,
		Accounts:     accountService,
		Sessions:     sessions,
		Probe:        probe,
		sessionStore: sessionStore,
	}, nil
}

func newSessionStore(config *Config) (session.Store, error) {
	if config.Session.RedisURL == "" {
		logger.Info.Println("No redis configured, keeping sessions in memory")
		return session.NewMemoryStore(), nil
	}

	client, err := session.ConnectRedis(context.Background(), config.Session.RedisURL)
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(client, config.Session.KeyTemplate), nil
}

func (s *Service) Close() error {
	var errs []error

	if s.Probe != nil {
		s.Probe.Stop()
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if closer, ok := s.sessionStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sessions: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
