package accounts

import (
	"context"
	"errors"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// Authenticator resolves credentials against the registry, the fallback
// store and the relational store, in that order. The first tier that knows
// the username is authoritative for it: a wrong password there fails the
// login instead of trying the next tier.
type Authenticator struct {
	registry   *Registry
	fallback   store.UserStore
	relational store.UserStore
	hasher     Hasher
	events     Events
}

func NewAuthenticator(registry *Registry, fallback, relational store.UserStore, hasher Hasher, events Events) *Authenticator {
	return &Authenticator{
		registry:   registry,
		fallback:   fallback,
		relational: relational,
		hasher:     hasher,
		events:     events,
	}
}

func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (models.Identity, error) {
	identity, source, err := a.authenticate(ctx, username, password)
	if err != nil {
		a.events.LoginFailed(username)
		return models.Identity{}, ErrInvalidCredentials
	}
	a.events.LoginSucceeded(username, source)
	return identity, nil
}

func (a *Authenticator) authenticate(ctx context.Context, username, password string) (models.Identity, Source, error) {
	if username == "" || password == "" {
		return models.Identity{}, "", ErrInvalidCredentials
	}

	if identity, known, ok := a.registry.Check(username, password); known {
		if !ok {
			return models.Identity{}, "", ErrInvalidCredentials
		}
		return identity, SourceRegistry, nil
	}

	user, err := a.fallback.FindUser(ctx, username)
	if err == nil {
		return a.verify(user, password, SourceFallback)
	}

	user, err = a.relational.FindUser(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.events.StoreUnavailable("login", err)
		}
		return models.Identity{}, "", ErrInvalidCredentials
	}
	return a.verify(user, password, SourceRelational)
}

func (a *Authenticator) verify(user *models.User, password string, source Source) (models.Identity, Source, error) {
	if !a.hasher.Verify(password, user.PasswordHash) {
		return models.Identity{}, "", ErrInvalidCredentials
	}
	return user.Identity(), source, nil
}
