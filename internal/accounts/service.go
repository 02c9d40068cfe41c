// Package accounts holds the signup, login, profile and grades flows over the
// three account tiers: the static test-account registry, the in-process
// fallback store and the relational store.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// PrimaryStore is the long-lived source of truth when it is reachable.
type PrimaryStore interface {
	store.UserStore
	store.GradeStore
}

type Service struct {
	registry   *Registry
	fallback   store.UserStore
	relational PrimaryStore
	auth       *Authenticator
	hasher     Hasher
	events     Events
	validate   *validator.Validate
}

func NewService(registry *Registry, fallback store.UserStore, relational PrimaryStore, hasher Hasher, events Events) *Service {
	if events == nil {
		events = NopEvents{}
	}
	return &Service{
		registry:   registry,
		fallback:   fallback,
		relational: relational,
		auth:       NewAuthenticator(registry, fallback, relational, hasher, events),
		hasher:     hasher,
		events:     events,
		validate:   validator.New(),
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (models.Identity, error) {
	return s.auth.Authenticate(ctx, username, password)
}

// Signup creates an account in the relational store, or in the fallback store
// when the relational one cannot be reached. Both count as success.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (models.Identity, error) {
	if err := s.validateSignup(req); err != nil {
		return models.Identity{}, err
	}

	if s.registry.Has(req.Username) {
		return models.Identity{}, ErrConflict
	}
	if _, err := s.fallback.FindUser(ctx, req.Username); err == nil {
		return models.Identity{}, ErrConflict
	}

	// a name the relational store already holds never falls back, even if
	// the insert below then fails
	_, err := s.relational.FindUser(ctx, req.Username)
	if err == nil {
		return models.Identity{}, ErrConflict
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return models.Identity{}, err
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := user.Validate(); err != nil {
		return models.Identity{}, fmt.Errorf("invalid account record: %w", err)
	}

	err = s.relational.CreateUser(ctx, user)
	switch {
	case err == nil:
		s.events.SignupStored(user.Username, SourceRelational)
		return user.Identity(), nil
	case errors.Is(err, store.ErrUsernameTaken):
		return models.Identity{}, ErrConflict
	}
	s.events.StoreUnavailable("signup", err)

	if err := s.fallback.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return models.Identity{}, ErrConflict
		}
		return models.Identity{}, fmt.Errorf("fallback signup: %w", err)
	}
	s.events.SignupStored(user.Username, SourceFallback)
	return user.Identity(), nil
}

// validateSignup reports the first violation in a fixed order: missing
// fields, short username, short password, mismatched confirmation.
func (s *Service) validateSignup(req models.SignupRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("invalid signup form")
	}

	failed := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return invalid("all fields are required")
		}
		failed[fe.Field()] = fe.Tag()
	}

	switch {
	case failed["Username"] == "min":
		return invalid(fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	case failed["Password"] == "min":
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case failed["ConfirmPassword"] == "eqfield":
		return invalid("passwords do not match")
	case failed["Username"] != "":
		return invalid("username is too long")
	case failed["Email"] != "":
		return invalid("email is too long")
	}
	return invalid("invalid signup form")
}

// UpdateProfile changes the full name and, when NewPassword is set, the
// password of username. A new password requires OldPassword to pass the
// full login flow first; nothing is written before that.
func (s *Service) UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) error {
	if err := s.validate.Struct(upd); err != nil {
		return invalid("full name is too long")
	}

	var newHash string
	if upd.NewPassword != "" {
		if upd.OldPassword == "" {
			return invalid("current password is required to set a new password")
		}
		if _, err := s.auth.Authenticate(ctx, username, upd.OldPassword); err != nil {
			return ErrInvalidCredentials
		}
		if len(upd.NewPassword) < minPasswordLength {
			return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := s.hasher.Hash(upd.NewPassword)
		if err != nil {
			return err
		}
		newHash = hash
	}

	if s.registry.Has(username) {
		return ErrUpdateFailed
	}

	// an empty hash leaves the stored password untouched
	apply := func(user *models.User) {
		user.FullName = upd.FullName
		user.PasswordHash = newHash
	}

	user, err := s.relational.FindUser(ctx, username)
	if err == nil {
		apply(user)
		err = s.relational.UpdateUser(ctx, user)
		if err == nil {
			s.events.ProfileUpdated(username, SourceRelational, newHash != "")
			return nil
		}
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.events.StoreUnavailable("update profile", err)
	}

	user, err = s.fallback.FindUser(ctx, username)
	if err != nil {
		return ErrUpdateFailed
	}
	apply(user)
	if err := s.fallback.UpdateUser(ctx, user); err != nil {
		return ErrUpdateFailed
	}
	s.events.ProfileUpdated(username, SourceFallback, newHash != "")
	return nil
}

// GetProfile resolves username with the same precedence as login.
func (s *Service) GetProfile(ctx context.Context, username string) (models.Profile, error) {
	if a, ok := s.registry.Lookup(username); ok {
		return a.profile(), nil
	}
	if user, err := s.fallback.FindUser(ctx, username); err == nil {
		return user.Profile(), nil
	}
	user, err := s.relational.FindUser(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.events.StoreUnavailable("get profile", err)
		}
		return models.Profile{}, ErrNotFound
	}
	return user.Profile(), nil
}

type GradeStatus string

const (
	GradesOK               GradeStatus = "ok"
	GradesEmpty            GradeStatus = "empty"
	GradesStoreUnavailable GradeStatus = "store_unavailable"
)

// GradeList is never an error: an unreachable store yields no grades and a
// status that says why.
type GradeList struct {
	Grades []models.Grade `json:"grades"`
	Status GradeStatus    `json:"status"`
}

func (s *Service) ListGrades(ctx context.Context, username string) GradeList {
	grades, err := s.relational.ListGrades(ctx, username)
	if err != nil {
		s.events.StoreUnavailable("list grades", err)
		return GradeList{Grades: []models.Grade{}, Status: GradesStoreUnavailable}
	}
	if len(grades) == 0 {
		return GradeList{Grades: []models.Grade{}, Status: GradesEmpty}
	}
	return GradeList{Grades: grades, Status: GradesOK}
}
