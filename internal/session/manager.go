// Package session binds server-side login state to a client through a signed
// cookie. The cookie carries only a session id; claims live in a Store.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/metrics"
	"github.com/shrimpsizemoose/gradebook/internal/models"
)

const (
	DefaultCookieName = "gradebook_session"
	DefaultTTL        = 24 * time.Hour
	minSecretLength   = 16
)

type Config struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type Manager struct {
	config Config
	store  Store
	now    func() time.Time
}

// NewManager fixes the signing secret for the life of the process; a
// different secret on the next start invalidates every issued cookie.
func NewManager(config Config, store Store) (*Manager, error) {
	if len(config.Secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if config.CookieName == "" {
		config.CookieName = DefaultCookieName
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &Manager{config: config, store: store, now: time.Now}, nil
}

// Establish replaces whatever session the request carried with a new one
// for identity.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, identity models.Identity) (models.SessionState, error) {
	ctx := r.Context()

	if sid, err := m.sessionID(r); err == nil {
		if err := m.store.Delete(ctx, sid); err != nil {
			logger.Error.Printf("Failed to drop previous session: %v", err)
		}
	}

	sid := uuid.NewString()
	state := models.NewSessionState(identity)
	if err := m.store.Save(ctx, sid, state, m.config.TTL); err != nil {
		return models.SessionState{}, err
	}

	token, err := m.sign(sid)
	if err != nil {
		return models.SessionState{}, err
	}

	m.setCookie(w, token, int(m.config.TTL.Seconds()))
	metrics.SessionsTotal.WithLabelValues("established").Inc()
	return state, nil
}

// Current returns ErrNoSession for a missing, forged, expired or revoked
// session.
func (m *Manager) Current(r *http.Request) (*models.SessionState, error) {
	sid, err := m.sessionID(r)
	if err != nil {
		return nil, ErrNoSession
	}

	state, err := m.store.Load(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.Error.Printf("Failed to load session: %v", err)
		}
		return nil, ErrNoSession
	}
	return state, nil
}

func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	m.setCookie(w, "", -1)

	sid, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	metrics.SessionsTotal.WithLabelValues("cleared").Inc()
	return m.store.Delete(r.Context(), sid)
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return "", ErrNoSession
	}
	return m.parse(cookie.Value)
}

func (m *Manager) sign(sid string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
