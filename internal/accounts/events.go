package accounts

import (
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/metrics"
)

// Source names the tier that answered for an account.
type Source string

const (
	SourceRegistry   Source = "registry"
	SourceFallback   Source = "fallback"
	SourceRelational Source = "relational"
)

// Events receives what the account flows did. Implementations must not block
// and never receive credentials.
type Events interface {
	LoginSucceeded(username string, source Source)
	LoginFailed(username string)
	SignupStored(username string, tier Source)
	ProfileUpdated(username string, tier Source, passwordChanged bool)
	StoreUnavailable(op string, err error)
}

// LogEvents writes events to the process log and prometheus.
type LogEvents struct{}

func (LogEvents) LoginSucceeded(username string, source Source) {
	metrics.AuthAttemptsTotal.WithLabelValues(string(source), "success").Inc()
	logger.Debug.Printf("Login succeeded for %s via %s", username, source)
}

func (LogEvents) LoginFailed(username string) {
	metrics.AuthAttemptsTotal.WithLabelValues("none", "failure").Inc()
	logger.Debug.Printf("Login failed for %s", username)
}

func (LogEvents) SignupStored(username string, tier Source) {
	metrics.SignupsTotal.WithLabelValues(string(tier)).Inc()
	if tier == SourceFallback {
		logger.Info.Printf("Signup for %s stored in the in-memory fallback only; it will not survive a restart", username)
		return
	}
	logger.Info.Printf("Signup for %s stored in %s store", username, tier)
}

func (LogEvents) ProfileUpdated(username string, tier Source, passwordChanged bool) {
	metrics.ProfileUpdatesTotal.WithLabelValues(string(tier), strconv.FormatBool(passwordChanged)).Inc()
	logger.Info.Printf("Profile of %s updated in %s store (password changed: %t)", username, tier, passwordChanged)
}

func (LogEvents) StoreUnavailable(op string, err error) {
	metrics.StoreUnavailableTotal.WithLabelValues(op).Inc()
	logger.Error.Printf("Relational store unavailable during %s: %v", op, err)
}

type NopEvents struct{}

func (NopEvents) LoginSucceeded(string, Source)       {}
func (NopEvents) LoginFailed(string)                  {}
func (NopEvents) SignupStored(string, Source)         {}
func (NopEvents) ProfileUpdated(string, Source, bool) {}
func (NopEvents) StoreUnavailable(string, error)      {}
