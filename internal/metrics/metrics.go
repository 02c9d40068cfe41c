// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Login attempts by the store that answered and the outcome",
		},
		[]string{"source", "outcome"},
	)

	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signups_total",
			Help: "Accepted signups by the store that holds the new account",
		},
		[]string{"tier"},
	)

	ProfileUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Profile updates by store and whether the password changed",
		},
		[]string{"tier", "password_changed"},
	)

	StoreUnavailableTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relational_store_unavailable_total",
			Help: "Operations that found the relational store unreachable",
		},
		[]string{"op"},
	)

	RelationalStoreUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relational_store_up",
			Help: "1 if the last availability probe reached the relational store",
		},
	)

	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_total",
			Help: "Session lifecycle events",
		},
		[]string{"event"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
