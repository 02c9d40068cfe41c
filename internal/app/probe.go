package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/metrics"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ProbeResult struct {
	Up        bool      `json:"up"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// Probe periodically pings the relational store. Request handling never
// consults it; it only feeds the health endpoint and the store gauge.
type Probe struct {
	target    Pinger
	timeout   time.Duration
	scheduler *gocron.Scheduler

	mu      sync.RWMutex
	last    ProbeResult
	pending func() error
}

func NewProbe(target Pinger, interval time.Duration) (*Probe, error) {
	p := &Probe{
		target:    target,
		timeout:   interval / 2,
		scheduler: gocron.NewScheduler(time.UTC),
	}
	if p.timeout <= 0 || p.timeout > 5*time.Second {
		p.timeout = 5 * time.Second
	}

	if _, err := p.scheduler.Every(interval).Do(p.Check); err != nil {
		return nil, fmt.Errorf("failed to schedule store probe: %w", err)
	}
	return p, nil
}

// OnRecover registers fn to run after successful pings until it returns nil
// once.
func (p *Probe) OnRecover(fn func() error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = fn
}

func (p *Probe) Start() {
	p.scheduler.StartAsync()
}

func (p *Probe) Stop() {
	p.scheduler.Stop()
}

// Check pings the target once and records the outcome.
func (p *Probe) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	result := ProbeResult{Up: true, CheckedAt: time.Now().UTC()}
	if err := p.target.Ping(ctx); err != nil {
		result.Up = false
		result.Error = err.Error()
	}

	p.mu.Lock()
	changed := p.last.CheckedAt.IsZero() || p.last.Up != result.Up
	p.last = result
	pending := p.pending
	p.mu.Unlock()

	if result.Up && pending != nil {
		if err := pending(); err != nil {
			logger.Error.Printf("Deferred store setup failed, will retry: %v", err)
		} else {
			p.mu.Lock()
			p.pending = nil
			p.mu.Unlock()
			logger.Info.Println("Deferred store setup finished")
		}
	}

	if result.Up {
		metrics.RelationalStoreUp.Set(1)
		if changed {
			logger.Info.Println("Relational store is reachable")
		}
	} else {
		metrics.RelationalStoreUp.Set(0)
		if changed {
			logger.Error.Printf("Relational store is unreachable: %v", result.Error)
		}
	}
}

func (p *Probe) Last() ProbeResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
