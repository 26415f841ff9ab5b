// Package breaker implements a three-state circuit breaker guarding calls to
// remote collaborators.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// ErrOpen is returned when the breaker fast-fails without attempting the
// operation.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

type Config struct {
	MaxFailures  int           // consecutive failures before opening
	ResetTimeout time.Duration // time spent open before probing
}

// Breaker trips open after MaxFailures consecutive failures, fast-fails
// while open, and probes before closing again. An optional probe runs ahead
// of the first operation after ResetTimeout elapses.
type Breaker struct {
	name  string
	cfg   Config
	log   *slog.Logger
	probe func(ctx context.Context) error

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

func New(name string, cfg Config, log *slog.Logger, probe func(ctx context.Context) error) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	b := &Breaker{name: name, cfg: cfg, log: log, probe: probe, state: Closed}
	b.log.Info("breaker created", "name", name, "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String())
	return b
}

// Execute runs op under breaker control. While open and inside the reset
// window it returns ErrOpen without invoking op.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			b.log.Warn("breaker fast-fail", "name", b.name, "sinceOpen", time.Since(openedAt).String())
			return ErrOpen
		}
		return b.probeThenOp(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	return err
}

func (b *Breaker) probeThenOp(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	b.mu.Unlock()
	b.log.Info("breaker probing", "name", b.name)

	if b.probe != nil {
		if err := b.probe(ctx); err != nil {
			b.log.Warn("breaker probe failed", "name", b.name, "err", err)
			b.reopen()
			return ErrOpen
		}
	}

	if err := op(ctx); err != nil {
		b.log.Warn("breaker half-open op failed", "name", b.name, "err", err)
		b.reopen()
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.log.Info("breaker closed after probe", "name", b.name)
	return nil
}

func (b *Breaker) reopen() {
	b.mu.Lock()
	b.state = Open
	b.openedAt = time.Now()
	b.recentFails++
	b.mu.Unlock()
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Closed {
		b.log.Info("breaker state to closed", "name", b.name, "from", b.state.String())
	}
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	b.log.Warn("operation failure", "name", b.name, "failures", b.recentFails, "err", err)
	if b.recentFails >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = time.Now()
		b.log.Error("breaker opened", "name", b.name, "maxFailures", b.cfg.MaxFailures)
	}
}

// State reports the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
