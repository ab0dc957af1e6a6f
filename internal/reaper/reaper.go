package reaper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tickerhub/relay/internal/gateway"
	"github.com/tickerhub/relay/internal/session"
)

// Config holds reaper settings.
type Config struct {
	Interval time.Duration // Sweep cadence (default: 30s)
	Timeout  time.Duration // Liveness timeout (default: 60s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
		Timeout:  60 * time.Second,
	}
}

// Reaper evicts sessions that stopped showing liveness.
type Reaper struct {
	cfg      Config
	registry *session.Registry
	drop     gateway.DropFunc
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	reaped int64
}

// New creates a Reaper. drop is the shared removal-plus-cancellation
// path; eviction never takes a shortcut around it.
func New(cfg Config, registry *session.Registry, drop gateway.DropFunc, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Reaper{
		cfg:      cfg,
		registry: registry,
		drop:     drop,
		logger:   logger,
	}
}

// Start begins the sweep loop.
func (r *Reaper) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.loop()

	r.logger.Info("liveness reaper started",
		"interval", r.cfg.Interval,
		"timeout", r.cfg.Timeout,
	)
	return nil
}

// Stop shuts the sweep loop down.
func (r *Reaper) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("liveness reaper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reaped returns the number of sessions evicted so far.
func (r *Reaper) Reaped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reaped
}

func (r *Reaper) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep runs one eviction pass over a snapshot of the registry.
// Eviction is not reported to the client; by definition the transport
// is presumed unreachable by the time it runs.
func (r *Reaper) Sweep() {
	now := time.Now()

	for _, sess := range r.registry.Snapshot() {
		idle := now.Sub(sess.LastLiveness())
		if idle <= r.cfg.Timeout {
			continue
		}

		r.logger.Info("evicting idle session",
			"session_id", sess.ID,
			"user_id", sess.UserID,
			"idle", idle,
		)
		r.drop(sess.ID, "liveness timeout")

		r.mu.Lock()
		r.reaped++
		r.mu.Unlock()
	}
}
