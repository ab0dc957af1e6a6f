package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/tickerhub/relay/internal/model"
	"github.com/tickerhub/relay/internal/protocol"
	"github.com/tickerhub/relay/internal/session"
)

// Feed is the external market-data collaborator.
type Feed interface {
	GetTicks(ctx context.Context, symbols []string, force bool) (map[string]model.Tick, error)
}

// Pusher delivers an outbound message to one session.
type Pusher interface {
	Push(id string, msg *protocol.Outbound) error
}

// Config holds scheduler settings.
type Config struct {
	Interval     time.Duration // Tick cadence (default: 30s)
	FetchTimeout time.Duration // Per-fetch timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// Scheduler runs one periodic fetch-and-push task per session.
type Scheduler struct {
	cfg      Config
	registry *session.Registry
	feed     Feed
	pusher   Pusher
	logger   *slog.Logger

	// Session id → task cancel. The concurrent map keeps Schedule and
	// Cancel lock-free with respect to each other and the tick loops.
	tasks cmap.ConcurrentMap[string, context.CancelFunc]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler.
func New(cfg Config, registry *session.Registry, feed Feed, pusher Pusher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	return &Scheduler{
		cfg:      cfg,
		registry: registry,
		feed:     feed,
		pusher:   pusher,
		logger:   logger,
		tasks:    cmap.New[context.CancelFunc](),
	}
}

// Start sets the root context for all per-session tasks.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("streaming scheduler started", "interval", s.cfg.Interval)
	return nil
}

// Stop cancels every task and waits for them to drain.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("streaming scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule arms the periodic task for one session and performs the
// immediate first fetch. Idempotent: a second call for a live task is a
// no-op.
func (s *Scheduler) Schedule(id string) {
	if s.ctx == nil {
		return
	}

	taskCtx, taskCancel := context.WithCancel(s.ctx)
	if !s.tasks.SetIfAbsent(id, taskCancel) {
		taskCancel()
		return
	}

	s.wg.Add(1)
	go s.run(taskCtx, id)
}

// Cancel disarms a session's task. Idempotent: cancelling an absent or
// already-cancelled task is a no-op.
func (s *Scheduler) Cancel(id string) {
	if taskCancel, ok := s.tasks.Pop(id); ok {
		taskCancel()
	}
}

// Active reports whether a task is currently armed for id.
func (s *Scheduler) Active(id string) bool {
	return s.tasks.Has(id)
}

// TaskCount returns the number of armed tasks.
func (s *Scheduler) TaskCount() int {
	return s.tasks.Count()
}

// run is one session's streaming loop.
func (s *Scheduler) run(ctx context.Context, id string) {
	defer s.wg.Done()

	// First push does not wait for the first tick.
	if !s.pushOnce(ctx, id) {
		s.Cancel(id)
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.pushOnce(ctx, id) {
				// Session left the registry without a Cancel reaching
				// us; clean up our own entry.
				s.Cancel(id)
				return
			}
		}
	}
}

// pushOnce fetches current data for the session's current subscription
// set and pushes it. Returns false only when the session no longer
// exists; fetch and send errors keep the schedule alive.
func (s *Scheduler) pushOnce(ctx context.Context, id string) bool {
	symbols, ok := s.registry.Symbols(id)
	if !ok {
		return false
	}
	if len(symbols) == 0 {
		return true
	}

	fetchCtx, fetchCancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer fetchCancel()

	ticks, err := s.feed.GetTicks(fetchCtx, symbols, false)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return true
		}
		s.logger.Warn("streaming fetch failed",
			"session_id", id,
			"symbols", len(symbols),
			"error", err,
		)
		return true
	}

	if err := s.pusher.Push(id, protocol.NewMarketData(ticks)); err != nil {
		// The pusher already dropped the session on a transport
		// failure; the next registry check ends the task.
		s.logger.Debug("streaming push failed", "session_id", id, "error", err)
	}
	return true
}
