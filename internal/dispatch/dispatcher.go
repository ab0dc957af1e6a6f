package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tickerhub/relay/internal/model"
	"github.com/tickerhub/relay/internal/protocol"
	"github.com/tickerhub/relay/internal/scheduler"
	"github.com/tickerhub/relay/internal/session"
)

// HistoryStore is the external read-back collaborator for activity and
// performance records.
type HistoryStore interface {
	RecentActivities(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error)
	BotPerformance(ctx context.Context, userID string) ([]model.BotPerformance, error)
	RiskSnapshot(ctx context.Context, userID string) (model.RiskSnapshot, error)
}

// DefaultActivityLimit bounds a bot_activities read-back when the
// client does not ask for a specific limit.
const DefaultActivityLimit = 50

// Config holds dispatcher settings.
type Config struct {
	RequestTimeout time.Duration // Per-collaborator-call timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{RequestTimeout: 10 * time.Second}
}

// Stats contains dispatcher counters.
type Stats struct {
	Received    int64
	Dispatched  int64
	ParseErrors int64
	Ignored     int64
}

// Dispatcher parses inbound frames and routes them.
type Dispatcher struct {
	cfg      Config
	registry *session.Registry
	feed     scheduler.Feed
	history  HistoryStore
	pusher   scheduler.Pusher
	logger   *slog.Logger

	received    atomic.Int64
	dispatched  atomic.Int64
	parseErrors atomic.Int64
	ignored     atomic.Int64
}

// New creates a Dispatcher.
func New(cfg Config, registry *session.Registry, feed scheduler.Feed, history HistoryStore, pusher scheduler.Pusher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Dispatcher{
		cfg:      cfg,
		registry: registry,
		feed:     feed,
		history:  history,
		pusher:   pusher,
		logger:   logger,
	}
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Received:    d.received.Load(),
		Dispatched:  d.dispatched.Load(),
		ParseErrors: d.parseErrors.Load(),
		Ignored:     d.ignored.Load(),
	}
}

// Dispatch handles one raw inbound frame from sessionID. Malformed
// frames are dropped; they never terminate the session.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, raw []byte) {
	d.received.Add(1)

	msg, err := protocol.ParseInbound(raw)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownKind) {
			// Well-formed traffic from a live peer; refresh liveness
			// and move on.
			d.registry.Touch(sessionID)
			d.ignored.Add(1)
			d.logger.Debug("ignoring frame", "session_id", sessionID, "error", err)
			return
		}
		d.parseErrors.Add(1)
		d.logger.Warn("dropping malformed frame", "session_id", sessionID, "error", err)
		return
	}

	// Liveness is inferred from any successfully dispatched frame.
	d.registry.Touch(sessionID)
	d.dispatched.Add(1)

	switch msg.Kind {
	case protocol.KindSubscribe:
		if symbols, ok := d.registry.AddSymbols(sessionID, msg.Symbols); ok {
			d.push(sessionID, protocol.NewSubscriptionUpdated(symbols))
		}
	case protocol.KindUnsubscribe:
		if symbols, ok := d.registry.RemoveSymbols(sessionID, msg.Symbols); ok {
			d.push(sessionID, protocol.NewSubscriptionUpdated(symbols))
		}
	case protocol.KindPing:
		d.push(sessionID, protocol.NewPong())
	case protocol.KindRequestData:
		d.handleRequestData(ctx, sessionID, msg)
	}
}

// handleRequestData maps each dataType to exactly one collaborator
// call. Unknown dataTypes are silently ignored.
func (d *Dispatcher) handleRequestData(ctx context.Context, sessionID string, msg protocol.Inbound) {
	sess, ok := d.registry.Get(sessionID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	var (
		data any
		err  error
	)

	switch msg.DataType {
	case protocol.DataMarketData:
		symbols, hasSymbols := msg.ParamStrings("symbols")
		if !hasSymbols {
			symbols, _ = d.registry.Symbols(sessionID)
		}
		if len(symbols) == 0 {
			return
		}
		force, _ := msg.ParamBool("force")
		data, err = d.feed.GetTicks(callCtx, symbols, force)
	case protocol.DataBotActivities:
		limit, hasLimit := msg.ParamInt("limit")
		if !hasLimit || limit <= 0 {
			limit = DefaultActivityLimit
		}
		data, err = d.history.RecentActivities(callCtx, sess.UserID, limit)
	case protocol.DataPerformance:
		data, err = d.history.BotPerformance(callCtx, sess.UserID)
	case protocol.DataRiskMetrics:
		data, err = d.history.RiskSnapshot(callCtx, sess.UserID)
	default:
		d.ignored.Add(1)
		d.logger.Debug("ignoring request_data",
			"session_id", sessionID,
			"data_type", msg.DataType,
		)
		return
	}

	if err != nil {
		d.logger.Warn("collaborator call failed",
			"session_id", sessionID,
			"data_type", msg.DataType,
			"error", err,
		)
		d.push(sessionID, protocol.NewError("failed to fetch "+msg.DataType))
		return
	}

	d.push(sessionID, responseFor(msg.DataType, data))
}

// responseFor wraps a collaborator result in the outbound kind its
// answer is delivered under.
func responseFor(dataType string, data any) *protocol.Outbound {
	switch dataType {
	case protocol.DataMarketData:
		return protocol.NewOutbound(protocol.KindMarketData, data)
	case protocol.DataRiskMetrics:
		return protocol.NewOutbound(protocol.KindRiskAlert, data)
	default:
		// Read-back payloads (bot activity, performance) travel as
		// system messages tagged with their request type.
		return protocol.NewSystem(map[string]any{
			"type": dataType,
			"data": data,
		})
	}
}

func (d *Dispatcher) push(sessionID string, msg *protocol.Outbound) {
	if err := d.pusher.Push(sessionID, msg); err != nil {
		d.logger.Debug("push failed", "session_id", sessionID, "kind", msg.Kind, "error", err)
	}
}
