package gateway

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tickerhub/relay/internal/protocol"
	"github.com/tickerhub/relay/internal/session"
)

// ErrSessionGone indicates a push to an id no longer in the registry.
var ErrSessionGone = errors.New("session not registered")

// DropFunc removes a session and cancels its scheduler task. The
// composition root supplies the single implementation shared by the
// gateway, reaper and scheduler.
type DropFunc func(sessionID, reason string)

// Gateway pushes encoded messages to sessions.
type Gateway struct {
	registry *session.Registry
	logger   *slog.Logger
	drop     DropFunc
}

// New creates a Gateway. The drop callback is wired later via
// OnSendFailure because the scheduler it cancels through does not exist
// yet when the gateway is built.
func New(registry *session.Registry, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		registry: registry,
		logger:   logger,
	}
}

// OnSendFailure sets the drop callback invoked when a transport write
// fails.
func (g *Gateway) OnSendFailure(drop DropFunc) {
	g.drop = drop
}

// Push sends one message to one session. A transport failure drops the
// session.
func (g *Gateway) Push(id string, msg *protocol.Outbound) error {
	sess, ok := g.registry.Get(id)
	if !ok {
		return ErrSessionGone
	}

	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Kind, err)
	}

	if err := sess.Transport.Send(data); err != nil {
		g.dropSession(id, "send failed")
		return fmt.Errorf("send %s to %s: %w", msg.Kind, id, err)
	}
	return nil
}

// Broadcast sends msg to every session matching filter (nil matches
// all). Failed sessions are dropped; the broadcast continues to the
// rest. Returns the number of successful deliveries.
func (g *Gateway) Broadcast(msg *protocol.Outbound, filter func(*session.Session) bool) int {
	data, err := msg.Encode()
	if err != nil {
		g.logger.Error("broadcast encode failed", "kind", msg.Kind, "error", err)
		return 0
	}

	delivered := 0
	g.registry.ForEach(filter, func(sess *session.Session) {
		if err := sess.Transport.Send(data); err != nil {
			g.logger.Warn("broadcast send failed",
				"session_id", sess.ID,
				"kind", msg.Kind,
				"error", err,
			)
			g.dropSession(sess.ID, "send failed")
			return
		}
		delivered++
	})
	return delivered
}

// BroadcastAlert is the programmatic entry point for other parts of the
// system to push market/system/risk alerts to every session.
func (g *Gateway) BroadcastAlert(alertType, message string, data any) int {
	return g.Broadcast(protocol.NewAlert(alertType, message, data), nil)
}

// BroadcastToUser sends msg to every session owned by userID.
func (g *Gateway) BroadcastToUser(userID string, msg *protocol.Outbound) int {
	return g.Broadcast(msg, func(sess *session.Session) bool {
		return sess.UserID == userID
	})
}

func (g *Gateway) dropSession(id, reason string) {
	if g.drop != nil {
		g.drop(id, reason)
		return
	}
	// No drop path wired yet; fall back to bare removal so a dead
	// transport cannot keep receiving traffic.
	if sess, ok := g.registry.Remove(id); ok {
		sess.Transport.Close()
	}
}
