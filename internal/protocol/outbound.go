package protocol

import (
	"encoding/json"
	"time"

	"github.com/tickerhub/relay/internal/model"
)

// Outbound message kinds.
const (
	KindMarketData          = "market_data"
	KindSentimentUpdate     = "sentiment_update"
	KindNewsAlert           = "news_alert"
	KindTechnicalSignal     = "technical_signal"
	KindRiskAlert           = "risk_alert"
	KindSystem              = "system"
	KindSubscriptionUpdated = "subscription_updated"
	KindPong                = "pong"
	KindError               = "error"
	KindAlert               = "alert"
)

// Alert types carried by gateway broadcasts.
const (
	AlertMarket = "market"
	AlertSystem = "system"
	AlertRisk   = "risk"
)

// Outbound is the envelope for every server-to-client message.
type Outbound struct {
	Kind      string `json:"kind"`
	Symbol    string `json:"symbol,omitempty"`
	AlertType string `json:"alertType,omitempty"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"` // ms since epoch
}

// AlertPayload is the data body of a gateway broadcast.
type AlertPayload struct {
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Encode marshals the message for the wire.
func (m *Outbound) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// NewOutbound builds an envelope of the given kind, stamped now.
func NewOutbound(kind string, data any) *Outbound {
	return &Outbound{
		Kind:      kind,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewMarketData wraps a tick batch.
func NewMarketData(ticks map[string]model.Tick) *Outbound {
	return NewOutbound(KindMarketData, ticks)
}

// NewSubscriptionUpdated carries the full resulting subscription set,
// never a delta, so the client view is reconcilable from the latest
// message alone.
func NewSubscriptionUpdated(symbols []string) *Outbound {
	return NewOutbound(KindSubscriptionUpdated, map[string]any{
		"subscriptions": symbols,
	})
}

// NewSystem builds a system message with the given body.
func NewSystem(data any) *Outbound {
	return NewOutbound(KindSystem, data)
}

// NewWelcome is the first message a new session receives.
func NewWelcome(sessionID string, symbols []string) *Outbound {
	return NewOutbound(KindSystem, map[string]any{
		"message":       "connected",
		"session_id":    sessionID,
		"subscriptions": symbols,
	})
}

// NewPong answers a protocol-level ping.
func NewPong() *Outbound {
	return NewOutbound(KindPong, map[string]any{
		"time": time.Now().UnixMilli(),
	})
}

// NewError reports a request-scoped failure to one session.
func NewError(message string) *Outbound {
	return NewOutbound(KindError, map[string]any{
		"message": message,
	})
}

// NewAlert builds a gateway broadcast envelope.
func NewAlert(alertType, message string, data any) *Outbound {
	now := time.Now().UnixMilli()
	return &Outbound{
		Kind:      KindAlert,
		AlertType: alertType,
		Data: AlertPayload{
			Message:   message,
			Data:      data,
			Timestamp: now,
		},
		Timestamp: now,
	}
}
