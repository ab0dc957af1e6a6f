package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Inbound message kinds.
const (
	KindSubscribe   = "subscribe"
	KindUnsubscribe = "unsubscribe"
	KindPing        = "ping"
	KindRequestData = "request_data"
)

// Data types accepted in a request_data frame. Each maps to exactly one
// collaborator call.
const (
	DataMarketData    = "market_data"
	DataBotActivities = "bot_activities"
	DataPerformance   = "performance"
	DataRiskMetrics   = "risk_metrics"
)

var (
	// ErrUnknownKind marks a well-formed frame whose kind the relay
	// does not handle. Such frames are ignored, not failed.
	ErrUnknownKind = errors.New("unknown message kind")

	// ErrMalformed marks a frame that failed decoding or validation.
	ErrMalformed = errors.New("malformed frame")
)

// Inbound is the tagged variant for client frames. Exactly one shape is
// valid per Kind; ParseInbound enforces it.
type Inbound struct {
	Kind     string         `json:"kind"`
	Symbols  []string       `json:"symbols,omitempty"`
	DataType string         `json:"dataType,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// ParseInbound decodes and validates one client frame.
func ParseInbound(raw []byte) (Inbound, error) {
	if !gjson.ValidBytes(raw) {
		return Inbound{}, fmt.Errorf("%w: not valid json", ErrMalformed)
	}

	kind := gjson.GetBytes(raw, "kind")
	if kind.Type != gjson.String {
		return Inbound{}, fmt.Errorf("%w: missing kind", ErrMalformed)
	}

	switch kind.Str {
	case KindSubscribe, KindUnsubscribe, KindPing, KindRequestData:
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind.Str)
	}

	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.Kind {
	case KindSubscribe, KindUnsubscribe:
		if len(msg.Symbols) == 0 {
			return Inbound{}, fmt.Errorf("%w: %s without symbols", ErrMalformed, msg.Kind)
		}
	case KindRequestData:
		if msg.DataType == "" {
			return Inbound{}, fmt.Errorf("%w: request_data without dataType", ErrMalformed)
		}
	}

	return msg, nil
}

// ParamString extracts a string parameter from a request_data frame.
func (m Inbound) ParamString(key string) (string, bool) {
	v, ok := m.Params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ParamInt extracts an integer parameter. JSON numbers decode as
// float64; anything non-integral is rejected.
func (m Inbound) ParamInt(key string) (int, bool) {
	v, ok := m.Params[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// ParamBool extracts a boolean parameter.
func (m Inbound) ParamBool(key string) (bool, bool) {
	v, ok := m.Params[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// ParamStrings extracts a string-array parameter.
func (m Inbound) ParamStrings(key string) ([]string, bool) {
	v, ok := m.Params[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
