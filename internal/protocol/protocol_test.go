package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/tickerhub/relay/internal/model"
)

func TestParseInbound_Subscribe(t *testing.T) {
	msg, err := ParseInbound([]byte(`{"kind":"subscribe","symbols":["ADAUSDT","XRPUSDT"]}`))
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if msg.Kind != KindSubscribe {
		t.Errorf("Kind = %q, want subscribe", msg.Kind)
	}
	if !reflect.DeepEqual(msg.Symbols, []string{"ADAUSDT", "XRPUSDT"}) {
		t.Errorf("Symbols = %v", msg.Symbols)
	}
}

func TestParseInbound_Ping(t *testing.T) {
	msg, err := ParseInbound([]byte(`{"kind":"ping"}`))
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if msg.Kind != KindPing {
		t.Errorf("Kind = %q, want ping", msg.Kind)
	}
}

func TestParseInbound_RequestData(t *testing.T) {
	raw := []byte(`{"kind":"request_data","dataType":"market_data","params":{"symbols":["BTCUSDT"],"force":true,"limit":25}}`)
	msg, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}

	if msg.DataType != DataMarketData {
		t.Errorf("DataType = %q, want market_data", msg.DataType)
	}
	if symbols, ok := msg.ParamStrings("symbols"); !ok || len(symbols) != 1 || symbols[0] != "BTCUSDT" {
		t.Errorf("ParamStrings(symbols) = %v, %v", symbols, ok)
	}
	if force, ok := msg.ParamBool("force"); !ok || !force {
		t.Errorf("ParamBool(force) = %v, %v", force, ok)
	}
	if limit, ok := msg.ParamInt("limit"); !ok || limit != 25 {
		t.Errorf("ParamInt(limit) = %d, %v", limit, ok)
	}
}

func TestParseInbound_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"not json", `{kind: subscribe`, ErrMalformed},
		{"missing kind", `{"symbols":["BTCUSDT"]}`, ErrMalformed},
		{"numeric kind", `{"kind":7}`, ErrMalformed},
		{"unknown kind", `{"kind":"trade"}`, ErrUnknownKind},
		{"subscribe without symbols", `{"kind":"subscribe"}`, ErrMalformed},
		{"unsubscribe empty symbols", `{"kind":"unsubscribe","symbols":[]}`, ErrMalformed},
		{"request_data without dataType", `{"kind":"request_data"}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInbound([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseInbound error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseInbound_ParamTypeMismatch(t *testing.T) {
	msg, err := ParseInbound([]byte(`{"kind":"request_data","dataType":"bot_activities","params":{"limit":"ten","symbols":[1,2]}}`))
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if _, ok := msg.ParamInt("limit"); ok {
		t.Error("ParamInt accepted a string value")
	}
	if _, ok := msg.ParamStrings("symbols"); ok {
		t.Error("ParamStrings accepted numeric entries")
	}
	if _, ok := msg.ParamBool("missing"); ok {
		t.Error("ParamBool found an absent key")
	}
}

func TestOutbound_Encode(t *testing.T) {
	msg := NewMarketData(map[string]model.Tick{
		"BTCUSDT": {Symbol: "BTCUSDT", Price: 64250.5},
	})

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded struct {
		Kind      string                `json:"kind"`
		Data      map[string]model.Tick `json:"data"`
		Timestamp int64                 `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode round trip: %v", err)
	}
	if decoded.Kind != KindMarketData {
		t.Errorf("kind = %q, want market_data", decoded.Kind)
	}
	if decoded.Data["BTCUSDT"].Price != 64250.5 {
		t.Errorf("price = %v, want 64250.5", decoded.Data["BTCUSDT"].Price)
	}
	if decoded.Timestamp == 0 {
		t.Error("timestamp not set")
	}
}

func TestNewSubscriptionUpdated_FullSet(t *testing.T) {
	msg := NewSubscriptionUpdated([]string{"BTCUSDT", "ETHUSDT"})

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded struct {
		Kind string `json:"kind"`
		Data struct {
			Subscriptions []string `json:"subscriptions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != KindSubscriptionUpdated {
		t.Errorf("kind = %q", decoded.Kind)
	}
	if !reflect.DeepEqual(decoded.Data.Subscriptions, []string{"BTCUSDT", "ETHUSDT"}) {
		t.Errorf("subscriptions = %v", decoded.Data.Subscriptions)
	}
}

func TestNewAlert_Envelope(t *testing.T) {
	msg := NewAlert(AlertRisk, "exposure limit breached", map[string]any{"user": "u1"})

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded struct {
		Kind      string `json:"kind"`
		AlertType string `json:"alertType"`
		Data      struct {
			Message   string `json:"message"`
			Timestamp int64  `json:"timestamp"`
		} `json:"data"`
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != KindAlert || decoded.AlertType != AlertRisk {
		t.Errorf("envelope = %s/%s, want alert/risk", decoded.Kind, decoded.AlertType)
	}
	if decoded.Data.Message != "exposure limit breached" {
		t.Errorf("message = %q", decoded.Data.Message)
	}
	if decoded.Data.Timestamp != decoded.Timestamp {
		t.Errorf("payload timestamp %d != envelope timestamp %d", decoded.Data.Timestamp, decoded.Timestamp)
	}
}
