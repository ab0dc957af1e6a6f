package model

import "time"

// -----------------------------------------------------------------------------
// Feed Types
// -----------------------------------------------------------------------------

// Tick represents the current market data for one symbol.
type Tick struct {
	Symbol       string  `json:"symbol"`         // Feed identifier (e.g., "BTCUSDT")
	Price        float64 `json:"price"`          // Last traded price
	Change24h    float64 `json:"change_24h"`     // Absolute 24-hour change
	ChangePct24h float64 `json:"change_pct_24h"` // Relative 24-hour change (percent)
	High24h      float64 `json:"high_24h"`       // 24-hour high
	Low24h       float64 `json:"low_24h"`        // 24-hour low
	Volume24h    float64 `json:"volume_24h"`     // 24-hour base volume
	UpdatedAt    int64   `json:"updated_at"`     // Provider timestamp (ms since epoch)
}

// -----------------------------------------------------------------------------
// Read-Back Types
// -----------------------------------------------------------------------------

// ActivityRecord represents one executed bot action, read back from the
// history store.
type ActivityRecord struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	BotID      string    `json:"bot_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"` // "buy" or "sell"
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executed_at"`
}

// BotPerformance summarizes one bot's results for a user.
type BotPerformance struct {
	BotID         string    `json:"bot_id"`
	UserID        string    `json:"user_id"`
	TotalTrades   int64     `json:"total_trades"`
	WinRate       float64   `json:"win_rate"` // 0.0 - 1.0
	RealizedPnL   float64   `json:"realized_pnl"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Position represents one open position used in a risk snapshot.
type Position struct {
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	MarkPrice  float64 `json:"mark_price"`
}

// RiskSnapshot is a point-in-time view of a user's exposure, computed
// from open positions at query time.
type RiskSnapshot struct {
	UserID        string     `json:"user_id"`
	GrossExposure float64    `json:"gross_exposure"` // Sum of |quantity * mark|
	NetExposure   float64    `json:"net_exposure"`   // Sum of quantity * mark
	UnrealizedPnL float64    `json:"unrealized_pnl"`
	OpenPositions int        `json:"open_positions"`
	Positions     []Position `json:"positions"`
	ComputedAt    time.Time  `json:"computed_at"`
}
