package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tickerhub/relay/internal/model"
)

// UserExists reports whether userID refers to a known, active user.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND active)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user %s: %w", userID, err)
	}
	return exists, nil
}

// RecentActivities returns the most recent bot actions for a user,
// newest first.
func (s *Store) RecentActivities(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, bot_id, symbol, side, quantity, price, executed_at
		   FROM bot_activities
		  WHERE user_id = $1
		  ORDER BY executed_at DESC
		  LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activities for %s: %w", userID, err)
	}
	defer rows.Close()

	var records []model.ActivityRecord
	for rows.Next() {
		var rec model.ActivityRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.BotID, &rec.Symbol,
			&rec.Side, &rec.Quantity, &rec.Price, &rec.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read activity rows: %w", err)
	}
	return records, nil
}

// BotPerformance returns per-bot performance summaries for a user.
func (s *Store) BotPerformance(ctx context.Context, userID string) ([]model.BotPerformance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT bot_id, user_id, total_trades, win_rate, realized_pnl, unrealized_pnl, updated_at
		   FROM bot_performance
		  WHERE user_id = $1
		  ORDER BY bot_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query performance for %s: %w", userID, err)
	}
	defer rows.Close()

	var summaries []model.BotPerformance
	for rows.Next() {
		var perf model.BotPerformance
		if err := rows.Scan(
			&perf.BotID, &perf.UserID, &perf.TotalTrades, &perf.WinRate,
			&perf.RealizedPnL, &perf.UnrealizedPnL, &perf.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan performance row: %w", err)
		}
		summaries = append(summaries, perf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read performance rows: %w", err)
	}
	return summaries, nil
}

// RiskSnapshot computes a point-in-time risk view from the user's open
// positions.
func (s *Store) RiskSnapshot(ctx context.Context, userID string) (model.RiskSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT symbol, quantity, entry_price, mark_price
		   FROM positions
		  WHERE user_id = $1 AND quantity <> 0
		  ORDER BY symbol`,
		userID,
	)
	if err != nil {
		return model.RiskSnapshot{}, fmt.Errorf("query positions for %s: %w", userID, err)
	}
	defer rows.Close()

	snap := model.RiskSnapshot{
		UserID:     userID,
		ComputedAt: time.Now(),
	}

	for rows.Next() {
		var pos model.Position
		if err := rows.Scan(&pos.Symbol, &pos.Quantity, &pos.EntryPrice, &pos.MarkPrice); err != nil {
			return model.RiskSnapshot{}, fmt.Errorf("scan position row: %w", err)
		}
		snap.Positions = append(snap.Positions, pos)
		snap.GrossExposure += math.Abs(pos.Quantity * pos.MarkPrice)
		snap.NetExposure += pos.Quantity * pos.MarkPrice
		snap.UnrealizedPnL += pos.Quantity * (pos.MarkPrice - pos.EntryPrice)
	}
	if err := rows.Err(); err != nil {
		return model.RiskSnapshot{}, fmt.Errorf("read position rows: %w", err)
	}

	snap.OpenPositions = len(snap.Positions)
	return snap, nil
}
