package marketdata

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tickerhub/relay/internal/model"
)

// tickResponse is the provider's wire format for one symbol.
type tickResponse struct {
	Symbol      string  `json:"symbol"`
	LastPrice   float64 `json:"last_price"`
	Change      float64 `json:"change"`
	ChangePct   float64 `json:"change_pct"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Volume      float64 `json:"volume"`
	UpdatedAtMs int64   `json:"updated_at"`
}

func (t tickResponse) toTick() model.Tick {
	return model.Tick{
		Symbol:       t.Symbol,
		Price:        t.LastPrice,
		Change24h:    t.Change,
		ChangePct24h: t.ChangePct,
		High24h:      t.High,
		Low24h:       t.Low,
		Volume24h:    t.Volume,
		UpdatedAt:    t.UpdatedAtMs,
	}
}

// GetTicks returns current values for the given symbols. Unless force
// is set, cached values newer than the TTL are served without an
// upstream call, and identical concurrent fetches are coalesced into
// one request.
func (c *Client) GetTicks(ctx context.Context, symbols []string, force bool) (map[string]model.Tick, error) {
	if len(symbols) == 0 {
		return map[string]model.Tick{}, nil
	}

	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	if !force {
		if ticks, ok := c.fromCache(sorted); ok {
			return ticks, nil
		}
	}

	key := strings.Join(sorted, ",")
	if force {
		// A forced fetch must not be satisfied by an in-flight
		// unforced one.
		key = "force:" + key
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetchTicks(ctx, sorted)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]model.Tick), nil
}

// fromCache serves all requested symbols from cache iff every one is
// fresh.
func (c *Client) fromCache(symbols []string) (map[string]model.Tick, bool) {
	now := time.Now()

	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	out := make(map[string]model.Tick, len(symbols))
	for _, sym := range symbols {
		entry, ok := c.cache[sym]
		if !ok || now.Sub(entry.fetchedAt) > c.cacheTTL {
			return nil, false
		}
		out[sym] = entry.tick
	}
	return out, true
}

// fetchTicks performs the upstream request and refreshes the cache.
func (c *Client) fetchTicks(ctx context.Context, symbols []string) (map[string]model.Tick, error) {
	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))

	var resp struct {
		Ticks []tickResponse `json:"ticks"`
	}
	if err := c.get(ctx, "/v1/ticks", query, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make(map[string]model.Tick, len(resp.Ticks))

	c.cacheMu.Lock()
	for _, wire := range resp.Ticks {
		tick := wire.toTick()
		out[tick.Symbol] = tick
		c.cache[tick.Symbol] = cachedTick{tick: tick, fetchedAt: now}
	}
	c.cacheMu.Unlock()

	return out, nil
}
