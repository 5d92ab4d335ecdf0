package book

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Level is one price level of the order book.
type Level struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Book is a normalized order book snapshot: bids sorted best (highest)
// first, asks sorted best (lowest) first.
type Book struct {
	PoolID    string    `json:"pool_id"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
	FetchedAt time.Time `json:"fetched_at"`
}

// BestBid returns the highest bid, or false when the side is empty.
func (b *Book) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask, or false when the side is empty.
func (b *Book) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// MidPrice derives a reference price from the book. Both sides present
// yields the midpoint, a one-sided book yields that side's best, and an
// empty book yields the fallback.
func (b *Book) MidPrice(fallback float64) float64 {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	switch {
	case hasBid && hasAsk:
		return (bid.Price + ask.Price) / 2
	case hasBid:
		return bid.Price
	case hasAsk:
		return ask.Price
	default:
		return fallback
	}
}

// Client fetches order book snapshots from the indexer HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// indexerBook is the wire shape. Levels arrive either as [price, quantity]
// pairs or as objects, with numbers sometimes encoded as strings.
type indexerBook struct {
	Bids []json.RawMessage `json:"bids"`
	Asks []json.RawMessage `json:"asks"`
}

// FetchBook retrieves and normalizes the book for a pool.
func (c *Client) FetchBook(ctx context.Context, poolID string) (*Book, error) {
	endpoint := fmt.Sprintf("%s/get_orderbook?pool_id=%s", c.baseURL, url.QueryEscape(poolID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build orderbook request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orderbook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer returned %d for pool %s", resp.StatusCode, poolID)
	}

	var raw indexerBook
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode orderbook: %w", err)
	}

	book := &Book{
		PoolID:    poolID,
		Bids:      normalizeLevels(raw.Bids),
		Asks:      normalizeLevels(raw.Asks),
		FetchedAt: time.Now(),
	}
	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	c.logger.Debug("fetched orderbook",
		zap.String("pool", poolID),
		zap.Int("bids", len(book.Bids)),
		zap.Int("asks", len(book.Asks)),
	)
	return book, nil
}

// normalizeLevels accepts both indexer level encodings and drops anything
// unparseable or non-positive.
func normalizeLevels(raw []json.RawMessage) []Level {
	levels := make([]Level, 0, len(raw))
	for _, msg := range raw {
		if lvl, ok := parseLevel(msg); ok && lvl.Price > 0 && lvl.Quantity > 0 {
			levels = append(levels, lvl)
		}
	}
	return levels
}

func parseLevel(msg json.RawMessage) (Level, bool) {
	var pair []any
	if err := json.Unmarshal(msg, &pair); err == nil {
		if len(pair) < 2 {
			return Level{}, false
		}
		price, ok1 := asFloat(pair[0])
		qty, ok2 := asFloat(pair[1])
		return Level{Price: price, Quantity: qty}, ok1 && ok2
	}

	var obj struct {
		Price    any `json:"price"`
		Quantity any `json:"quantity"`
	}
	if err := json.Unmarshal(msg, &obj); err != nil {
		return Level{}, false
	}
	price, ok1 := asFloat(obj.Price)
	qty, ok2 := asFloat(obj.Quantity)
	return Level{Price: price, Quantity: qty}, ok1 && ok2
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
