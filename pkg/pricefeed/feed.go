package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orlim-labs/orlim-go/pkg/util"
)

// State describes the freshness of the current quote.
type State string

const (
	// StateLoading means no fetch has succeeded yet; the quote holds the
	// configured fallback price.
	StateLoading State = "loading"
	// StateLive means the quote came from the upstream feed.
	StateLive State = "live"
	// StateStale means fetching has given up for now; the quote holds the
	// last known (or fallback) price and must not be trusted for display
	// without a warning.
	StateStale State = "stale"
)

// ErrRateLimited is returned by fetchers when the upstream rejects the
// request with 429. Rate limiting skips the retry ladder entirely; hammering
// a throttled endpoint only extends the ban.
var ErrRateLimited = errors.New("price feed rate limited")

// Fetcher retrieves the current reference price.
type Fetcher interface {
	Fetch(ctx context.Context) (float64, error)
}

// ProxyFetcher pulls the price from the caching proxy endpoint.
type ProxyFetcher struct {
	url    string
	client *http.Client
}

func NewProxyFetcher(url string) *ProxyFetcher {
	return &ProxyFetcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type proxyResponse struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Error     string  `json:"error,omitempty"`
}

func (f *ProxyFetcher) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price endpoint returned %d", resp.StatusCode)
	}

	var body proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}
	if body.Error != "" {
		return 0, fmt.Errorf("price endpoint error: %s", body.Error)
	}
	if body.Price <= 0 {
		return 0, fmt.Errorf("price endpoint returned non-positive price %v", body.Price)
	}
	return body.Price, nil
}

// Quote is the current price snapshot handed to consumers.
type Quote struct {
	Price     float64
	State     State
	UpdatedAt time.Time
	LastError string
}

const (
	maxRetries     = 3
	retryDelayUnit = 2 * time.Second
)

// Feed polls a Fetcher on a fixed interval, retrying transient failures with
// a linear backoff before declaring the quote stale. A rate-limited response
// goes stale immediately. Wake requests an out-of-band refresh, the analog
// of refetching when a backgrounded UI regains focus.
type Feed struct {
	fetcher  Fetcher
	interval time.Duration
	clock    util.Clock
	logger   *zap.Logger

	mu      sync.Mutex
	quote   Quote
	retries int

	wake chan struct{}
}

func NewFeed(fetcher Fetcher, fallbackPrice float64, interval time.Duration, clock util.Clock, logger *zap.Logger) *Feed {
	return &Feed{
		fetcher:  fetcher,
		interval: interval,
		clock:    clock,
		logger:   logger,
		quote: Quote{
			Price: fallbackPrice,
			State: StateLoading,
		},
		wake: make(chan struct{}, 1),
	}
}

// Quote returns the current snapshot.
func (f *Feed) Quote() Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote
}

// Wake requests an immediate refresh. Coalesces: waking an already-woken
// feed is a no-op.
func (f *Feed) Wake() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Run polls until the context is cancelled. The first fetch happens
// immediately.
func (f *Feed) Run(ctx context.Context) {
	for {
		delay := f.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-f.clock.After(delay):
		case <-f.wake:
			f.resetRetries()
		}
	}
}

// refresh performs one fetch attempt and returns the delay until the next.
func (f *Feed) refresh(ctx context.Context) time.Duration {
	price, err := f.fetcher.Fetch(ctx)
	now := f.clock.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		f.quote = Quote{Price: price, State: StateLive, UpdatedAt: now}
		f.retries = 0
		return f.interval
	}

	if errors.Is(err, ErrRateLimited) {
		f.logger.Warn("price feed rate limited, going stale")
		f.quote.State = StateStale
		f.quote.LastError = err.Error()
		f.retries = 0
		return f.interval
	}

	f.retries++
	if f.retries > maxRetries {
		f.logger.Warn("price feed exhausted retries",
			zap.Int("attempts", f.retries),
			zap.Error(err),
		)
		f.quote.State = StateStale
		f.quote.LastError = err.Error()
		f.retries = 0
		return f.interval
	}

	backoff := time.Duration(f.retries) * retryDelayUnit
	f.logger.Debug("price fetch failed, retrying",
		zap.Int("attempt", f.retries),
		zap.Duration("backoff", backoff),
		zap.Error(err),
	)
	return backoff
}

func (f *Feed) resetRetries() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries = 0
}
