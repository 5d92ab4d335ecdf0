package pricefeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type scriptedFetcher struct {
	results []fetchResult
	calls   int
}

type fetchResult struct {
	price float64
	err   error
}

func (f *scriptedFetcher) Fetch(ctx context.Context) (float64, error) {
	if f.calls >= len(f.results) {
		last := f.results[len(f.results)-1]
		f.calls++
		return last.price, last.err
	}
	r := f.results[f.calls]
	f.calls++
	return r.price, r.err
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestFeed(fetcher Fetcher) *Feed {
	return NewFeed(fetcher, 2.0, 10*time.Second, &fakeClock{now: time.Unix(1700000000, 0)}, zap.NewNop())
}

func TestFeedSeedsFallbackPrice(t *testing.T) {
	feed := newTestFeed(&scriptedFetcher{results: []fetchResult{{price: 3.14}}})

	q := feed.Quote()
	if q.State != StateLoading {
		t.Errorf("initial state = %s, want loading", q.State)
	}
	if q.Price != 2.0 {
		t.Errorf("initial price = %v, want the 2.0 fallback", q.Price)
	}
}

func TestFeedSuccess(t *testing.T) {
	feed := newTestFeed(&scriptedFetcher{results: []fetchResult{{price: 3.14}}})

	delay := feed.refresh(context.Background())
	q := feed.Quote()
	if q.State != StateLive || q.Price != 3.14 {
		t.Errorf("quote = %+v, want live 3.14", q)
	}
	if q.UpdatedAt.IsZero() {
		t.Error("updated-at should be set on success")
	}
	if delay != 10*time.Second {
		t.Errorf("delay after success = %v, want the poll interval", delay)
	}
}

func TestFeedRetryLadderThenStale(t *testing.T) {
	boom := errors.New("upstream down")
	feed := newTestFeed(&scriptedFetcher{results: []fetchResult{{err: boom}}})
	ctx := context.Background()

	// Three retries with linearly growing backoff, still not stale.
	for i, want := range []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second} {
		if delay := feed.refresh(ctx); delay != want {
			t.Errorf("failure %d: delay = %v, want %v", i+1, delay, want)
		}
		if q := feed.Quote(); q.State != StateLoading {
			t.Errorf("failure %d: state = %s, should still be loading", i+1, q.State)
		}
	}

	// Fourth consecutive failure exhausts the ladder.
	if delay := feed.refresh(ctx); delay != 10*time.Second {
		t.Errorf("post-exhaustion delay = %v, want the poll interval", delay)
	}
	q := feed.Quote()
	if q.State != StateStale {
		t.Errorf("state = %s, want stale", q.State)
	}
	if q.Price != 2.0 {
		t.Errorf("stale quote should keep the last price, got %v", q.Price)
	}
	if q.LastError == "" {
		t.Error("stale quote should carry the error")
	}
}

func TestFeedRecoversAfterFailures(t *testing.T) {
	boom := errors.New("flaky")
	feed := newTestFeed(&scriptedFetcher{results: []fetchResult{
		{err: boom},
		{err: boom},
		{price: 3.5},
	}})
	ctx := context.Background()

	feed.refresh(ctx)
	feed.refresh(ctx)
	feed.refresh(ctx)

	q := feed.Quote()
	if q.State != StateLive || q.Price != 3.5 {
		t.Errorf("quote = %+v, want live 3.5", q)
	}
	if q.LastError != "" {
		t.Errorf("success should clear the error, got %q", q.LastError)
	}

	// The counter reset means a later failure starts the ladder over.
	feed.fetcher = &scriptedFetcher{results: []fetchResult{{err: boom}}}
	if delay := feed.refresh(ctx); delay != 2*time.Second {
		t.Errorf("first failure after recovery: delay = %v, want 2s", delay)
	}
}

func TestFeedRateLimitGoesStaleImmediately(t *testing.T) {
	feed := newTestFeed(&scriptedFetcher{results: []fetchResult{{err: ErrRateLimited}}})

	delay := feed.refresh(context.Background())
	q := feed.Quote()
	if q.State != StateStale {
		t.Errorf("rate limit should skip the retry ladder, state = %s", q.State)
	}
	if delay != 10*time.Second {
		t.Errorf("rate limit should wait a full interval, got %v", delay)
	}
}

func TestFeedWakeCoalesces(t *testing.T) {
	feed := newTestFeed(&scriptedFetcher{results: []fetchResult{{price: 1}}})
	feed.Wake()
	feed.Wake()
	feed.Wake()
	if len(feed.wake) != 1 {
		t.Errorf("wake requests should coalesce to one, got %d pending", len(feed.wake))
	}
}

func TestFeedRunStopsOnCancel(t *testing.T) {
	feed := NewFeed(
		&scriptedFetcher{results: []fetchResult{{price: 3.0}}},
		2.0, time.Hour, blockingClock{}, zap.NewNop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for feed.Quote().State != StateLive {
		select {
		case <-deadline:
			t.Fatal("feed never went live")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

type blockingClock struct{}

func (blockingClock) After(d time.Duration) <-chan time.Time { return make(chan time.Time) }
func (blockingClock) Now() time.Time                         { return time.Now() }
