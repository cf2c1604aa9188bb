package warehouse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func countingLoad(calls *int32) LoadFunc {
	return func(ctx context.Context) (Table, error) {
		n := atomic.AddInt32(calls, 1)
		return Table{Columns: []string{"N"}, Rows: [][]any{{int64(n)}}}, nil
	}
}

func TestCache_HitWithinTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewCache(10*time.Minute, clock.Now)
	var calls int32

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(context.Background(), "hourly", countingLoad(&calls)); err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		clock.Advance(time.Minute)
	}

	if calls != 1 {
		t.Errorf("Expected 1 load, got %d", calls)
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewCache(10*time.Minute, clock.Now)
	var calls int32

	first, _ := cache.Get(context.Background(), "hourly", countingLoad(&calls))
	clock.Advance(10 * time.Minute)
	second, _ := cache.Get(context.Background(), "hourly", countingLoad(&calls))

	if calls != 2 {
		t.Fatalf("Expected reload after expiry, got %d loads", calls)
	}
	if first.Rows[0][0] == second.Rows[0][0] {
		t.Error("Expected fresh table after expiry")
	}
}

func TestCache_KeysAreIndependent(t *testing.T) {
	cache := NewCache(time.Minute, newFakeClock().Now)
	var calls int32

	_, _ = cache.Get(context.Background(), "hourly", countingLoad(&calls))
	_, _ = cache.Get(context.Background(), "weather", countingLoad(&calls))

	if calls != 2 {
		t.Errorf("Expected one load per key, got %d", calls)
	}
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	cache := NewCache(time.Minute, newFakeClock().Now)
	boom := errors.New("boom")

	_, err := cache.Get(context.Background(), "hourly", func(ctx context.Context) (Table, error) {
		return Table{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected load error, got %v", err)
	}

	var calls int32
	if _, err := cache.Get(context.Background(), "hourly", countingLoad(&calls)); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected retry after failure, got %d loads", calls)
	}
}

func TestCache_ConcurrentMissesShareLoad(t *testing.T) {
	cache := NewCache(time.Minute, newFakeClock().Now)
	var calls int32
	release := make(chan struct{})

	load := func(ctx context.Context) (Table, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return Table{Columns: []string{"N"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), "stations", load); err != nil {
				t.Errorf("Get() error: %v", err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single shared load, got %d", got)
	}
}

func TestNewCache_Defaults(t *testing.T) {
	cache := NewCache(0, nil)
	if cache.TTL() != DefaultCacheTTL {
		t.Errorf("Expected default TTL, got %v", cache.TTL())
	}
}

func TestCache_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	cache := NewCache(time.Minute, newFakeClock().Now)
	started := make(chan struct{})
	release := make(chan struct{})

	load := func(ctx context.Context) (Table, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}
		return Table{Columns: []string{"N"}, Rows: [][]any{{int64(1)}}}, nil
	}

	ctx1, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx1, "hourly", load)
		first <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), "hourly", load)
		second <- err
	}()

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancelled caller to stop waiting, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	if err := <-second; err != nil {
		t.Fatalf("Expected live caller to receive the table, got %v", err)
	}

	var calls int32
	if _, err := cache.Get(context.Background(), "hourly", countingLoad(&calls)); err != nil || calls != 0 {
		t.Errorf("Expected the shared load to be cached, err=%v loads=%d", err, calls)
	}
}
