package fixedwindow

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/apiflow/internal/testutil"
)

func TestNewSafe(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		window  time.Duration
		wantErr bool
	}{
		{"valid parameters", 10, time.Minute, false},
		{"limit of one", 1, time.Second, false},
		{"zero limit", 0, time.Minute, true},
		{"negative limit", -1, time.Minute, true},
		{"zero window", 10, 0, true},
		{"negative window", 10, -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewSafe(tt.limit, tt.window)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for invalid parameters")
				}
				if limiter != nil {
					t.Error("expected nil limiter on error")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				status := limiter.Status()
				testutil.AssertEqual(t, status.Limit, tt.limit)
				testutil.AssertEqual(t, status.Remaining, tt.limit)
			}
		})
	}
}

func TestReserve(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	limiter, err := NewWithConfigSafe(Config{Limit: 3, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	for i := 0; i < 3; i++ {
		outcome := limiter.Reserve()
		if !outcome.Allowed {
			t.Fatalf("reservation %d should be allowed", i+1)
		}
	}

	// Window full: caller gets the wait until the reset, not a silent drop.
	outcome := limiter.Reserve()
	if outcome.Allowed {
		t.Fatal("4th reservation should not be allowed")
	}
	testutil.AssertEqual(t, outcome.Wait, time.Minute)

	// Partway through the window the wait shrinks accordingly.
	clock.Advance(45 * time.Second)
	outcome = limiter.Reserve()
	if outcome.Allowed {
		t.Fatal("reservation should still be denied mid-window")
	}
	testutil.AssertEqual(t, outcome.Wait, 15*time.Second)
}

func TestWindowReset(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	limiter, err := NewWithConfigSafe(Config{Limit: 2, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	limiter.Reserve()
	limiter.Reserve()
	if limiter.Reserve().Allowed {
		t.Fatal("window should be exhausted")
	}

	clock.Advance(time.Minute)

	if !limiter.Reserve().Allowed {
		t.Fatal("reservation should be allowed after window reset")
	}
	status := limiter.Status()
	testutil.AssertEqual(t, status.Remaining, 1)
}

func TestCancel(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	limiter, err := NewWithConfigSafe(Config{Limit: 1, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	if !limiter.Reserve().Allowed {
		t.Fatal("first reservation should be allowed")
	}
	if limiter.Reserve().Allowed {
		t.Fatal("window should be exhausted")
	}

	// An abandoned attempt returns its slot.
	limiter.Cancel()
	if !limiter.Reserve().Allowed {
		t.Fatal("reservation should be allowed after cancel")
	}

	// Cancel on a fresh window must not underflow.
	clock.Advance(time.Minute)
	limiter.Cancel()
	status := limiter.Status()
	testutil.AssertEqual(t, status.Remaining, 1)
}

func TestRecordOverridesLocalCounting(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	limiter, err := NewWithConfigSafe(Config{Limit: 10, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	limiter.Reserve()
	limiter.Reserve()
	testutil.AssertEqual(t, limiter.Status().Remaining, 8)

	// The remote reports less headroom than local counting believed.
	remaining := 3
	limiter.Record(Usage{Remaining: &remaining})
	testutil.AssertEqual(t, limiter.Status().Remaining, 3)

	// Remote-reported limit changes take effect too.
	limit := 20
	remaining = 15
	limiter.Record(Usage{Limit: &limit, Remaining: &remaining})
	status := limiter.Status()
	testutil.AssertEqual(t, status.Limit, 20)
	testutil.AssertEqual(t, status.Remaining, 15)
}

func TestRecordIsIdempotent(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	limiter, err := NewWithConfigSafe(Config{Limit: 10, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	remaining := 4
	limiter.Record(Usage{Remaining: &remaining})
	limiter.Record(Usage{Remaining: &remaining})
	limiter.Record(Usage{Remaining: &remaining})

	// Absolute overrides never accumulate.
	testutil.AssertEqual(t, limiter.Status().Remaining, 4)

	// An empty usage report is a no-op.
	limiter.Record(Usage{})
	testutil.AssertEqual(t, limiter.Status().Remaining, 4)
}

func TestRecordRealignsReset(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := testutil.NewMockClock(start)
	limiter, err := NewWithConfigSafe(Config{Limit: 5, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	// The remote says its window resets 30s from now, not 60s.
	resetAt := start.Add(30 * time.Second)
	limiter.Record(Usage{ResetAt: &resetAt})
	testutil.AssertEqual(t, limiter.Status().ResetAt, resetAt)

	// A reset time in the past is ignored.
	stale := start.Add(-time.Hour)
	limiter.Record(Usage{ResetAt: &stale})
	testutil.AssertEqual(t, limiter.Status().ResetAt, resetAt)
}

func TestRecordClampsRemaining(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	limiter, err := NewWithConfigSafe(Config{Limit: 5, Window: time.Minute, Clock: clock})
	testutil.AssertNoError(t, err)

	// Remaining above the limit clamps to a full window.
	remaining := 99
	limiter.Record(Usage{Remaining: &remaining})
	testutil.AssertEqual(t, limiter.Status().Remaining, 5)

	// Negative remaining clamps to an exhausted window.
	remaining = -3
	limiter.Record(Usage{Remaining: &remaining})
	testutil.AssertEqual(t, limiter.Status().Remaining, 0)
}

// TestConcurrentReservations drives concurrent callers at one window and
// verifies the granted count never exceeds the limit.
func TestConcurrentReservations(t *testing.T) {
	const limit = 50
	limiter, err := NewSafe(limit, time.Hour)
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if limiter.Reserve().Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, allowed, limit)
	testutil.AssertEqual(t, limiter.Status().Remaining, 0)
}
