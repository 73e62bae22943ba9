package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/apiflow/internal/testutil"
	"github.com/vnykmshr/apiflow/pkg/breaker"
	"github.com/vnykmshr/apiflow/pkg/common/errors"
	"github.com/vnykmshr/apiflow/pkg/dispatch"
	"github.com/vnykmshr/apiflow/pkg/ratelimit/fixedwindow"
)

// stubSource returns a fixed status snapshot.
type stubSource struct {
	status dispatch.Status
}

func (s *stubSource) Status() dispatch.Status {
	return s.status
}

func testStatus() dispatch.Status {
	return dispatch.Status{
		Read:    fixedwindow.Status{Limit: 400, Remaining: 123},
		Write:   fixedwindow.Status{Limit: 30, Remaining: 30},
		Breaker: breaker.Status{State: breaker.StateClosed},
	}
}

func TestNewSafe(t *testing.T) {
	source := &stubSource{status: testStatus()}
	callback := func(Sample) {}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"interval mode", Config{Source: source, OnSample: callback, Interval: time.Second}, false},
		{"cron mode", Config{Source: source, OnSample: callback, Cron: "*/30 * * * * *"}, false},
		{"cron descriptor", Config{Source: source, OnSample: callback, Cron: "@hourly"}, false},
		{"missing source", Config{OnSample: callback, Interval: time.Second}, true},
		{"missing callback", Config{Source: source, Interval: time.Second}, true},
		{"no schedule", Config{Source: source, OnSample: callback}, true},
		{"negative interval", Config{Source: source, OnSample: callback, Interval: -time.Second}, true},
		{"bad cron expression", Config{Source: source, OnSample: callback, Cron: "not a schedule"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSafe(tt.config)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if !errors.IsValidationError(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			testutil.AssertNoError(t, err)
		})
	}
}

func TestIntervalSampling(t *testing.T) {
	source := &stubSource{status: testStatus()}

	var mu sync.Mutex
	var samples []Sample

	m, err := NewSafe(Config{
		Source:   source,
		Interval: 10 * time.Millisecond,
		OnSample: func(s Sample) {
			mu.Lock()
			samples = append(samples, s)
			mu.Unlock()
		},
	})
	testutil.AssertNoError(t, err)

	m.Start()
	time.Sleep(55 * time.Millisecond)
	m.Stop()

	mu.Lock()
	count := len(samples)
	first := Sample{}
	if count > 0 {
		first = samples[0]
	}
	mu.Unlock()

	if count < 2 {
		t.Fatalf("expected at least 2 samples, got %d", count)
	}
	testutil.AssertEqual(t, first.Status.Read.Remaining, 123)
	testutil.AssertEqual(t, first.Status.Breaker.State, breaker.StateClosed)
	if first.At.IsZero() {
		t.Error("expected sample timestamp to be set")
	}
}

func TestStopHaltsSampling(t *testing.T) {
	source := &stubSource{status: testStatus()}

	var mu sync.Mutex
	count := 0

	m, err := NewSafe(Config{
		Source:   source,
		Interval: 5 * time.Millisecond,
		OnSample: func(Sample) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	testutil.AssertNoError(t, err)

	m.Start()
	time.Sleep(25 * time.Millisecond)
	m.Stop()

	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(25 * time.Millisecond)

	mu.Lock()
	final := count
	mu.Unlock()

	testutil.AssertEqual(t, final, after)
}

func TestStartStopIdempotent(t *testing.T) {
	source := &stubSource{status: testStatus()}

	m, err := NewSafe(Config{
		Source:   source,
		Interval: time.Hour,
		OnSample: func(Sample) {},
	})
	testutil.AssertNoError(t, err)

	// Repeated transitions must not panic or leak goroutines.
	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
	m.Start()
	m.Stop()
}
