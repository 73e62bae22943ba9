package monitor

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	aferrors "github.com/vnykmshr/apiflow/pkg/common/errors"
	"github.com/vnykmshr/apiflow/pkg/common/validation"
	"github.com/vnykmshr/apiflow/pkg/dispatch"
)

// Source is anything that can report dispatcher guard status. A
// dispatch.Dispatcher satisfies it.
type Source interface {
	Status() dispatch.Status
}

// Sample is one observation of a source.
type Sample struct {
	At     time.Time
	Status dispatch.Status
}

// Monitor periodically samples a Source and hands each snapshot to a
// callback, for feeding health endpoints or logs.
type Monitor interface {
	// Start begins sampling in a background goroutine. Calling Start on
	// a running monitor is a no-op.
	Start()

	// Stop halts sampling and waits for the background goroutine to
	// exit. Calling Stop on a stopped monitor is a no-op.
	Stop()
}

// Config holds configuration options for creating a new Monitor.
type Config struct {
	// Source is the dispatcher (or anything status-shaped) to sample.
	Source Source

	// OnSample receives each snapshot. It is called from the monitor's
	// goroutine, so it must not block for long.
	OnSample func(Sample)

	// Interval is the fixed sampling period. Ignored when Cron is set.
	Interval time.Duration

	// Cron is an optional cron expression with a seconds field, e.g.
	// "*/30 * * * * *" for every 30 seconds or "@hourly". When set it
	// takes precedence over Interval.
	Cron string

	// TimeZone is the location for cron evaluation. Defaults to
	// time.Local.
	TimeZone *time.Location
}

type monitor struct {
	source   Source
	onSample func(Sample)
	interval time.Duration
	schedule cron.Schedule
	timezone *time.Location

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSafe creates a monitor from a Config with validation that returns an
// error instead of panicking.
func NewSafe(config Config) (Monitor, error) {
	if err := validation.ValidateNotNil("monitor", "source", config.Source); err != nil {
		return nil, err
	}
	if config.OnSample == nil {
		return nil, aferrors.NewValidationError("monitor", "onSample", nil, "cannot be nil").
			WithHint("provide a callback to receive samples")
	}

	m := &monitor{
		source:   config.Source,
		onSample: config.OnSample,
		interval: config.Interval,
		timezone: config.TimeZone,
	}
	if m.timezone == nil {
		m.timezone = time.Local
	}

	if config.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		schedule, err := parser.Parse(config.Cron)
		if err != nil {
			return nil, aferrors.NewValidationError("monitor", "cron", config.Cron, "invalid cron expression").
				WithHint("expected six fields with seconds, e.g. */30 * * * * *")
		}
		m.schedule = schedule
	} else if err := validation.ValidatePositiveDuration("monitor", "interval", config.Interval); err != nil {
		return nil, err
	}

	return m, nil
}

// Start begins sampling in a background goroutine.
func (m *monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.done = make(chan struct{})

	m.wg.Add(1)
	if m.schedule != nil {
		go m.runCron(m.done)
	} else {
		go m.runInterval(m.done)
	}
}

// Stop halts sampling and waits for the background goroutine to exit.
func (m *monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *monitor) runInterval(done chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case at := <-ticker.C:
			m.sample(at)
		case <-done:
			return
		}
	}
}

func (m *monitor) runCron(done chan struct{}) {
	defer m.wg.Done()

	for {
		now := time.Now().In(m.timezone)
		next := m.schedule.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case at := <-timer.C:
			m.sample(at)
		case <-done:
			timer.Stop()
			return
		}
	}
}

func (m *monitor) sample(at time.Time) {
	m.onSample(Sample{
		At:     at,
		Status: m.source.Status(),
	})
}
