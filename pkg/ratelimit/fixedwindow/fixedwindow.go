package fixedwindow

import "time"

// Reserve attempts to consume one slot in the current window.
func (w *window) Reserve() Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.roll(now)

	if w.count < w.limit {
		w.count++
		return Outcome{Allowed: true}
	}

	return Outcome{Wait: w.windowStart.Add(w.duration).Sub(now)}
}

// Cancel returns one granted reservation to the current window.
func (w *window) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.roll(w.clock.Now())
	if w.count > 0 {
		w.count--
	}
}

// Record applies remote-reported usage as an absolute override of local
// counting. Nil fields leave the corresponding state untouched.
func (w *window) Record(usage Usage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.roll(now)

	if usage.Limit != nil && *usage.Limit > 0 {
		w.limit = *usage.Limit
	}
	if usage.ResetAt != nil && usage.ResetAt.After(now) {
		// The remote's window ends at ResetAt; realign ours to it.
		w.windowStart = usage.ResetAt.Add(-w.duration)
	}
	if usage.Remaining != nil {
		count := w.limit - *usage.Remaining
		if count < 0 {
			count = 0
		}
		if count > w.limit {
			count = w.limit
		}
		w.count = count
	}
}

// Status reports the window's limit, remaining slots, and reset time.
func (w *window) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.roll(w.clock.Now())

	remaining := w.limit - w.count
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Limit:     w.limit,
		Remaining: remaining,
		ResetAt:   w.windowStart.Add(w.duration),
	}
}

// roll resets the window when now has crossed its boundary.
// Callers must hold w.mu.
func (w *window) roll(now time.Time) {
	if now.Sub(w.windowStart) >= w.duration {
		w.windowStart = now
		w.count = 0
	}
}
