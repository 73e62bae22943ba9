// Package backoff computes retry delays for the request dispatcher.
package backoff

import (
	"math/rand"
	"time"
)

// Defaults applied when the corresponding Policy field is zero.
const (
	DefaultBase    = 500 * time.Millisecond
	DefaultCap     = 30 * time.Second
	DefaultHintCap = 60 * time.Second
	DefaultJitter  = 0.2
)

// Policy maps an attempt number and an optional server hint to a wait
// duration. An explicit hint (e.g. a Retry-After header) takes precedence
// over the computed exponential delay, clamped to HintCap so a misbehaving
// server cannot stall callers indefinitely.
type Policy struct {
	// Base is the delay before the first retry (attempt 1).
	Base time.Duration

	// Cap bounds the computed exponential delay.
	Cap time.Duration

	// HintCap bounds server-provided retry hints.
	HintCap time.Duration

	// Jitter randomizes the computed delay by +/- this fraction to avoid
	// synchronized retry storms across concurrent callers. Hints are used
	// verbatim and never jittered.
	Jitter float64

	// Rand returns a value in [0, 1). If nil, math/rand is used.
	Rand func() float64
}

// Default returns the policy used by the dispatcher when none is configured.
func Default() Policy {
	return Policy{
		Base:    DefaultBase,
		Cap:     DefaultCap,
		HintCap: DefaultHintCap,
		Jitter:  DefaultJitter,
	}
}

// Delay returns the wait before the given retry. attempt is 1-indexed: the
// first retry uses the smallest delay. A positive hint wins over the
// computed value.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		if hintCap := p.hintCap(); hint > hintCap {
			return hintCap
		}
		return hint
	}

	if attempt < 1 {
		attempt = 1
	}

	delay := p.base()
	cap := p.computedCap()
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			delay = cap
			break
		}
	}
	if delay > cap {
		delay = cap
	}

	if p.Jitter > 0 {
		f := rand.Float64
		if p.Rand != nil {
			f = p.Rand
		}
		// Scale into [1-Jitter, 1+Jitter).
		scale := 1 + p.Jitter*(2*f()-1)
		delay = time.Duration(float64(delay) * scale)
	}

	return delay
}

func (p Policy) base() time.Duration {
	if p.Base <= 0 {
		return DefaultBase
	}
	return p.Base
}

func (p Policy) computedCap() time.Duration {
	if p.Cap <= 0 {
		return DefaultCap
	}
	return p.Cap
}

func (p Policy) hintCap() time.Duration {
	if p.HintCap <= 0 {
		return DefaultHintCap
	}
	return p.HintCap
}
