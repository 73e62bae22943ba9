package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vnykmshr/apiflow/pkg/backoff"
	"github.com/vnykmshr/apiflow/pkg/breaker"
	apfcontext "github.com/vnykmshr/apiflow/pkg/common/context"
	aferrors "github.com/vnykmshr/apiflow/pkg/common/errors"
	"github.com/vnykmshr/apiflow/pkg/common/validation"
	"github.com/vnykmshr/apiflow/pkg/metrics"
	"github.com/vnykmshr/apiflow/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/apiflow/pkg/ratelimit/fixedwindow"
)

// Defaults applied when the corresponding Config field is zero. The quota
// defaults mirror a typical control-plane API plan: a generous read budget
// and a much tighter write budget per minute.
const (
	DefaultReadLimit        = 400
	DefaultWriteLimit       = 30
	DefaultWindow           = time.Minute
	DefaultMaxAttempts      = 5
	DefaultMaxQuotaWait     = 30 * time.Second
	DefaultAttemptTimeout   = 30 * time.Second
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
)

// Dispatcher executes normalized requests against one remote API, applying
// quota windows, circuit breaking, and retries with backoff. It is safe for
// concurrent use.
type Dispatcher interface {
	// Do executes the request, suspending for quota and backoff waits as
	// needed. It honors ctx cancellation at every suspension point and
	// returns either the final response or an error from the taxonomy in
	// this package.
	Do(ctx context.Context, req Request) (*Response, error)

	// Status returns a read-only snapshot of both quota windows and the
	// circuit breaker for health reporting.
	Status() Status
}

// Status is a read-only snapshot of a dispatcher's guards.
type Status struct {
	Read    fixedwindow.Status
	Write   fixedwindow.Status
	Breaker breaker.Status
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Dispatcher.
type Config struct {
	// BaseURL is the absolute URL all request paths are joined onto.
	BaseURL string

	// Transport executes the HTTP requests. If nil, http.DefaultClient
	// is used.
	Transport Doer

	// Header entries are applied to every request (authorization,
	// accept, user agent). Per-request headers override them by key.
	Header http.Header

	// ReadLimit and WriteLimit are the quota per Window for each
	// operation class. Zero selects the defaults.
	ReadLimit  int
	WriteLimit int

	// Window is the quota window duration shared by both classes.
	Window time.Duration

	// ReadLimiter and WriteLimiter override the built-in in-memory
	// windows, e.g. with a redis-backed shared window. When set, the
	// corresponding limit fields are ignored.
	ReadLimiter  fixedwindow.Limiter
	WriteLimiter fixedwindow.Limiter

	// Breaker overrides the built-in circuit breaker.
	Breaker breaker.Breaker

	// Backoff computes delays between retries. A zero value selects
	// backoff.Default().
	Backoff backoff.Policy

	// MaxAttempts is the total transport attempt budget per request,
	// including the first attempt. Zero selects the default.
	MaxAttempts int

	// MaxQuotaWait is the longest quota wait absorbed silently; a
	// required wait beyond it fails fast with a QuotaWaitError. Zero
	// selects the default; negative rejects any wait.
	MaxQuotaWait time.Duration

	// AttemptTimeout bounds each individual transport attempt. Zero
	// selects the default; negative disables the per-attempt timeout.
	AttemptTimeout time.Duration

	// MaxInflight caps concurrent transport calls. Zero means unlimited.
	MaxInflight int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

type dispatcher struct {
	baseURL        *url.URL
	transport      Doer
	header         http.Header
	read           fixedwindow.Limiter
	write          fixedwindow.Limiter
	breaker        breaker.Breaker
	backoff        backoff.Policy
	maxAttempts    int
	maxQuotaWait   time.Duration
	attemptTimeout time.Duration
	inflight       concurrency.Limiter
	clock          Clock

	registry       *metrics.Registry
	metricsEnabled bool
}

// NewSafe creates a dispatcher for the given base URL with default guards
// and validation that returns an error instead of panicking.
func NewSafe(baseURL string) (Dispatcher, error) {
	return NewWithConfigSafe(Config{BaseURL: baseURL})
}

// NewWithConfigSafe creates a dispatcher from a Config with validation that
// returns an error instead of panicking.
func NewWithConfigSafe(config Config) (Dispatcher, error) {
	d, err := newDispatcher(config)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newDispatcher(config Config) (*dispatcher, error) {
	if err := validation.ValidateNotEmpty("dispatch", "baseURL", config.BaseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, aferrors.NewValidationError("dispatch", "baseURL", config.BaseURL, "base URL must be absolute").
			WithHint("e.g. https://api.example.com/v1")
	}
	if config.MaxAttempts < 0 {
		return nil, aferrors.NewValidationError("dispatch", "maxAttempts", config.MaxAttempts, "max attempts cannot be negative")
	}
	if config.MaxInflight < 0 {
		return nil, aferrors.NewValidationError("dispatch", "maxInflight", config.MaxInflight, "max inflight cannot be negative")
	}

	clock := config.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	window := config.Window
	if window <= 0 {
		window = DefaultWindow
	}

	read := config.ReadLimiter
	if read == nil {
		limit := config.ReadLimit
		if limit == 0 {
			limit = DefaultReadLimit
		}
		read, err = fixedwindow.NewWithConfigSafe(fixedwindow.Config{
			Limit:  limit,
			Window: window,
			Clock:  clock,
		})
		if err != nil {
			return nil, err
		}
	}

	write := config.WriteLimiter
	if write == nil {
		limit := config.WriteLimit
		if limit == 0 {
			limit = DefaultWriteLimit
		}
		write, err = fixedwindow.NewWithConfigSafe(fixedwindow.Config{
			Limit:  limit,
			Window: window,
			Clock:  clock,
		})
		if err != nil {
			return nil, err
		}
	}

	cb := config.Breaker
	if cb == nil {
		cb, err = breaker.NewWithConfigSafe(breaker.Config{
			FailureThreshold: DefaultFailureThreshold,
			RecoveryTimeout:  DefaultRecoveryTimeout,
			Clock:            clock,
		})
		if err != nil {
			return nil, err
		}
	}

	var inflight concurrency.Limiter
	if config.MaxInflight > 0 {
		inflight, err = concurrency.NewSafe(config.MaxInflight)
		if err != nil {
			return nil, err
		}
	}

	policy := config.Backoff
	if policy.Base == 0 && policy.Cap == 0 && policy.HintCap == 0 && policy.Jitter == 0 && policy.Rand == nil {
		policy = backoff.Default()
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	maxQuotaWait := config.MaxQuotaWait
	if maxQuotaWait == 0 {
		maxQuotaWait = DefaultMaxQuotaWait
	}

	attemptTimeout := config.AttemptTimeout
	if attemptTimeout == 0 {
		attemptTimeout = DefaultAttemptTimeout
	}

	transport := config.Transport
	if transport == nil {
		transport = http.DefaultClient
	}

	return &dispatcher{
		baseURL:        base,
		transport:      transport,
		header:         config.Header.Clone(),
		read:           read,
		write:          write,
		breaker:        cb,
		backoff:        policy,
		maxAttempts:    maxAttempts,
		maxQuotaWait:   maxQuotaWait,
		attemptTimeout: attemptTimeout,
		inflight:       inflight,
		clock:          clock,
	}, nil
}

// Do executes the request with quota, breaker, and retry handling.
func (d *dispatcher) Do(ctx context.Context, req Request) (*Response, error) {
	class := ClassifyMethod(req.Method)
	start := time.Now()

	d.observeInflight(class, 1)
	resp, err := d.do(ctx, req, class)
	d.observeInflight(class, -1)
	d.observeRequest(class, time.Since(start), err)

	return resp, err
}

func (d *dispatcher) do(ctx context.Context, req Request, class OperationClass) (*Response, error) {
	limiter := d.limiterFor(class)

	var hint time.Duration
	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			d.observeRetry(class)
			if err := d.wait(ctx, d.backoff.Delay(attempt-1, hint)); err != nil {
				return nil, err
			}
			hint = 0
		}

		if !d.breaker.Allow() {
			return nil, &CircuitOpenError{RetryIn: d.breaker.Status().RetryIn}
		}

		// From here the breaker granted this attempt, possibly as the
		// half-open probe. Every exit that does not resolve it through
		// OnSuccess or OnFailure must surrender it with Cancel, or the
		// probe slot is held forever.
		outcome := limiter.Reserve()
		for !outcome.Allowed {
			if d.maxQuotaWait < 0 || outcome.Wait > d.maxQuotaWait {
				d.breaker.Cancel()
				return nil, &QuotaWaitError{Class: class, Wait: outcome.Wait}
			}
			if err := d.wait(ctx, outcome.Wait); err != nil {
				d.breaker.Cancel()
				return nil, err
			}
			outcome = limiter.Reserve()
		}

		if d.inflight != nil {
			if err := d.inflight.Wait(ctx); err != nil {
				limiter.Cancel()
				d.breaker.Cancel()
				return nil, err
			}
		}

		d.observeAttempt(class)
		resp, err := d.attempt(ctx, req)
		if d.inflight != nil {
			d.inflight.Release()
		}

		if resp != nil {
			limiter.Record(parseUsage(resp.Header, d.clock.Now()))
		}

		if err != nil {
			var callerErr *CallerError
			if errors.As(err, &callerErr) {
				// The request never reached transport; give the slot back.
				limiter.Cancel()
				d.breaker.Cancel()
				return nil, err
			}
			if apfcontext.IsCanceled(ctx) {
				// The caller gave up; not evidence about remote health.
				d.breaker.Cancel()
				return nil, ctx.Err()
			}
			d.breaker.OnFailure()
			lastStatus = 0
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			d.breaker.OnSuccess()
			return resp, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			// Overload is pushback, not breakage. It feeds the breaker
			// only if the retry budget runs out below, so an in-flight
			// probe is surrendered rather than resolved here.
			d.breaker.Cancel()
			hint = parseRetryAfter(resp.Header, d.clock.Now())
			lastStatus = resp.StatusCode
			lastErr = nil

		case resp.StatusCode >= 500:
			d.breaker.OnFailure()
			hint = parseRetryAfter(resp.Header, d.clock.Now())
			lastStatus = resp.StatusCode
			lastErr = nil

		default:
			// The remote answered, so the endpoint is reachable: the
			// fault is in the request, not the infrastructure.
			d.breaker.OnSuccess()
			return nil, &CallerError{StatusCode: resp.StatusCode, Body: resp.Body}
		}
	}

	if lastStatus == http.StatusTooManyRequests {
		d.breaker.OnFailure()
		return nil, &OverloadError{Attempts: d.maxAttempts, RetryAfter: hint}
	}
	return nil, &RemoteError{StatusCode: lastStatus, Attempts: d.maxAttempts, Cause: lastErr}
}

// attempt executes a single transport call under the per-attempt timeout.
func (d *dispatcher) attempt(ctx context.Context, req Request) (*Response, error) {
	actx := ctx
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = apfcontext.WithTimeoutOrCancel(ctx, d.attemptTimeout)
		defer cancel()
	}

	httpReq, err := d.build(actx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := d.transport.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (d *dispatcher) build(ctx context.Context, req Request) (*http.Request, error) {
	target := d.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, &CallerError{Cause: err}
	}

	for key, values := range d.header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	return httpReq, nil
}

// wait suspends for the given delay, honoring ctx cancellation.
func (d *dispatcher) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *dispatcher) limiterFor(class OperationClass) fixedwindow.Limiter {
	if class == ClassWrite {
		return d.write
	}
	return d.read
}

// Status returns a snapshot of both quota windows and the breaker.
func (d *dispatcher) Status() Status {
	return Status{
		Read:    d.read.Status(),
		Write:   d.write.Status(),
		Breaker: d.breaker.Status(),
	}
}
