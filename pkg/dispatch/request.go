package dispatch

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vnykmshr/apiflow/pkg/ratelimit/fixedwindow"
)

// Request is a normalized outbound API request. The dispatcher owns URL
// assembly, header merging, and transport; callers describe only the call.
type Request struct {
	// Method is the HTTP method. It also decides the operation class.
	Method string

	// Path is joined onto the dispatcher's base URL.
	Path string

	// Query parameters, if any.
	Query url.Values

	// Header entries set here override the dispatcher-level defaults
	// for this request only.
	Header http.Header

	// Body is the raw request payload; nil for bodyless methods.
	Body []byte
}

// Response is a normalized API response with the body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OperationClass partitions requests into quota classes. Remote APIs
// commonly budget reads and writes separately, so each class gets its own
// quota window.
type OperationClass int

const (
	// ClassRead covers methods that do not change remote state.
	ClassRead OperationClass = iota

	// ClassWrite covers everything else.
	ClassWrite
)

// String returns a human-readable class name.
func (c OperationClass) String() string {
	switch c {
	case ClassRead:
		return "read"
	case ClassWrite:
		return "write"
	default:
		return "unknown"
	}
}

// ClassifyMethod maps an HTTP method to its operation class. GET, HEAD and
// OPTIONS are reads; any other method is assumed to mutate remote state.
func ClassifyMethod(method string) OperationClass {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	}
	return ClassWrite
}

// parseUsage extracts rate-limit accounting from response headers. It
// understands the RateLimit-* draft names with X-RateLimit-* fallbacks.
// Reset values are accepted as either delta seconds or a unix timestamp;
// anything above epochCutoff is treated as absolute.
func parseUsage(h http.Header, now time.Time) fixedwindow.Usage {
	const epochCutoff = 1_000_000

	var usage fixedwindow.Usage

	if v, ok := headerInt(h, "RateLimit-Limit", "X-RateLimit-Limit"); ok {
		usage.Limit = &v
	}
	if v, ok := headerInt(h, "RateLimit-Remaining", "X-RateLimit-Remaining"); ok {
		usage.Remaining = &v
	}
	if v, ok := headerInt(h, "RateLimit-Reset", "X-RateLimit-Reset"); ok {
		var resetAt time.Time
		if v > epochCutoff {
			resetAt = time.Unix(int64(v), 0)
		} else {
			resetAt = now.Add(time.Duration(v) * time.Second)
		}
		usage.ResetAt = &resetAt
	}

	return usage
}

// parseRetryAfter reads a Retry-After header as either delta seconds or an
// HTTP-date. Malformed or absent values return zero, which lets the backoff
// policy fall back to its computed delay.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	value := h.Get("Retry-After")
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if delay := at.Sub(now); delay > 0 {
			return delay
		}
	}

	return 0
}

func headerInt(h http.Header, names ...string) (int, bool) {
	for _, name := range names {
		value := h.Get(name)
		if value == "" {
			continue
		}
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			return v, true
		}
	}
	return 0, false
}
