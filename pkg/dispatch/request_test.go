package dispatch

import (
	"net/http"
	"testing"
	"time"

	"github.com/vnykmshr/apiflow/internal/testutil"
)

func TestClassifyMethod(t *testing.T) {
	tests := []struct {
		method string
		want   OperationClass
	}{
		{http.MethodGet, ClassRead},
		{http.MethodHead, ClassRead},
		{http.MethodOptions, ClassRead},
		{http.MethodPost, ClassWrite},
		{http.MethodPut, ClassWrite},
		{http.MethodPatch, ClassWrite},
		{http.MethodDelete, ClassWrite},
		{"CUSTOM", ClassWrite},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			testutil.AssertEqual(t, ClassifyMethod(tt.method), tt.want)
		})
	}
}

func TestParseUsage(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("draft names", func(t *testing.T) {
		h := http.Header{}
		h.Set("RateLimit-Limit", "400")
		h.Set("RateLimit-Remaining", "12")
		h.Set("RateLimit-Reset", "30")

		usage := parseUsage(h, now)
		testutil.AssertEqual(t, *usage.Limit, 400)
		testutil.AssertEqual(t, *usage.Remaining, 12)
		testutil.AssertEqual(t, *usage.ResetAt, now.Add(30*time.Second))
	})

	t.Run("x-prefixed fallbacks", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Limit", "100")
		h.Set("X-RateLimit-Remaining", "0")

		usage := parseUsage(h, now)
		testutil.AssertEqual(t, *usage.Limit, 100)
		testutil.AssertEqual(t, *usage.Remaining, 0)
		if usage.ResetAt != nil {
			t.Errorf("expected nil ResetAt, got %v", *usage.ResetAt)
		}
	})

	t.Run("epoch reset", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Reset", "1735732800") // 2025-01-01 12:00:00 UTC

		usage := parseUsage(h, now)
		testutil.AssertEqual(t, usage.ResetAt.Unix(), int64(1735732800))
	})

	t.Run("absent and malformed headers", func(t *testing.T) {
		h := http.Header{}
		h.Set("RateLimit-Remaining", "soon")

		usage := parseUsage(h, now)
		if usage.Limit != nil || usage.Remaining != nil || usage.ResetAt != nil {
			t.Errorf("expected empty usage, got %+v", usage)
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"delta seconds", "5", 5 * time.Second},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"zero", "0", 0},
		{"negative", "-3", 0},
		{"malformed", "soon", 0},
		{"absent", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			testutil.AssertEqual(t, parseRetryAfter(h, now), tt.want)
		})
	}
}
