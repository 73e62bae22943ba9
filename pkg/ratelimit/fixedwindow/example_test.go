package fixedwindow_test

import (
	"fmt"
	"time"

	"github.com/vnykmshr/apiflow/pkg/ratelimit/fixedwindow"
)

// Example demonstrates basic usage of the fixed-window limiter
func Example() {
	// Allow 2 requests per minute
	limiter, err := fixedwindow.NewSafe(2, time.Minute)
	if err != nil {
		panic(fmt.Sprintf("Failed to create limiter: %v", err))
	}

	for i := 1; i <= 3; i++ {
		outcome := limiter.Reserve()
		fmt.Printf("Request %d allowed: %v\n", i, outcome.Allowed)
	}

	// Output:
	// Request 1 allowed: true
	// Request 2 allowed: true
	// Request 3 allowed: false
}

// Example_remoteUsage demonstrates syncing with server-reported quota headers
func Example_remoteUsage() {
	limiter, err := fixedwindow.NewSafe(100, time.Minute)
	if err != nil {
		panic(fmt.Sprintf("Failed to create limiter: %v", err))
	}

	// The server reported only 5 requests left in its window
	remaining := 5
	limiter.Record(fixedwindow.Usage{Remaining: &remaining})

	status := limiter.Status()
	fmt.Printf("Limit: %d\n", status.Limit)
	fmt.Printf("Remaining: %d\n", status.Remaining)

	// Output:
	// Limit: 100
	// Remaining: 5
}

// Example_cancellation demonstrates returning an abandoned reservation
func Example_cancellation() {
	limiter, err := fixedwindow.NewSafe(1, time.Minute)
	if err != nil {
		panic(fmt.Sprintf("Failed to create limiter: %v", err))
	}

	outcome := limiter.Reserve()
	fmt.Printf("Reserved: %v\n", outcome.Allowed)

	// The attempt was abandoned before any transport call was made
	limiter.Cancel()
	fmt.Printf("Remaining after cancel: %d\n", limiter.Status().Remaining)

	// Output:
	// Reserved: true
	// Remaining after cancel: 1
}
