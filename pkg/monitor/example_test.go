package monitor_test

import (
	"fmt"
	"time"

	"github.com/vnykmshr/apiflow/internal/testutil"
	"github.com/vnykmshr/apiflow/pkg/dispatch"
	"github.com/vnykmshr/apiflow/pkg/monitor"
)

// Example demonstrates sampling a dispatcher's guard status.
func Example() {
	transport := testutil.NewStubTransport(
		testutil.StubResponse{StatusCode: 200},
	)

	d, err := dispatch.NewWithConfigSafe(dispatch.Config{
		BaseURL:   "https://api.example.com/v1",
		Transport: transport,
		ReadLimit: 400,
	})
	if err != nil {
		fmt.Printf("Error creating dispatcher: %v\n", err)
		return
	}

	sampled := make(chan monitor.Sample, 1)
	m, err := monitor.NewSafe(monitor.Config{
		Source:   d,
		Interval: 10 * time.Millisecond,
		OnSample: func(s monitor.Sample) {
			select {
			case sampled <- s:
			default:
			}
		},
	})
	if err != nil {
		fmt.Printf("Error creating monitor: %v\n", err)
		return
	}

	m.Start()
	defer m.Stop()

	s := <-sampled
	fmt.Printf("Read quota: %d/%d\n", s.Status.Read.Remaining, s.Status.Read.Limit)
	fmt.Printf("Breaker: %s\n", s.Status.Breaker.State)

	// Output:
	// Read quota: 400/400
	// Breaker: closed
}
