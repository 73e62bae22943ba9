package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vnykmshr/apiflow/internal/testutil"
	"github.com/vnykmshr/apiflow/pkg/backoff"
	aferrors "github.com/vnykmshr/apiflow/pkg/common/errors"
	"github.com/vnykmshr/apiflow/pkg/dispatch"
)

// Example demonstrates a basic dispatch against a remote API.
func Example() {
	transport := testutil.NewStubTransport(
		testutil.StubResponse{StatusCode: 200, Body: `{"services":[]}`},
	)

	d, err := dispatch.NewWithConfigSafe(dispatch.Config{
		BaseURL:   "https://api.example.com/v1",
		Transport: transport,
		Header: http.Header{
			"Authorization": {"Bearer example-token"},
		},
	})
	if err != nil {
		fmt.Printf("Error creating dispatcher: %v\n", err)
		return
	}

	resp, err := d.Do(context.Background(), dispatch.Request{
		Method: http.MethodGet,
		Path:   "services",
	})
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Body: %s\n", resp.Body)

	// Output:
	// Status: 200
	// Body: {"services":[]}
}

// Example_retries demonstrates transparent retries on remote pushback.
func Example_retries() {
	transport := testutil.NewStubTransport(
		testutil.StubResponse{StatusCode: 429},
		testutil.StubResponse{StatusCode: 200, Body: "ok"},
	)

	d, err := dispatch.NewWithConfigSafe(dispatch.Config{
		BaseURL:   "https://api.example.com/v1",
		Transport: transport,
		Backoff:   backoff.Policy{Base: time.Millisecond, Cap: time.Millisecond},
	})
	if err != nil {
		fmt.Printf("Error creating dispatcher: %v\n", err)
		return
	}

	resp, err := d.Do(context.Background(), dispatch.Request{
		Method: http.MethodGet,
		Path:   "services",
	})
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("Status after retry: %d\n", resp.StatusCode)
	fmt.Printf("Transport calls: %d\n", transport.Calls())

	// Output:
	// Status after retry: 200
	// Transport calls: 2
}

// Example_errorHandling demonstrates branching on the error taxonomy.
func Example_errorHandling() {
	transport := testutil.NewStubTransport(
		testutil.StubResponse{StatusCode: 404, Body: "not found"},
	)

	d, err := dispatch.NewWithConfigSafe(dispatch.Config{
		BaseURL:   "https://api.example.com/v1",
		Transport: transport,
	})
	if err != nil {
		fmt.Printf("Error creating dispatcher: %v\n", err)
		return
	}

	_, err = d.Do(context.Background(), dispatch.Request{
		Method: http.MethodGet,
		Path:   "services/missing",
	})

	switch {
	case errors.Is(err, aferrors.ErrCallerFault):
		fmt.Println("Fix the request; retrying will not help")
	case errors.Is(err, aferrors.ErrCircuitOpen), errors.Is(err, aferrors.ErrQuotaExhausted):
		fmt.Println("Rejected locally; try again later")
	case err != nil:
		fmt.Println("Remote trouble; already retried")
	}

	var callerErr *dispatch.CallerError
	if errors.As(err, &callerErr) {
		fmt.Printf("Remote said: %d %s\n", callerErr.StatusCode, callerErr.Body)
	}

	// Output:
	// Fix the request; retrying will not help
	// Remote said: 404 not found
}
